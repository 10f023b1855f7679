// Package useragent classifies user agent strings into device type, browser
// and operating system using an embedded rule set of PCRE patterns.
package useragent

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// Device type values stored on view events.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// UserAgent is the parsed classification of one user agent string.
type UserAgent struct {
	Raw     string
	Device  string
	Browser string
	OS      string
	Version string
	Bot     bool
}

//go:embed rules/browsers.yml
//go:embed rules/oss.yml
//go:embed rules/bots.yml
var ruleFiles embed.FS

type ruleEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// regexCache compiles each pattern once, on first use.
type regexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *regexCache {
	return &regexCache{compiled: make(map[string]*pcre.Regexp)}
}

func (rc *regexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

var (
	parser *ruleParser
	once   sync.Once
)

type ruleParser struct {
	browsers []ruleEntry
	oss      []ruleEntry
	bots     []ruleEntry
	cache    *regexCache
}

func getParser() *ruleParser {
	once.Do(func() {
		parser = &ruleParser{cache: newRegexCache()}

		load := func(path string, target *[]ruleEntry) {
			data, err := ruleFiles.ReadFile(path)
			if err != nil {
				return
			}
			if err := yaml.Unmarshal(data, target); err != nil {
				fmt.Printf("Error parsing %s: %v\n", path, err)
			}
		}
		load("rules/browsers.yml", &parser.browsers)
		load("rules/oss.yml", &parser.oss)
		load("rules/bots.yml", &parser.bots)
	})
	return parser
}

// match returns the first entry whose regex matches, plus the first capture
// group when the pattern has one.
func (p *ruleParser) match(entries []ruleEntry, userAgent string) (ruleEntry, string, bool) {
	for _, entry := range entries {
		regex, err := p.cache.get(entry.Regex)
		if err != nil {
			continue
		}
		matches := regex.FindStringSubmatch(userAgent)
		if len(matches) == 0 {
			continue
		}
		version := ""
		if len(matches) > 1 {
			version = strings.ReplaceAll(matches[1], "_", ".")
		}
		return entry, version, true
	}
	return ruleEntry{}, "", false
}

// deviceType classifies by user agent substrings. Tablets are checked first
// because tablet user agents often contain "Mobile" too.
func deviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") ||
		strings.Contains(ua, "ipod") || strings.Contains(ua, "android") ||
		strings.Contains(ua, "blackberry") || strings.Contains(ua, "windows phone") {
		return DeviceMobile
	}
	return DeviceDesktop
}

// Parse classifies a user agent string. An empty or unrecognized string
// yields empty fields; callers decide their own unknown placeholders.
func Parse(userAgent string) UserAgent {
	if strings.TrimSpace(userAgent) == "" {
		return UserAgent{Raw: userAgent}
	}

	p := getParser()

	if bot, _, ok := p.match(p.bots, userAgent); ok {
		return UserAgent{
			Raw:     userAgent,
			Device:  DeviceBot,
			Browser: bot.Name,
			Bot:     true,
		}
	}

	result := UserAgent{Raw: userAgent, Device: deviceType(userAgent)}
	if browser, version, ok := p.match(p.browsers, userAgent); ok {
		result.Browser = browser.Name
		result.Version = version
	}
	if os, _, ok := p.match(p.oss, userAgent); ok {
		result.OS = os.Name
	}
	return result
}
