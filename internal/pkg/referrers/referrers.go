// Package referrers normalizes raw referrer URLs to hostnames and maps
// common hostnames to friendly display names.
package referrers

import (
	"net/url"
	"strings"
)

// knownReferrers maps common referrer hostnames to display names.
var knownReferrers = map[string]string{
	// Search engines
	"google.com":     "Google",
	"google.co.uk":   "Google",
	"google.de":      "Google",
	"google.fr":      "Google",
	"bing.com":       "Bing",
	"duckduckgo.com": "DuckDuckGo",
	"yahoo.com":      "Yahoo",
	"ecosia.org":     "Ecosia",
	"kagi.com":       "Kagi",

	// Social media
	"x.com":           "X/Twitter",
	"twitter.com":     "X/Twitter",
	"t.co":            "X/Twitter",
	"facebook.com":    "Facebook",
	"l.facebook.com":  "Facebook",
	"instagram.com":   "Instagram",
	"linkedin.com":    "LinkedIn",
	"lnkd.in":         "LinkedIn",
	"reddit.com":      "Reddit",
	"old.reddit.com":  "Reddit",
	"bsky.app":        "Bluesky",
	"mastodon.social": "Mastodon",
	"youtube.com":     "YouTube",
	"youtu.be":        "YouTube",
	"t.me":            "Telegram",

	// Writing and tech communities
	"news.ycombinator.com": "Hacker News",
	"lobste.rs":            "Lobsters",
	"dev.to":               "DEV Community",
	"hashnode.com":         "Hashnode",
	"medium.com":           "Medium",
	"substack.com":         "Substack",
	"github.com":           "GitHub",
	"stackoverflow.com":    "Stack Overflow",

	// Email providers, for newsletter clicks
	"mail.google.com":  "Gmail",
	"outlook.live.com": "Outlook",
	"mail.yahoo.com":   "Yahoo Mail",
	"mail.proton.me":   "Proton Mail",
}

// Hostname reduces a raw referrer value to its hostname. Values that do not
// parse as a URL are returned as-is so the signal is never thrown away; an
// empty input yields an empty string.
func Hostname(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Hostname() == "" {
		return strings.ToLower(trimmed)
	}
	return strings.ToLower(parsed.Hostname())
}

// FriendlyName returns a display name for a referrer hostname. Unknown
// hostnames come back with "www." stripped and the first letter capitalized.
func FriendlyName(hostname string) string {
	hostname = strings.ToLower(hostname)

	if name, ok := knownReferrers[hostname]; ok {
		return name
	}

	if strings.HasPrefix(hostname, "www.") {
		withoutWWW := hostname[4:]
		if name, ok := knownReferrers[withoutWWW]; ok {
			return name
		}
		hostname = withoutWWW
	}

	for domain, name := range knownReferrers {
		if strings.HasSuffix(hostname, "."+domain) {
			return name
		}
	}

	if hostname == "" {
		return hostname
	}
	return strings.ToUpper(hostname[:1]) + hostname[1:]
}
