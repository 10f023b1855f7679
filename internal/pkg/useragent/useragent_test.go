package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDesktopBrowsers(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		browser   string
		os        string
		device    string
	}{
		{
			name:      "chrome on windows",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser:   "Chrome",
			os:        "Windows",
			device:    DeviceDesktop,
		},
		{
			name:      "firefox on linux",
			userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			browser:   "Firefox",
			os:        "Linux",
			device:    DeviceDesktop,
		},
		{
			name:      "safari on macos",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			browser:   "Safari",
			os:        "macOS",
			device:    DeviceDesktop,
		},
		{
			name:      "edge matches before chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			browser:   "Edge",
			os:        "Windows",
			device:    DeviceDesktop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.userAgent)
			assert.Equal(t, tt.browser, result.Browser)
			assert.Equal(t, tt.os, result.OS)
			assert.Equal(t, tt.device, result.Device)
			assert.False(t, result.Bot)
		})
	}
}

func TestParseMobileDevices(t *testing.T) {
	iphone := Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1")
	assert.Equal(t, DeviceMobile, iphone.Device)
	assert.Equal(t, "iOS", iphone.OS)

	android := Parse("Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
	assert.Equal(t, DeviceMobile, android.Device)
	assert.Equal(t, "Android", android.OS)
	assert.Equal(t, "Chrome", android.Browser)

	ipad := Parse("Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1")
	assert.Equal(t, DeviceTablet, ipad.Device)
	assert.Equal(t, "iOS", ipad.OS)
}

func TestParseBots(t *testing.T) {
	tests := []struct {
		userAgent string
		name      string
	}{
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "Googlebot"},
		{"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)", "Bingbot"},
		{"curl/8.4.0", "HTTP Client"},
		{"Mozilla/5.0 (compatible; archive-crawler/1.0)", "Generic Bot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.userAgent)
			assert.True(t, result.Bot)
			assert.Equal(t, DeviceBot, result.Device)
			assert.Equal(t, tt.name, result.Browser)
		})
	}
}

func TestMatchSkipsNonMatchingRules(t *testing.T) {
	p := getParser()

	// A regular browser UA must fall through the whole bot list rather
	// than sticking to the first entry on a miss.
	entry, _, ok := p.match(p.bots, "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.False(t, ok)
	assert.Empty(t, entry.Name)
}

func TestParseEmptyUserAgent(t *testing.T) {
	result := Parse("")
	assert.Empty(t, result.Browser)
	assert.Empty(t, result.OS)
	assert.Empty(t, result.Device)
	assert.False(t, result.Bot)
}
