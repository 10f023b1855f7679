package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inkwell/internal/analytics"
	"inkwell/internal/views"
)

func TestDisplayCountry(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"US", "United States"},
		{"DE", "Germany"},
		{"ES", "Spain"},
		{views.UnknownCountry, "Unknown"},
		{"", "Unknown"},
		{"ZZ", "ZZ"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, displayCountry(tt.code), "code: %q", tt.code)
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"desktop", "Desktop"},
		{"mobile", "Mobile"},
		{"chrome_os", "Chrome Os"},
		{views.UnknownDevice, "Unknown"},
		{views.UnknownBrowser, "Unknown"},
		{views.UnknownOS, "Unknown"},
		{views.DirectOrUnknownReferrer, "Direct"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, displayValue(tt.value), "value: %q", tt.value)
	}
}

func TestPresentBreakdowns(t *testing.T) {
	raw := analytics.Breakdowns{
		Referrers: []analytics.DimensionValue{
			{Value: views.DirectOrUnknownReferrer, Count: 15},
			{Value: "news.ycombinator.com", Count: 6},
			{Value: "example.org", Count: 1},
		},
		Devices: []analytics.DimensionValue{
			{Value: "desktop", Count: 10},
			{Value: views.UnknownDevice, Count: 2},
		},
		Countries: []analytics.DimensionValue{
			{Value: "US", Count: 8},
			{Value: views.UnknownCountry, Count: 3},
		},
	}

	got := presentBreakdowns(raw)

	assert.Equal(t, []analytics.DimensionValue{
		{Value: "Direct", Count: 15},
		{Value: "Hacker News", Count: 6},
		{Value: "Example.org", Count: 1},
	}, got.Referrers)

	assert.Equal(t, []analytics.DimensionValue{
		{Value: "Desktop", Count: 10},
		{Value: "Unknown", Count: 2},
	}, got.Devices)

	assert.Equal(t, []analytics.DimensionValue{
		{Value: "United States", Count: 8},
		{Value: "Unknown", Count: 3},
	}, got.Countries)

	assert.Empty(t, got.Browsers)
	assert.Empty(t, got.OperatingSystems)
}
