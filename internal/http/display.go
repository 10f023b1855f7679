package http

import (
	"strings"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inkwell/internal/analytics"
	"inkwell/internal/pkg/referrers"
	"inkwell/internal/views"
)

var countryQuery = gountries.New()
var titleCaser = cases.Title(language.English)

// displayCountry converts an ISO country code to its English name.
func displayCountry(code string) string {
	if code == "" || code == views.UnknownCountry {
		return "Unknown"
	}
	country, err := countryQuery.FindCountryByAlpha(code)
	if err != nil {
		return code
	}
	return country.Name.Common
}

// displayValue title-cases a stored dimension value and maps the sentinel
// placeholders to readable labels.
func displayValue(value string) string {
	switch value {
	case "", views.UnknownDevice, views.UnknownBrowser, views.UnknownOS:
		return "Unknown"
	case views.DirectOrUnknownReferrer:
		return "Direct"
	}
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

// presentBreakdowns rewrites raw breakdown values into display labels.
// Counts and ordering are untouched.
func presentBreakdowns(b analytics.Breakdowns) analytics.Breakdowns {
	present := func(items []analytics.DimensionValue, convert func(string) string) []analytics.DimensionValue {
		out := make([]analytics.DimensionValue, len(items))
		for i, item := range items {
			out[i] = analytics.DimensionValue{Value: convert(item.Value), Count: item.Count}
		}
		return out
	}

	referrer := func(value string) string {
		if value == "" || value == views.DirectOrUnknownReferrer {
			return "Direct"
		}
		return referrers.FriendlyName(value)
	}

	return analytics.Breakdowns{
		Referrers:        present(b.Referrers, referrer),
		Devices:          present(b.Devices, displayValue),
		Browsers:         present(b.Browsers, displayValue),
		OperatingSystems: present(b.OperatingSystems, displayValue),
		Countries:        present(b.Countries, displayCountry),
	}
}
