// Package format maps raw provider fields to display strings.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pantrymap/go-pantrymap/model"
)

// DefaultCategory is the label used for provider types that have no mapping.
const DefaultCategory = "Food Resource"

var categories = map[string]string{
	"food_bank":        "Food Bank",
	"food_pantry":      "Food Pantry",
	"soup_kitchen":     "Soup Kitchen",
	"social_facility":  "Community Services",
	"community_centre": "Community Center",
	"place_of_worship": "Community Services",
	"supermarket":      "Grocery Store",
	"greengrocer":      "Produce Market",
	"convenience":      "Convenience Store",
	"bakery":           "Bakery",
	"butcher":          "Butcher",
	"deli":             "Deli",
	"marketplace":      "Farmers Market",
	"farm":             "Farm Stand",
}

// Category returns the canonical label for a provider native type.
func Category(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if label, ok := categories[key]; ok {
		return label
	}
	return DefaultCategory
}

// Address returns a single line display address such as
// "123 Main St, Atlanta, GA 30303". An empty string is returned when there
// is nothing to show.
func Address(a *model.Address) string {
	if a.IsZero() {
		return ""
	}
	parts := make([]string, 0, 3)
	if street := joinNonEmpty(" ", a.HouseNumber, a.Road); street != "" {
		parts = append(parts, street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if region := joinNonEmpty(" ", a.State, a.Postcode); region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// DisplayName picks the best available name for a place: the name, then the
// operator, then the brand, and finally "{category} ({type}/{id})".
func DisplayName(name, operator, brand, category, placeID string) string {
	for _, s := range []string{name, operator, brand} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%s (%s)", Category(category), placeID)
}

const allDay = "Open 24/7"

var (
	dayTokens = regexp.MustCompile(`\b(Mo|Tu|We|Th|Fr|Sa|Su|PH|SH)\b`)
	offToken  = regexp.MustCompile(`\b(off|closed)\b`)
	spaces    = regexp.MustCompile(`\s+`)
)

var dayNames = map[string]string{
	"Mo": "Mon",
	"Tu": "Tue",
	"We": "Wed",
	"Th": "Thu",
	"Fr": "Fri",
	"Sa": "Sat",
	"Su": "Sun",
	"PH": "Holidays",
	"SH": "School holidays",
}

// Hours turns a raw opening_hours value into display lines. A value of
// "24/7" collapses to a single line, each semicolon separated rule becomes a
// line, and weekday tokens are abbreviated ("Mo-Fr" becomes "Mon-Fri"). An
// empty value yields nil.
func Hours(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if raw == "24/7" {
		return []string{allDay}
	}

	var lines []string
	for _, rule := range strings.Split(raw, ";") {
		rule = spaces.ReplaceAllString(strings.TrimSpace(rule), " ")
		if rule == "" {
			continue
		}
		if rule == "24/7" {
			lines = append(lines, allDay)
			continue
		}
		rule = dayTokens.ReplaceAllStringFunc(rule, func(tok string) string {
			return dayNames[tok]
		})
		rule = offToken.ReplaceAllString(rule, "Closed")
		rule = strings.ReplaceAll(rule, ",", ", ")
		rule = strings.ReplaceAll(rule, ",  ", ", ")
		lines = append(lines, rule)
	}
	return lines
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
