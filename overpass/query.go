package overpass

import (
	"fmt"
	"strings"
	"time"

	"github.com/pantrymap/go-pantrymap/geo"
)

// Filter selects elements whose tag Key has one of Values.
type Filter struct {
	Key    string
	Values []string
}

// DefaultFilters select grocers and food assistance providers.
var DefaultFilters = []Filter{
	{Key: "shop", Values: []string{"supermarket", "greengrocer", "convenience", "bakery", "deli", "butcher"}},
	{Key: "amenity", Values: []string{"food_bank", "soup_kitchen", "marketplace"}},
	{Key: "social_facility", Values: []string{"food_bank", "soup_kitchen"}},
}

// placesQuery builds one union query covering every filter within box.
// Ways and relations are returned with their center point.
func placesQuery(box geo.Box, filters []Filter, timeout time.Duration) string {
	bbox := fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", box.South, box.West, box.North, box.East)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, f := range filters {
		fmt.Fprintf(&b, "  nwr[%q~\"^(%s)$\"]%s;\n", f.Key, strings.Join(f.Values, "|"), bbox)
	}
	b.WriteString(");\nout center tags;\n")
	return b.String()
}

// hoursQuery builds a query for the tags of a single element.
func hoursQuery(elemType string, id int64, timeout time.Duration) string {
	return fmt.Sprintf("[out:json][timeout:%d];\n%s(%d);\nout tags;\n", int(timeout.Seconds()), elemType, id)
}
