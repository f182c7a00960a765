package model

import (
	"sort"
	"strconv"
)

// Place is a single food resource point of interest.
type Place struct {
	// ID is stable across refetches of the same underlying entity. It is
	// derived from provider native identifiers, such as "node/123".
	ID string `json:"id"`
	// Lat and Lon are the coordinate of the place in degrees.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	// Name is the best available human readable name.
	Name string `json:"name"`
	// Category is the provider native type, such as "food_bank".
	Category string `json:"category"`
	// Address is nil when the provider has no address information.
	Address *Address `json:"address,omitempty"`
	// OpeningHours holds display lines, and is nil until hydrated.
	OpeningHours []string `json:"opening_hours,omitempty"`
	// Distance is the distance in miles from the search center.
	Distance float64 `json:"distance"`
	// Source names the provider that produced this record.
	Source string `json:"source,omitempty"`
}

// Address holds structured address fields. Any field may be empty.
type Address struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
}

// IsZero reports whether no address field is set.
func (a *Address) IsZero() bool {
	return a == nil || (a.HouseNumber == "" && a.Road == "" && a.City == "" && a.State == "" && a.Postcode == "")
}

// PlaceID builds the stable identifier for a provider element type and
// numeric id.
func PlaceID(elemType string, id int64) string {
	return elemType + "/" + strconv.FormatInt(id, 10)
}

// Merge unions place lists by ID. When an ID occurs more than once, the last
// occurrence wins but keeps the position of the first. Merging a list with
// itself yields the same list.
func Merge(lists ...[]Place) []Place {
	var size int
	for _, l := range lists {
		size += len(l)
	}
	if size == 0 {
		return nil
	}
	index := make(map[string]int, size)
	merged := make([]Place, 0, size)
	for _, l := range lists {
		for _, p := range l {
			if i, ok := index[p.ID]; ok {
				merged[i] = p
				continue
			}
			index[p.ID] = len(merged)
			merged = append(merged, p)
		}
	}
	return merged
}

// SortByDistance sorts places by ascending Distance. Equal distances are
// ordered by ID so that the result is deterministic.
func SortByDistance(places []Place) {
	sort.SliceStable(places, func(i, j int) bool {
		if places[i].Distance != places[j].Distance {
			return places[i].Distance < places[j].Distance
		}
		return places[i].ID < places[j].ID
	})
}

// Clone returns a deep copy of places. The copy shares no memory with the
// original, so either can be modified without affecting the other.
func Clone(places []Place) []Place {
	if places == nil {
		return nil
	}
	out := make([]Place, len(places))
	for i := range places {
		out[i] = places[i].clone()
	}
	return out
}

func (p Place) clone() Place {
	if p.Address != nil {
		addr := *p.Address
		p.Address = &addr
	}
	if p.OpeningHours != nil {
		p.OpeningHours = append(make([]string, 0, len(p.OpeningHours)), p.OpeningHours...)
	}
	return p
}
