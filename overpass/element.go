package overpass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pantrymap/go-pantrymap/format"
	"github.com/pantrymap/go-pantrymap/geo"
	"github.com/pantrymap/go-pantrymap/model"
)

// response is the JSON document returned by the interpreter.
type response struct {
	Elements []element `json:"elements"`
	Remark   string    `json:"remark,omitempty"`
}

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *point            `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// coordinate returns the node position, or the center of a way or relation.
func (el *element) coordinate() (float64, float64, bool) {
	var lat, lon float64
	switch {
	case el.Lat != nil && el.Lon != nil:
		lat, lon = *el.Lat, *el.Lon
	case el.Center != nil:
		lat, lon = el.Center.Lat, el.Center.Lon
	default:
		return 0, 0, false
	}
	return lat, lon, geo.ValidCoordinate(lat, lon)
}

// category picks the most specific food related tag value.
func (el *element) category() string {
	if v := el.Tags["social_facility"]; v != "" {
		return v
	}
	if v := el.Tags["amenity"]; v != "" && v != "social_facility" {
		return v
	}
	if v := el.Tags["shop"]; v != "" {
		return v
	}
	return el.Tags["amenity"]
}

func (el *element) address() *model.Address {
	addr := &model.Address{
		HouseNumber: el.Tags["addr:housenumber"],
		Road:        el.Tags["addr:street"],
		City:        el.Tags["addr:city"],
		State:       el.Tags["addr:state"],
		Postcode:    el.Tags["addr:postcode"],
	}
	if addr.IsZero() {
		return nil
	}
	return addr
}

// toPlace maps an element to a Place. False is returned for elements that
// have no identity or no usable coordinate.
func (el *element) toPlace() (model.Place, bool) {
	if el.Type == "" || el.ID == 0 {
		return model.Place{}, false
	}
	lat, lon, ok := el.coordinate()
	if !ok {
		return model.Place{}, false
	}
	id := model.PlaceID(el.Type, el.ID)
	category := el.category()
	return model.Place{
		ID:           id,
		Lat:          lat,
		Lon:          lon,
		Name:         format.DisplayName(el.Tags["name"], el.Tags["operator"], el.Tags["brand"], category, id),
		Category:     category,
		Address:      el.address(),
		OpeningHours: format.Hours(el.Tags["opening_hours"]),
	}, true
}

// parsePlaceID splits an ID such as "way/123" into element type and number.
func parsePlaceID(placeID string) (string, int64, error) {
	elemType, num, ok := strings.Cut(placeID, "/")
	if !ok {
		return "", 0, fmt.Errorf("malformed place id %q", placeID)
	}
	switch elemType {
	case "node", "way", "relation":
	default:
		return "", 0, fmt.Errorf("unknown element type in place id %q", placeID)
	}
	id, err := strconv.ParseInt(num, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("malformed element number in place id %q", placeID)
	}
	return elemType, id, nil
}
