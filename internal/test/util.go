package test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/pantrymap/go-pantrymap/geo"
	"github.com/pantrymap/go-pantrymap/model"
)

// AtlantaLat and AtlantaLon are a fixed search center used across tests.
const (
	AtlantaLat = 33.7676
	AtlantaLon = -84.3908
)

var globalSeed atomic.Int64

// degreesPerMile is the latitude change that corresponds to one mile.
const degreesPerMile = 180 / (3.141592653589793 * geo.EarthRadiusMiles)

// NorthOf returns the latitude that lies miles north of lat.
func NorthOf(lat, miles float64) float64 {
	return lat + miles*degreesPerMile
}

// OverpassNode returns a raw node element as served by an Overpass server.
func OverpassNode(id int64, lat, lon float64, tags map[string]string) map[string]any {
	return map[string]any{
		"type": "node",
		"id":   id,
		"lat":  lat,
		"lon":  lon,
		"tags": tags,
	}
}

// OverpassWay returns a raw way element with a center point.
func OverpassWay(id int64, lat, lon float64, tags map[string]string) map[string]any {
	return map[string]any{
		"type": "way",
		"id":   id,
		"center": map[string]float64{
			"lat": lat,
			"lon": lon,
		},
		"tags": tags,
	}
}

// OverpassResponse encodes elements as an Overpass JSON document.
func OverpassResponse(elements ...map[string]any) []byte {
	if elements == nil {
		elements = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{
		"version":  0.6,
		"elements": elements,
	})
	if err != nil {
		panic(err)
	}
	return data
}

// RandomPlaces returns n places with distinct IDs scattered within a few
// miles of the center.
func RandomPlaces(n int, lat, lon float64) []model.Place {
	rng := rand.New(rand.NewSource(globalSeed.Add(1)))
	places := make([]model.Place, n)
	for i := range places {
		id := int64(i+1)*1000 + rng.Int63n(1000)
		places[i] = model.Place{
			ID:       model.PlaceID("node", id),
			Lat:      lat + (rng.Float64()-0.5)*0.05,
			Lon:      lon + (rng.Float64()-0.5)*0.05,
			Name:     fmt.Sprintf("Pantry %d", i),
			Category: "food_bank",
		}
	}
	return places
}
