package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pantrymap/go-pantrymap/internal/test"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) string {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"pantrymap"}, args...)))
	return out.String()
}

func TestSearchAndClear(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		_, _ = w.Write(test.OverpassResponse(
			test.OverpassNode(1, test.NorthOf(test.AtlantaLat, 0.5), test.AtlantaLon, map[string]string{
				"amenity":       "food_bank",
				"name":          "Westside Food Bank",
				"opening_hours": "Tu,Th 10:00-14:00",
			}),
		))
	}))
	defer ts.Close()

	global := []string{
		"--datadir", t.TempDir(),
		"--overpass-url", ts.URL,
		"--min-interval", "0s",
	}
	search := append(append([]string{}, global...), "search",
		fmt.Sprintf("--lat=%f", test.AtlantaLat),
		fmt.Sprintf("--lon=%f", test.AtlantaLon),
		"--json")

	var places []model.Place
	require.NoError(t, json.Unmarshal([]byte(runApp(t, search...)), &places))
	require.Len(t, places, 1)
	require.Equal(t, "node/1", places[0].ID)
	require.Equal(t, 0.5, places[0].Distance)
	require.Equal(t, []string{"Tue, Thu 10:00-14:00"}, places[0].OpeningHours)

	// Served from the persistent cache by a new process.
	out := runApp(t, search[:len(search)-1]...)
	require.Contains(t, out, "Westside Food Bank")
	require.Contains(t, out, "[Food Bank]")
	require.Equal(t, int32(1), requests.Load())

	out = runApp(t, append(append([]string{}, global...), "clear")...)
	require.Contains(t, out, "Cache cleared")

	runApp(t, search...)
	require.Equal(t, int32(2), requests.Load())
}

func TestHoursNotCached(t *testing.T) {
	out := runApp(t, "hours", "node/1")
	require.Contains(t, out, "No opening hours known")
}

func TestCommandErrors(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	require.Error(t, app.Run([]string{"pantrymap", "hours"}))
	require.Error(t, app.Run([]string{"pantrymap", "search", "--lat=91", "--lon=0"}))
	require.Error(t, app.Run([]string{"pantrymap", "index", "/nonexistent/places.json"}))
}
