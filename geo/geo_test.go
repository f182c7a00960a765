package geo_test

import (
	"math"
	"testing"

	"github.com/pantrymap/go-pantrymap/geo"
	"github.com/stretchr/testify/require"
)

func TestDistanceIdentical(t *testing.T) {
	require.Zero(t, geo.Distance(33.7676, -84.3908, 33.7676, -84.3908))
	require.Zero(t, geo.Distance(0, 0, 0, 0))
	require.Zero(t, geo.Distance(-89.9, 179.9, -89.9, 179.9))
}

func TestDistanceSymmetric(t *testing.T) {
	pts := [][2]float64{
		{33.7676, -84.3908},
		{33.7490, -84.3880},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
	}
	for _, a := range pts {
		for _, b := range pts {
			require.Equal(t, geo.Distance(a[0], a[1], b[0], b[1]), geo.Distance(b[0], b[1], a[0], a[1]))
		}
	}
}

func TestDistanceKnown(t *testing.T) {
	// Atlanta to New York City is roughly 747 miles.
	d := geo.Distance(33.7490, -84.3880, 40.7128, -74.0060)
	require.InDelta(t, 747, d, 5)

	// One degree of latitude is about 69.1 miles.
	d = geo.Distance(0, 0, 1, 0)
	require.Equal(t, 69.1, d)
}

func TestDistanceRounding(t *testing.T) {
	d := geo.Distance(33.7676, -84.3908, 33.7700, -84.3900)
	require.Equal(t, d, math.Round(d*10)/10)
}

func TestBoundingBox(t *testing.T) {
	box := geo.BoundingBox(33.7676, -84.3908, 5000)
	deg := 5000 / geo.MetersPerDegree
	require.InDelta(t, 33.7676-deg, box.South, 1e-9)
	require.InDelta(t, 33.7676+deg, box.North, 1e-9)
	require.InDelta(t, -84.3908-deg, box.West, 1e-9)
	require.InDelta(t, -84.3908+deg, box.East, 1e-9)
	require.True(t, box.Contains(33.7676, -84.3908))
	require.False(t, box.Contains(34.0, -84.3908))
}

func TestValidCoordinate(t *testing.T) {
	require.True(t, geo.ValidCoordinate(33.7676, -84.3908))
	require.True(t, geo.ValidCoordinate(-90, 180))
	require.False(t, geo.ValidCoordinate(math.NaN(), 0))
	require.False(t, geo.ValidCoordinate(0, math.Inf(1)))
	require.False(t, geo.ValidCoordinate(91, 0))
	require.False(t, geo.ValidCoordinate(0, -181))
}
