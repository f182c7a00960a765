package rwriter_test

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pantrymap/go-pantrymap/internal/test"
	"github.com/pantrymap/go-pantrymap/model"
	"github.com/pantrymap/go-pantrymap/rwriter"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, places []model.Place, options ...rwriter.Option) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respW, err := rwriter.New(w, r, options...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pw := rwriter.NewPlaceResponseWriter(respW)
		for _, p := range places {
			require.NoError(t, pw.WritePlace(p))
		}
		require.Equal(t, len(places), pw.Count())
		require.NoError(t, pw.Close())
	}))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, accept ...string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for _, a := range accept {
		req.Header.Add("Accept", a)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestJSONResponse(t *testing.T) {
	places := test.RandomPlaces(3, test.AtlantaLat, test.AtlantaLon)
	ts := newServer(t, places)

	res := get(t, ts.URL+"/places", "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body rwriter.PlacesResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, places, body.Places)
}

func TestEmptyJSONResponse(t *testing.T) {
	ts := newServer(t, nil)
	res := get(t, ts.URL+"/places", "application/json")
	require.Equal(t, http.StatusOK, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, `{"places":[]}`, strings.TrimSpace(string(data)))
}

func TestNDJSONResponse(t *testing.T) {
	places := test.RandomPlaces(4, test.AtlantaLat, test.AtlantaLon)
	ts := newServer(t, places)

	res := get(t, ts.URL+"/places", "application/x-ndjson")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/x-ndjson", res.Header.Get("Content-Type"))

	var got []model.Place
	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		var p model.Place
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &p))
		got = append(got, p)
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, places, got)
}

func TestNegotiation(t *testing.T) {
	ts := newServer(t, nil)

	// Accept header is required unless JSON is preferred.
	res := get(t, ts.URL+"/places")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "accept header must be specified", strings.TrimSpace(string(data)))

	res = get(t, ts.URL+"/places", "text/html")
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = get(t, ts.URL+"/places", "*/*")
	require.Equal(t, "application/x-ndjson", res.Header.Get("Content-Type"))

	preferJSON := newServer(t, nil, rwriter.WithPreferJson(true))
	res = get(t, preferJSON.URL+"/places")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	res = get(t, preferJSON.URL+"/places", "*/*")
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))

	res = get(t, preferJSON.URL+"/places", "application/x-ndjson")
	require.Equal(t, "application/x-ndjson", res.Header.Get("Content-Type"))
}

func TestMatchQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/places?force=true&force=1", nil)
	present, match := rwriter.MatchQueryParam(req, "force", "true")
	require.True(t, present)
	require.True(t, match)
	present, match = rwriter.MatchQueryParam(req, "force", "yes")
	require.True(t, present)
	require.False(t, match)
	present, _ = rwriter.MatchQueryParam(req, "radius", "5")
	require.False(t, present)
}
