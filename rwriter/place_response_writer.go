package rwriter

import (
	"github.com/pantrymap/go-pantrymap/model"
)

// PlacesResponse is the JSON body of a place search.
type PlacesResponse struct {
	Places []model.Place `json:"places"`
}

// PlaceResponseWriter writes search results. In NDJSON mode each place is
// written and flushed as it is given. In JSON mode places are collected and
// written as one PlacesResponse on Close.
type PlaceResponseWriter struct {
	ResponseWriter
	count  int
	places []model.Place
}

func NewPlaceResponseWriter(w *ResponseWriter) *PlaceResponseWriter {
	return &PlaceResponseWriter{
		ResponseWriter: *w,
	}
}

func (pw *PlaceResponseWriter) WritePlace(p model.Place) error {
	if pw.nd {
		err := pw.encoder.Encode(p)
		if err != nil {
			return err
		}
		pw.Flush()
	} else {
		pw.places = append(pw.places, p)
	}
	pw.count++
	return nil
}

// Count returns the number of places written.
func (pw *PlaceResponseWriter) Count() int {
	return pw.count
}

// Close finishes the response. An empty search result is a valid response.
func (pw *PlaceResponseWriter) Close() error {
	if pw.nd {
		return nil
	}
	places := pw.places
	if places == nil {
		places = []model.Place{}
	}
	return pw.encoder.Encode(PlacesResponse{Places: places})
}
