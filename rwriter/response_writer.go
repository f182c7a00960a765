// Package rwriter writes place lookup responses as JSON or as streamed
// newline delimited JSON, as negotiated by the request's Accept header.
package rwriter

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/pantrymap/go-pantrymap/apierror"
)

const (
	mediaTypeNDJson = "application/x-ndjson"
	mediaTypeJson   = "application/json"
	mediaTypeAny    = "*/*"
)

type ResponseWriter struct {
	w       http.ResponseWriter
	f       http.Flusher
	encoder *json.Encoder
	nd      bool
}

// New negotiates the response media type for r. The returned error is an
// *apierror.Error with status 400 when the Accept header cannot be
// satisfied.
func New(w http.ResponseWriter, r *http.Request, options ...Option) (*ResponseWriter, error) {
	opts, err := getOpts(options)
	if err != nil {
		return nil, err
	}

	accepts := r.Header.Values("Accept")
	var nd, okJson bool
	for _, accept := range accepts {
		amts := strings.Split(accept, ",")
		for _, amt := range amts {
			mt, _, err := mime.ParseMediaType(amt)
			if err != nil {
				return nil, apierror.New(errors.New("invalid Accept header"), http.StatusBadRequest)
			}
			switch mt {
			case mediaTypeNDJson:
				nd = true
			case mediaTypeJson:
				okJson = true
			case mediaTypeAny:
				nd = !opts.preferJson
				okJson = true
			}
		}
	}

	if len(accepts) == 0 {
		if !opts.preferJson {
			return nil, apierror.New(errors.New("accept header must be specified"), http.StatusBadRequest)
		}
	} else if !okJson && !nd {
		return nil, apierror.New(fmt.Errorf("media type not supported: %s", accepts), http.StatusBadRequest)
	}
	// JSON wins when both are acceptable and JSON is preferred.
	if nd && okJson && opts.preferJson {
		nd = false
	}

	flusher, _ := w.(http.Flusher)
	if nd {
		w.Header().Set("Content-Type", mediaTypeNDJson)
		w.Header().Set("Connection", "Keep-Alive")
		w.Header().Set("X-Content-Type-Options", "nosniff")
	} else {
		w.Header().Set("Content-Type", mediaTypeJson)
	}

	return &ResponseWriter{
		w:       w,
		f:       flusher,
		encoder: json.NewEncoder(w),
		nd:      nd,
	}, nil
}

func (w *ResponseWriter) Flush() {
	if w.f != nil {
		w.f.Flush()
	}
}

func (w *ResponseWriter) Encoder() *json.Encoder {
	return w.encoder
}

func (w *ResponseWriter) Header() http.Header {
	return w.w.Header()
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	return w.w.Write(b)
}

func (w *ResponseWriter) WriteHeader(statusCode int) {
	if statusCode != http.StatusOK {
		w.w.WriteHeader(statusCode)
	}
}

// MatchQueryParam reports whether the query parameter key is present, and
// whether any of its values equals value.
func MatchQueryParam(r *http.Request, key, value string) (bool, bool) {
	labels, present := r.URL.Query()[key]
	if !present {
		return false, false
	}
	for _, label := range labels {
		if label == value {
			return true, true
		}
	}
	return true, false
}
