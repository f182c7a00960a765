// Package server exposes a Locator over HTTP.
//
//	GET  /places?lat=<deg>&lon=<deg>&radius=<km>[&force=true]
//	GET  /hours/<place-id>
//	POST /clear
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pantrymap/go-pantrymap/apierror"
	"github.com/pantrymap/go-pantrymap/locator"
	"github.com/pantrymap/go-pantrymap/rwriter"
)

var log = logging.Logger("server")

// DefaultRadiusKm is the search radius used when a request has none.
const DefaultRadiusKm = 5.0

// Server handles place search, hours and cache clearing requests.
type Server struct {
	loc *locator.Locator
	mux *http.ServeMux
}

// HoursResponse is the JSON body of an hours request.
type HoursResponse struct {
	ID           string   `json:"id"`
	OpeningHours []string `json:"opening_hours"`
}

// New creates a Server backed by loc.
func New(loc *locator.Locator) *Server {
	s := &Server{
		loc: loc,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/places", s.handlePlaces)
	s.mux.HandleFunc("/hours/", s.handleHours)
	s.mux.HandleFunc("/clear", s.handleClear)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apierror.New(nil, http.StatusMethodNotAllowed))
		return
	}
	rw, err := rwriter.New(w, r, rwriter.WithPreferJson(true))
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	lat, err := floatParam(query.Get("lat"), "lat")
	if err != nil {
		writeError(w, err)
		return
	}
	lon, err := floatParam(query.Get("lon"), "lon")
	if err != nil {
		writeError(w, err)
		return
	}
	radius := DefaultRadiusKm
	if query.Has("radius") {
		if radius, err = floatParam(query.Get("radius"), "radius"); err != nil {
			writeError(w, err)
			return
		}
	}
	_, force := rwriter.MatchQueryParam(r, "force", "true")

	places, err := s.loc.Search(r.Context(), lat, lon, radius, force)
	if err != nil {
		if errors.Is(err, locator.ErrInvalidArgument) {
			err = apierror.New(err, http.StatusBadRequest)
		}
		writeError(w, err)
		return
	}

	pw := rwriter.NewPlaceResponseWriter(rw)
	for _, p := range places {
		if err = pw.WritePlace(p); err != nil {
			log.Errorw("Cannot write place", "err", err)
			return
		}
	}
	if err = pw.Close(); err != nil {
		log.Errorw("Cannot finish response", "err", err)
	}
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, apierror.New(nil, http.StatusMethodNotAllowed))
		return
	}
	placeID := strings.TrimPrefix(r.URL.Path, "/hours/")
	if placeID == "" {
		writeError(w, apierror.New(errors.New("missing place id"), http.StatusBadRequest))
		return
	}
	rw, err := rwriter.New(w, r, rwriter.WithPreferJson(true))
	if err != nil {
		writeError(w, err)
		return
	}
	hours, ok := s.loc.GetHours(r.Context(), placeID)
	if !ok {
		writeError(w, apierror.New(fmt.Errorf("no hours cached for %s", placeID), http.StatusNotFound))
		return
	}
	if err = rw.Encoder().Encode(HoursResponse{ID: placeID, OpeningHours: hours}); err != nil {
		log.Errorw("Cannot write hours", "err", err)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, apierror.New(nil, http.StatusMethodNotAllowed))
		return
	}
	if err := s.loc.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func floatParam(value, name string) (float64, error) {
	if value == "" {
		return 0, apierror.New(fmt.Errorf("missing %s", name), http.StatusBadRequest)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apierror.New(fmt.Errorf("invalid %s: %s", name, value), http.StatusBadRequest)
	}
	return f, nil
}

// writeError writes err with the status it carries, or 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		status = apiErr.Status()
	}
	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}
