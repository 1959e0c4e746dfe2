// Package server exposes directory queries as a read-only HTTP/JSON API.
//
// Routes:
//   GET /regions?prefix=P           region names, optionally filtered by prefix
//   GET /vendors                    known and active vendor ids
//   GET /rates?vendor=V&region=R    rates of region R from vendor V
//   GET /vendors-for?region=R       rate bounds of every vendor covering R
//   GET /stats?all=true             node statistics

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kashari/golog"
	"github.com/richinex/codedir/directory"
	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/stats"
)

// Server answers queries against one directory.
type Server struct {
	dir *directory.Directory
	mux *http.ServeMux
}

// New creates a server reading from dir.
func New(dir *directory.Directory) *Server {
	s := &Server{dir: dir, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /regions", s.handleRegions)
	s.mux.HandleFunc("GET /vendors", s.handleVendors)
	s.mux.HandleFunc("GET /rates", s.handleRates)
	s.mux.HandleFunc("GET /vendors-for", s.handleVendorsFor)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	return s
}

// ServeHTTP implements http.Handler and logs each request with its duration.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, req)
	golog.Debug("Request: {} {} from {} -> {} in {}", req.Method, req.URL.RequestURI(), req.RemoteAddr, rec.status, time.Since(start))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		IdleTimeout:  90 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		golog.Info("Starting server on {}", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	golog.Info("Server on {} stopped", addr)
	return nil
}

type vendorsResponse struct {
	Vendors []model.VendorID `json:"vendors"`
	Active  []model.VendorID `json:"active"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegions(w http.ResponseWriter, req *http.Request) {
	prefix := req.URL.Query().Get("prefix")
	if prefix == "" {
		writeJSON(w, http.StatusOK, s.dir.ListRegions())
		return
	}
	writeJSON(w, http.StatusOK, s.dir.Regions().NamesWithPrefix(prefix))
}

func (s *Server) handleVendors(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, vendorsResponse{
		Vendors: s.dir.ListVendors(),
		Active:  s.dir.ActiveVendors(),
	})
}

func (s *Server) handleRates(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	rates, err := s.dir.RatesForText(q.Get("vendor"), q.Get("region"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (s *Server) handleVendorsFor(w http.ResponseWriter, req *http.Request) {
	vendors, err := s.dir.VendorsFor(req.URL.Query().Get("region"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (s *Server) handleStats(w http.ResponseWriter, req *http.Request) {
	perVendor, _ := strconv.ParseBool(req.URL.Query().Get("all"))
	writeJSON(w, http.StatusOK, stats.ForDirectory(s.dir, perVendor))
}

// statusFor maps query errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidVendorID),
		errors.Is(err, model.ErrInvalidRegionName),
		errors.Is(err, model.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownVendor),
		errors.Is(err, model.ErrUnknownRegion):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		golog.Error("Query failed: {}", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		golog.Error("Failed to encode response: {}", err)
		http.Error(w, "500 internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
