package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HabtB/Pharmacy-Pickup/internal/logging"
)

// maxBodyBytes bounds request bodies; token pages for a long batch stay well under it.
const maxBodyBytes = 16 << 20

// Handler exposes the server's operations as a JSON REST API:
//
//	POST /v1/extract    {"paths": [...], "lookup": true}
//	POST /v1/parse      {"pages": [...], "lookup": true}
//	POST /v1/ocr        {"path": "...", "preprocess": true}
//	GET  /v1/locations  ?name=&strength=&form=
//	GET  /v1/reference
//	GET  /healthz
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.httpExtract)
		r.Post("/parse", s.httpParse)
		r.Post("/ocr", s.httpOCR)
		r.Get("/locations", s.httpLocation)
		r.Get("/reference", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.Reference())
		})
	})
	return r
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Logger().Info("http listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) httpExtract(w http.ResponseWriter, r *http.Request) {
	var req pickListExtractArgs
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.ExtractPhotos(r.Context(), req.Paths, boolOr(req.Lookup, true))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) httpParse(w http.ResponseWriter, r *http.Request) {
	var req pickListParseArgs
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.ParsePages(r.Context(), req.Pages, boolOr(req.Lookup, true))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) httpOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrPageArgs
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.ReadPhoto(r.Context(), req.Path, boolOr(req.Preprocess, true))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) httpLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.LookupLocation(q.Get("name"), q.Get("strength"), q.Get("form"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger().Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Logger().Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
