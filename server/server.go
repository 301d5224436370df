package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/facade"
)

// statsProvider is implemented by backends that expose per-operation call
// statistics (see backend.Instrumented). When the injected backend provides
// them, the server serves a GET /stats endpoint.
type statsProvider interface {
	Stats() map[string]backend.OpStats
}

// Config holds the listen configuration of the HTTP server.
type Config struct {
	// Endpoint is the address the server listens on (e.g. "0.0.0.0:8080").
	Endpoint string
	// LogRequests enables the per-request logging middleware.
	LogRequests bool
}

// Server exposes a backend and its façade over HTTP. Scalar endpoints under
// /kv speak raw bytes; collection endpoints under /collections speak the
// façade's Result JSON shape.
type Server struct {
	config Config
	bk     backend.Backend
	store  *facade.Store
	logger *slog.Logger
}

// New creates a server. A nil logger selects slog.Default().
func New(config Config, bk backend.Backend, store *facade.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: config, bk: bk, store: store, logger: logger}
}

// Handler builds the route table. It is exposed separately from Serve so
// tests can drive the server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// scalar endpoints
	mux.HandleFunc("PUT /kv/{key}", s.route("kv_set", s.handleKVSet))
	mux.HandleFunc("GET /kv/{key}", s.route("kv_get", s.handleKVGet))
	mux.HandleFunc("DELETE /kv/{key}", s.route("kv_delete", s.handleKVDelete))
	mux.HandleFunc("GET /keys", s.route("keys", s.handleKeys))

	// collection endpoints
	mux.HandleFunc("PUT /collections/{collection}/{id}", s.route("col_set", s.handleColSet))
	mux.HandleFunc("GET /collections/{collection}/{id}", s.route("col_get", s.handleColGet))
	mux.HandleFunc("DELETE /collections/{collection}/{id}", s.route("col_delete", s.handleColDelete))
	mux.HandleFunc("GET /collections/{collection}", s.route("col_list", s.handleColList))
	mux.HandleFunc("POST /collections/{collection}/query", s.route("col_query", s.handleColQuery))

	// liveness and observability
	mux.HandleFunc("GET /healthz", s.route("healthz", s.handleHealthz))
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	if sp, ok := s.bk.(statsProvider); ok {
		mux.HandleFunc("GET /stats", s.route("stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, sp.Stats())
		}))
	}

	return mux
}

// Serve blocks, listening on the configured endpoint.
func (s *Server) Serve() error {
	s.logger.Info("starting HTTP server", "endpoint", s.config.Endpoint)
	return http.ListenAndServe(s.config.Endpoint, s.Handler())
}

// --------------------------------------------------------------------------
// Scalar Handlers (/kv)
// --------------------------------------------------------------------------

func (s *Server) handleKVSet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}

	if err := s.bk.Set(key, body); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKVGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	value, found, err := s.bk.Get(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(value)
}

func (s *Server) handleKVDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := s.bk.Delete(key); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	keys, err := s.bk.Keys(pattern)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// --------------------------------------------------------------------------
// Collection Handlers (/collections)
// --------------------------------------------------------------------------

func (s *Server) handleColSet(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")

	var doc facade.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		res := facade.Fail[facade.Document](facade.NewError(
			facade.RetCValidation, fmt.Sprintf("invalid document body: %v", err)))
		writeResult(w, res.Code, res)
		return
	}

	res := s.store.Set(collection, id, doc)
	writeResult(w, res.Code, res)
}

func (s *Server) handleColGet(w http.ResponseWriter, r *http.Request) {
	res := s.store.Get(r.PathValue("collection"), r.PathValue("id"))
	writeResult(w, res.Code, res)
}

func (s *Server) handleColDelete(w http.ResponseWriter, r *http.Request) {
	res := s.store.Delete(r.PathValue("collection"), r.PathValue("id"))
	writeResult(w, res.Code, res)
}

// handleColList serves both the full collection scan and the id-prefix scan
// (selected via the ?prefix= query parameter).
func (s *Server) handleColList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var res facade.Result[[]facade.Document]
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		res = s.store.GetByPrefix(collection, prefix)
	} else {
		res = s.store.GetAll(collection)
	}
	writeResult(w, res.Code, res)
}

func (s *Server) handleColQuery(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var q facade.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		res := facade.Fail[facade.QueryResult](facade.NewError(
			facade.RetCValidation, fmt.Sprintf("invalid query body: %v", err)))
		writeResult(w, res.Code, res)
		return
	}

	res := s.store.Query(collection, q)
	writeResult(w, res.Code, res)
}

// --------------------------------------------------------------------------
// Liveness Handler
// --------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := s.store.HealthCheck()
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// --------------------------------------------------------------------------
// Helpers and Middleware
// --------------------------------------------------------------------------

// httpStatus maps a façade return code to an HTTP status.
func httpStatus(code facade.RetCode) int {
	switch code {
	case facade.RetCSuccess:
		return http.StatusOK
	case facade.RetCNotFound:
		return http.StatusNotFound
	case facade.RetCValidation:
		return http.StatusBadRequest
	case facade.RetCBackendUnavailable:
		return http.StatusServiceUnavailable
	case facade.RetCSerialization:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeResult[T any](w http.ResponseWriter, code facade.RetCode, res facade.Result[T]) {
	writeJSON(w, httpStatus(code), res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusWriter captures the status code for the logging middleware.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// route wraps a handler with the per-route request counter and, when
// enabled, the request logging middleware.
func (s *Server) route(name string, next http.HandlerFunc) http.HandlerFunc {
	counter := metrics.GetOrCreateCounter(
		fmt.Sprintf(`strata_http_requests_total{route=%q}`, name))

	return func(w http.ResponseWriter, r *http.Request) {
		counter.Inc()

		if !s.config.LogRequests {
			next(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	}
}
