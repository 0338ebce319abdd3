package server

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health
	mux.HandleFunc("GET /health", s.handleHealth)

	// Recall
	mux.HandleFunc("GET /v1/memory/search", s.handleSearch)
	mux.HandleFunc("GET /v1/memory/context", s.handleContext)
	mux.HandleFunc("GET /v1/memory/user", s.handleAboutUser)
	mux.HandleFunc("GET /v1/memory/emotions", s.handleEmotions)
	mux.HandleFunc("GET /v1/memory/stats", s.handleStats)

	// Store and maintenance
	mux.HandleFunc("POST /v1/memory/consolidate", s.handleConsolidate)
	mux.HandleFunc("POST /v1/memory/{kind}", s.handleStore)
	mux.HandleFunc("DELETE /v1/memory/{kind}", s.handleClear)
	mux.HandleFunc("DELETE /v1/memory", s.handleClearAll)

	// Companion turn
	mux.HandleFunc("POST /v1/chat", s.handleChat)

	// Tool channel
	mux.HandleFunc("GET /ws", s.handleWS)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, goerr.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
