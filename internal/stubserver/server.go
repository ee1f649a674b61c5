// Package stubserver emulates the remote search service for local
// development and integration tests: the streaming endpoint, the fallback
// endpoint, and the action-suggestions endpoint, with failure injection
// via query prefixes ("fail:" returns 500, "die:" drops the connection
// mid-stream).
package stubserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pelorus-marine/spyglass/internal/domain"
	"github.com/pelorus-marine/spyglass/internal/logger"
	"github.com/pelorus-marine/spyglass/internal/mapping"
)

// Failure-injection query prefixes.
const (
	prefixFail = "fail:"
	prefixDie  = "die:"
)

// Server serves the stubbed search contract.
type Server struct {
	logger *zap.Logger
	// EventDelay spaces out SSE events so clients observe multiple batches.
	EventDelay time.Duration
}

// New creates a stub server.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{logger: logger, EventDelay: 10 * time.Millisecond}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(s.wideEventMiddleware)

	r.Get("/search/stream", s.handleStream)
	r.Post("/search/fallback", s.handleFallback)
	r.Get("/search/actions", s.handleActions)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// handleStream emits the result set as an event stream: an optional
// exact_match_win, result batches of two, then finalized.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	if strings.HasPrefix(query, prefixFail) {
		logger.FromContext(r.Context()).Warn("Injected stream failure", zap.String("query", query))
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	if strings.HasPrefix(query, prefixDie) {
		logger.FromContext(r.Context()).Warn("Injected connection drop", zap.String("query", query))
		s.dropConnection(w)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	hits := match(query)

	// Exact title match streams first as a high-confidence single event.
	rest := hits
	for i, h := range hits {
		if strings.EqualFold(h.Title, strings.TrimSpace(query)) {
			writeEvent(w, "exact_match_win", h.encode())
			rest = append(append([]fixture(nil), hits[:i]...), hits[i+1:]...)
			break
		}
	}

	for start := 0; start < len(rest); start += 2 {
		end := start + 2
		if end > len(rest) {
			end = len(rest)
		}
		batch := make([]map[string]any, 0, end-start)
		for _, h := range rest[start:end] {
			batch = append(batch, h.encode())
		}
		writeEvent(w, "result_batch", batch)
		if flusher != nil {
			flusher.Flush()
		}
		time.Sleep(s.EventDelay)
	}

	writeEvent(w, "finalized", map[string]any{"total": len(hits)})
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query   string `json:"query"`
		YachtID string `json:"yacht_id"`
		Limit   int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// "die:" streams break mid-flight but resolve via fallback, so only
	// "fail:" stays broken here. That lets tests exercise both the
	// degraded-success and terminal-failure paths.
	if strings.HasPrefix(req.Query, prefixFail) {
		logger.FromContext(r.Context()).Warn("Injected fallback failure", zap.String("query", req.Query))
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}

	query := strings.TrimPrefix(req.Query, prefixDie)
	hits := match(query)
	if req.Limit > 0 && len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	results := make([]mapping.RawResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, h.encode())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":     results,
		"total_count": len(hits),
	})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	d := domain.Domain(r.URL.Query().Get("domain"))
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestionsFor(d),
	})
}

// dropConnection starts a stream and then severs the TCP connection, so
// clients see a transport error rather than a clean end.
func (s *Server) dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		// Fall back to an abrupt 500 when hijacking is unavailable.
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	conn, buf, err := hj.Hijack()
	if err != nil {
		return
	}
	fmt.Fprint(buf, "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\n\r\n")
	fmt.Fprint(buf, "event: result_batch\ndata: [")
	buf.Flush()
	conn.Close()
}

func writeEvent(w http.ResponseWriter, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// wideEventMiddleware emits a canonical log line per request.
func (s *Server) wideEventMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		reqLogger := s.logger.With(zap.String("request_id", requestID))
		r = r.WithContext(logger.ContextWithLogger(r.Context(), reqLogger))

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		reqLogger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_bytes", ww.BytesWritten()),
		)
	})
}
