package api

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/autonotes/backend/internal/metrics"
	"github.com/autonotes/backend/internal/requestid"
)

// statusRecorder wraps http.ResponseWriter to record the status code
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// accessLog logs every request and records its metrics
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		status := strconv.Itoa(rw.status)
		metrics.ObserveRequest(r.Method, routeLabel(r.URL.Path), status, elapsed)

		s.Logger.WithFields(logrus.Fields{
			"request_id": requestid.FromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rw.status,
			"duration":   elapsed.String(),
		}).Info("Request handled")
	})
}

// recoverer turns a panic in a handler into a 500 response.
// A response whose header already went out is left as it is.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, ok := w.(*statusRecorder)
		if !ok {
			rw = &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		}
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.Logger.WithFields(logrus.Fields{
					"request_id":     requestid.FromContext(r.Context()),
					"panic":          rec,
					"stack":          string(debug.Stack()),
					"header_written": rw.wroteHeader,
				}).Error("Unhandled panic")
				if rw.wroteHeader {
					return
				}
				errorResponse(rw, http.StatusInternalServerError, CodeInternal, "Internal server error occurred")
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// cors allows the configured origins and answers preflight requests
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestid.Header)
			h.Set("Access-Control-Expose-Headers", requestid.Header)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.Config.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// routeLabel keeps metric label cardinality bounded
func routeLabel(path string) string {
	switch path {
	case "/health", "/metrics", "/api/v1/summarize", "/api/v1/summarize/url":
		return path
	default:
		return "unmatched"
	}
}
