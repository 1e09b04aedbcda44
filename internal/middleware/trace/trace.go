// Package trace logs every HTTP request with its chi request id and makes a
// request-scoped logger available to handlers.
package trace

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/log"
)

// Middleware handles request tracing and logging. It expects chi's
// middleware.RequestID to run first.
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string
	requests  atomic.Int64
	failures  atomic.Int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentHTTP),
		extractIP: extractIP,
	}
}

// Handler logs each request on completion at a level chosen by status code.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		requestID := middleware.GetReqID(ctx)
		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		r = r.WithContext(log.NewContext(ctx, reqLogger))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.Add(1)

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
			m.failures.Add(1)
		case status >= 400:
			level = slog.LevelWarn
		}

		reqLogger.Log(ctx, level, "HTTP request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP,
			"bytes", ww.BytesWritten())
	})
}

// Requests returns how many requests completed and how many ended in a 5xx.
func (m *Middleware) Requests() (total, failed int64) {
	return m.requests.Load(), m.failures.Load()
}
