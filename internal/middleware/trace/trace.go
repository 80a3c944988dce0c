package trace

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "expenses/internal/log"
)

const (
	// HeaderRequestID carries the request id in and out
	HeaderRequestID = "X-Request-ID"

	maxInboundIDLength = 64
)

// Recorder receives one observation per completed request.
type Recorder interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
}

// Options configures the trace middleware.
type Options struct {
	Logger    *applog.Logger
	ExtractIP func(*http.Request) string
	// RouteLabel maps a request to a low-cardinality route name for metrics.
	RouteLabel func(*http.Request) string
	Recorder   Recorder
}

// Middleware handles request tracing and logging
type Middleware struct {
	opts Options
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(opts Options) *Middleware {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	return &Middleware{opts: opts.withDefaults()}
}

func (o Options) withDefaults() Options {
	if o.ExtractIP == nil {
		o.ExtractIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	if o.RouteLabel == nil {
		o.RouteLabel = func(*http.Request) string { return "other" }
	}
	return o
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := m.opts.ExtractIP(r)

		requestID := inboundRequestID(r)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		logger := m.opts.Logger.WithComponent(applog.ComponentHTTP).
			With(applog.NewFields().WithRequestID(requestID).ToSlice()...)
		ctx := applog.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "HTTP request started",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
				WithClientIP(clientIP).
				ToSlice()...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		route := m.opts.RouteLabel(r)
		if m.opts.Recorder != nil {
			m.opts.Recorder.ObserveRequest(route, r.Method, rw.statusCode, duration)
		}

		logLevel := slog.LevelInfo
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if rw.statusCode >= 500 {
			logLevel = slog.LevelError
		}

		fields := applog.NewFields().
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400).
			WithClientIP(clientIP)
		fields[applog.FieldMethod] = r.Method
		fields[applog.FieldPath] = r.URL.Path
		fields[applog.FieldRoute] = route
		fields[applog.FieldDurationHuman] = duration.String()
		logger.Log(ctx, logLevel, "HTTP request completed", fields.ToSlice()...)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// inboundRequestID accepts a caller-supplied id if it is a sane token.
func inboundRequestID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if id == "" || len(id) > maxInboundIDLength {
		return ""
	}
	for _, c := range id {
		if !(c == '-' || c == '_' || c == '.' ||
			(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return ""
		}
	}
	return id
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}
