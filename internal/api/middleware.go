// internal/api/middleware.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/api/auth"
)

const requestIDHeader = "X-Request-ID"

type Middleware func(http.Handler) http.Handler

type requestIDKey struct{}

// ChainMiddleware wraps h so the first middleware listed runs innermost.
func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithLogging writes one line per request. Server errors log at error level
// and client errors at warn.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		var event *zerolog.Event
		logger := log.Ctx(r.Context())
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = logger.Error()
		case rec.status >= http.StatusBadRequest:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Str("remote", r.RemoteAddr).
			Bool("htmx", r.Header.Get("HX-Request") == "true").
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

// WithRecovery turns a handler panic into a 500 in the caller's format. Once
// the handler has started writing, the response is left as is.
func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			log.Ctx(r.Context()).Error().
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("Panic recovered")
			if rec.wroteHeader {
				return
			}
			apiutil.WriteError(rec, r, fmt.Errorf("panic: %v", p))
		}()
		next.ServeHTTP(rec, r)
	})
}

// WithRequestID keeps a caller-supplied UUID request id, or mints one, and
// puts it on the response and the request logger.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
	})
}

// WithSession attaches the logged-in identity, if any, to the request context.
func WithSession(store *auth.SessionStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := store.FromRequest(w, r)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load session")
			}
			if identity != nil {
				logger := log.Ctx(r.Context()).With().Str("unique_id", identity.UniqueID).Logger()
				ctx := auth.ContextWithIdentity(r.Context(), identity)
				r = r.WithContext(logger.WithContext(ctx))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(p []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
