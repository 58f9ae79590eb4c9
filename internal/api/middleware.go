package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/cloudcfg/internal/auth"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// ctxKeyRequestID is the context key for the request ID.
	ctxKeyRequestID contextKey = "request_id"

	// ctxKeyClaims is the context key for the authenticated token claims.
	ctxKeyClaims contextKey = "claims"

	// ctxKeySubject holds a *string the auth middleware fills in, so the
	// outer logging middleware can report who made the request.
	ctxKeySubject contextKey = "subject"
)

// maxRequestIDLength caps client-supplied request IDs before they reach logs.
const maxRequestIDLength = 64

// requestIDMiddleware generates a unique request ID for each request.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		var subject string
		r = r.WithContext(context.WithValue(r.Context(), ctxKeySubject, &subject))
		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		}
		if subject != "" {
			attrs = append(attrs, "subject", subject)
		}
		s.logger.Info("http request", attrs...)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize is the maximum allowed request body size (64 KB).
// Every route is a GET, so bodies are never read.
const maxRequestBodySize = 64 << 10

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token and stores its claims in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeUnauthorized(w, "missing bearer token")
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(token), s.secCfg.JWT.Secret)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token has expired"
			}
			s.logger.Debug("rejected bearer token",
				"error", err,
				"request_id", r.Context().Value(ctxKeyRequestID),
			)
			writeUnauthorized(w, msg)
			return
		}

		if subject, ok := r.Context().Value(ctxKeySubject).(*string); ok {
			*subject = claims.Subject
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission rejects requests whose token role lacks perm.
// It must run after authMiddleware.
func (s *Server) requirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			if !auth.HasPermission(claims.Role, perm) {
				writeForbidden(w, "role "+string(claims.Role)+" lacks "+string(perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.CustomClaims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.CustomClaims)
	return claims
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
