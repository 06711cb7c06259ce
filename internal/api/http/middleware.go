package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/config"
	"github.com/tzayo/library-management-system/internal/domain"
	"github.com/tzayo/library-management-system/internal/logger"
	"github.com/tzayo/library-management-system/internal/service"
)

type contextKey int

const userKey contextKey = iota

// UserFromContext returns the authenticated user placed by the auth middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

func actorFrom(r *http.Request) service.Actor {
	u, _ := UserFromContext(r.Context())
	if u == nil {
		return service.Actor{}
	}
	return service.Actor{ID: u.ID, Role: u.Role}
}

// routeKey renders "METHOD /path-template" for the matched route.
func routeKey(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.Method + " " + r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.Method + " " + r.URL.Path
	}
	return r.Method + " " + tpl
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthMiddleware enforces the security level configured for each route.
type AuthMiddleware struct {
	auth service.AuthService
}

func NewAuthMiddleware(auth service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeKey(r))
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			respondFail(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			logger.WarnContext(r.Context(), "Authentication failed", "path", r.URL.Path, "error", err)
			respondError(w, r, err)
			return
		}

		switch level {
		case config.SecurityStaff:
			if !user.Role.IsStaff() {
				respondFail(w, http.StatusForbidden, "editor or administrator role required")
				return
			}
		case config.SecurityAdmin:
			if user.Role != domain.UserRoleAdministrator {
				respondFail(w, http.StatusForbidden, "administrator role required")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// recoveryMiddleware turns handler panics into 500 responses.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", rec)
				respondFail(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
