package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/objcache/observe"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	authn          Authenticator
	logger         observe.Logger
	allowAnonymous bool
}

// WithMiddlewareLogger sets the logger for rejections and internal errors.
func WithMiddlewareLogger(l observe.Logger) MiddlewareOption {
	return func(m *middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

// AllowAnonymous lets requests without credentials through with
// AnonymousIdentity. Requests with bad credentials are still rejected.
func AllowAnonymous() MiddlewareOption {
	return func(m *middleware) { m.allowAnonymous = true }
}

// Middleware authenticates each request with authn and stores the identity
// in the request context. Rejections get 401 with a WWW-Authenticate header;
// authenticator failures get 500.
func Middleware(authn Authenticator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	m := &middleware{authn: authn, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := &AuthRequest{Headers: r.Header, Resource: r.URL.Path}

			if !m.authn.Supports(ctx, req) {
				if m.allowAnonymous {
					next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, AnonymousIdentity())))
					return
				}
				m.reject(w, r, ErrMissingCredentials)
				return
			}

			res, err := m.authn.Authenticate(ctx, req)
			if err != nil {
				m.logger.Error(ctx, "authentication error",
					observe.Field{Key: "authenticator", Value: m.authn.Name()},
					observe.Field{Key: "error", Value: err.Error()},
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if res == nil || !res.Authenticated {
				reason := ErrInvalidCredentials
				if res != nil && res.Error != nil {
					reason = res.Error
				}
				m.reject(w, r, reason)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, res.Identity)))
		})
	}
}

func (m *middleware) reject(w http.ResponseWriter, r *http.Request, reason error) {
	m.logger.Debug(r.Context(), "request rejected",
		observe.Field{Key: "path", Value: r.URL.Path},
		observe.Field{Key: "reason", Value: reason.Error()},
	)

	challenge := `Bearer realm="objcache"`
	if errors.Is(reason, ErrTokenExpired) || errors.Is(reason, ErrInvalidCredentials) || errors.Is(reason, ErrTokenMalformed) {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
