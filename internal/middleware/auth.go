package middleware

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/remember"
	"github.com/ayush/animanga/backend/internal/session"
)

// Sessions loads the visitor's session into the request context. A visitor
// without a live session but with a valid remember_me cookie is logged in
// again; an invalid remember_me cookie is cleared.
func Sessions(sessions *session.Manager, tokens *remember.Service, log logrus.FieldLogger, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			s, err := sessions.Load(ctx, r)
			if err != nil {
				log.WithError(err).Warn("session load failed")
				s = nil
			}

			if !s.IsAuthenticated() {
				if c, cerr := r.Cookie(remember.CookieName); cerr == nil && c.Value != "" {
					u, err := tokens.Verify(ctx, c.Value)
					switch {
					case errors.Is(err, remember.ErrInvalidToken):
						http.SetCookie(w, remember.ClearCookie(secureCookies))
					case err != nil:
						log.WithError(err).Error("remember-me verify failed")
					default:
						fresh, err := sessions.Establish(ctx, w, r, u)
						if err != nil {
							log.WithError(err).WithField("user_id", u.ID).Error("remember-me session failed")
						} else {
							log.WithField("user_id", u.ID).Info("logged in from remember-me cookie")
							s = fresh
						}
					}
				}
			}

			if s != nil {
				r = r.WithContext(session.WithSession(ctx, s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that carry no authenticated session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.Current(r.Context()); !ok {
			http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
