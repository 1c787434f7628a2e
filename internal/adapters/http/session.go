package httpadapter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"labelcheck/internal/domain"
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionErrKey
)

// loadSession resolves the session cookie, if any, onto the request context.
// A store failure is remembered so routes that need a user answer 503, not 401.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			next.ServeHTTP(w, r)
			return
		}
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := s.auth.Current(r.Context(), c.Value)
		ctx := r.Context()
		switch {
		case err != nil:
			s.log.Warn("session lookup failed", zap.Error(err))
			ctx = context.WithValue(ctx, sessionErrKey, err)
		case u != nil:
			ctx = context.WithValue(ctx, userKey, u)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.storeConfigured() {
			s.fail(w, r, domain.ErrStoreUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err, ok := r.Context().Value(sessionErrKey).(error); ok {
			s.fail(w, r, err)
			return
		}
		if currentUser(r.Context()) == nil {
			s.fail(w, r, domain.ErrAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSession(w http.ResponseWriter, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
