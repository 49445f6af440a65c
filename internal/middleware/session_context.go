package middleware

import (
	"context"
	"net/http"
	"strings"

	"vet-clinic/internal/domain/auth"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionCookie lleva el token opaco de sesión.
const SessionCookie = "vc_session"

// SessionContext resuelve la sesión desde la cookie o un Bearer
// token y la deja en el context. Si no hay sesión válida el request
// sigue igual; cada handler decide si exige auth.
func SessionContext(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
			if token == "" {
				token = bearerToken(r.Header.Get("Authorization"))
			}

			if token != "" {
				if sess, err := svc.Validate(r.Context(), token); err == nil {
					ctx := context.WithValue(r.Context(), sessionKey, sess)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}

// SetSessionCookie emite la cookie de sesión. Sin Max-Age para
// sesiones de browser; persistente con rememberMe. Rota la cookie
// anti-forgery al token de la nueva sesión.
func SetSessionCookie(w http.ResponseWriter, sess auth.Session) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Remember {
		c.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, c)
	SetCSRFCookie(w, sess.CSRFToken)
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
