package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	// CSRFCookie es el lado cookie del double-submit: existe antes de
	// autenticarse, así register/login también quedan cubiertos.
	CSRFCookie = "vc_csrf"
	CSRFField  = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

// AntiForgery exige un token anti-forgery en los métodos de
// escritura. Con sesión activa el token esperado es el de la sesión
// (emitido en el login, fuera del control del cliente); sin sesión
// se cae al double-submit cookie, que cubre register/login.
func AntiForgery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, hasSession := GetSession(r.Context())

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			// siembra/rota la cookie: con sesión tiene que coincidir
			// con el token de la sesión
			c, err := r.Cookie(CSRFCookie)
			switch {
			case hasSession && (err != nil || c.Value != sess.CSRFToken):
				SetCSRFCookie(w, sess.CSRFToken)
			case !hasSession && err != nil:
				SetCSRFCookie(w, uuid.NewString())
			}
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(CSRFHeader)
		if token == "" {
			// ParseForm es idempotente; el handler puede volver a leer el form
			_ = r.ParseForm()
			token = r.PostFormValue(CSRFField)
		}

		if hasSession {
			if subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(token)) != 1 {
				http.Error(w, "invalid anti-forgery token", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookie)
		if err != nil || cookie.Value == "" {
			http.Error(w, "missing anti-forgery token", http.StatusBadRequest)
			return
		}
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(token)) != 1 {
			http.Error(w, "invalid anti-forgery token", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func SetCSRFCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}
