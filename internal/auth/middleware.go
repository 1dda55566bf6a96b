package auth

import (
	"net/http"

	"github.com/udyogbooks/udyogbooks/internal/platform/httpx"
	"github.com/udyogbooks/udyogbooks/internal/shared"
)

// SessionStateHeader reports the resolved token state so clients know when
// to rotate before the token dies.
const SessionStateHeader = "X-Session-State"

// RequireSession resolves the request token and rejects requests without an
// active session. Expiring and refreshing tokens pass; the state header
// tells the client to call the refresh endpoint.
func RequireSession(sessions *shared.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), sessions.TokenFromRequest(r))
			if err != nil {
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !sess.Active() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing or expired session")
				return
			}
			w.Header().Set(SessionStateHeader, string(sess.State))
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	}
}

// VerifyCSRF checks the CSRF header on mutating requests carrying a session.
func VerifyCSRF(csrf *shared.CSRFManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing session")
				return
			}
			if err := csrf.VerifyToken(sess.ID, r.Header.Get(shared.CSRFHeader)); err != nil {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
