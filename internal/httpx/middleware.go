package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) ledger.Session {
	s, _ := ctx.Value(sessionKey{}).(ledger.Session)
	return s
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate verifies the bearer token, makes sure a profile exists and
// builds the session from the stored role.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token", Kind: "unauthenticated"})
			return
		}
		id, err := h.Verifier.Verify(r.Context(), tok)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token", Kind: "unauthenticated"})
			return
		}
		u, err := h.Ledger.EnsureUserProfile(r.Context(), id.UID, id.Email, id.DisplayName)
		if err != nil {
			writeError(w, h.log(), err)
			return
		}
		sess := ledger.Session{
			UserID:      u.ID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			Role:        u.Role,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r.Context()).IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "admin only", Kind: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
