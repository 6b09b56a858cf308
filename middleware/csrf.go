package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
)

const (
	CSRFCookieName = "osk_csrf"
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFGuard implements the double-submit pattern: the frontend reads the
// non-HttpOnly csrf cookie and repeats its value in a request header. A
// cross-site attacker can trigger the cookie but cannot read it, so the
// header never matches.
type CSRFGuard struct {
	enabled      bool
	cookieSecure bool
}

func NewCSRFGuard(enabled, cookieSecure bool) *CSRFGuard {
	return &CSRFGuard{enabled: enabled, cookieSecure: cookieSecure}
}

// IssueToken generates a fresh token and sets it as a readable cookie. The
// caller returns the token in the response body as well.
func (g *CSRFGuard) IssueToken(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	token := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   g.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Protect rejects state-changing requests whose header token does not match
// the cookie token. Safe methods pass through untouched.
func (g *CSRFGuard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.enabled || isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			writeAuthError(w, http.StatusForbidden, "missing csrf token")
			return
		}
		header := r.Header.Get(CSRFHeaderName)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			writeAuthError(w, http.StatusForbidden, "invalid csrf token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
