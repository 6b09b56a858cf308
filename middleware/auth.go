package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oskporuba/club-backend/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

const (
	jwtClaimUserID   = "user_id"
	jwtClaimUsername = "username"
	jwtClaimRole     = "role"
	jwtClaimCategory = "player_category"
)

// Authenticator issues and verifies the HS256 session tokens. The token
// travels in the session cookie for browser clients, with an Authorization
// Bearer header accepted as a fallback for non-browser callers.
type Authenticator struct {
	secret     []byte
	cookieName string
	tokenTTL   time.Duration
}

func NewAuthenticator(secret string, cookieName string, tokenTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:     []byte(secret),
		cookieName: cookieName,
		tokenTTL:   tokenTTL,
	}
}

func (a *Authenticator) CookieName() string { return a.cookieName }

func (a *Authenticator) TokenTTL() time.Duration { return a.tokenTTL }

func (a *Authenticator) IssueToken(identity models.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		jwtClaimUserID:   identity.ID,
		jwtClaimUsername: identity.Username,
		jwtClaimRole:     string(identity.Role),
		"iat":            now.Unix(),
		"exp":            now.Add(a.tokenTTL).Unix(),
	}
	if identity.PlayerCategory != nil {
		claims[jwtClaimCategory] = string(*identity.PlayerCategory)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *Authenticator) parseToken(raw string) (models.Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims[jwtClaimUserID].(float64)
	if !ok || userID <= 0 {
		return models.Identity{}, fmt.Errorf("missing or invalid %s claim", jwtClaimUserID)
	}
	username, _ := claims[jwtClaimUsername].(string)
	roleStr, _ := claims[jwtClaimRole].(string)
	role := models.UserRole(roleStr)
	if username == "" || !role.Valid() {
		return models.Identity{}, fmt.Errorf("missing or invalid identity claims")
	}

	identity := models.Identity{
		ID:       int(userID),
		Username: username,
		Role:     role,
	}
	if categoryStr, ok := claims[jwtClaimCategory].(string); ok {
		category := models.PlayerCategory(categoryStr)
		if category.Valid() {
			identity.PlayerCategory = &category
		}
	}
	return identity, nil
}

// tokenFromRequest prefers the session cookie; a Bearer header works for
// clients that cannot carry cookies.
func (a *Authenticator) tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := a.tokenFromRequest(r)
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		identity, err := a.parseToken(raw)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MaybeAuthenticate attaches an identity when a valid token is present but
// lets anonymous requests through. Used on endpoints with public content.
func (a *Authenticator) MaybeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := a.tokenFromRequest(r); raw != "" {
			if identity, err := a.parseToken(raw); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
