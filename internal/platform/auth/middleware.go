package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Role names recognized by the API. A user carries exactly one role.
const (
	RolePatient = "patient"
	RolePhlebo  = "phlebo"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	ID   string
	Name string
	Role string
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Name string `json:"name"`
}

type JWTConfig struct {
	Secret []byte
}

// JWTMiddleware validates the Authorization bearer token and stores the
// caller's Identity on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))

			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ident := Identity{
				ID:   claims.Subject,
				Name: claims.Name,
				Role: claims.Role,
			}

			// Expose the user ID on the echo context for rate limiting
			c.Set("user_id", ident.ID)

			ctx := context.WithValue(c.Request().Context(), IdentityKey, ident)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development that allows
// unauthenticated requests with an admin identity. Requests that do carry
// X-Dev-* headers impersonate the named user, which lets local clients
// exercise role checks without minting tokens.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := Identity{
				ID:   "dev-user",
				Name: "Dev User",
				Role: RoleAdmin,
			}
			if id := c.Request().Header.Get("X-Dev-User-ID"); id != "" {
				ident.ID = id
			}
			if name := c.Request().Header.Get("X-Dev-User-Name"); name != "" {
				ident.Name = name
			}
			if role := c.Request().Header.Get("X-Dev-User-Role"); role != "" {
				ident.Role = role
			}

			c.Set("user_id", ident.ID)
			ctx := context.WithValue(c.Request().Context(), IdentityKey, ident)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// SignToken mints an HS256 bearer token for the given identity. The identity
// provider issues production tokens; this exists for tests and local tooling.
func SignToken(secret []byte, ident Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: ident.Role,
		Name: ident.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// IdentityFromContext retrieves the authenticated identity from context.
// The zero Identity is returned for unauthenticated contexts.
func IdentityFromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(IdentityKey).(Identity)
	return ident
}

// WithIdentity returns a context carrying the given identity. Used by tests
// and by the dev middleware.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, ident)
}
