package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"supportchat/internal/infrastructure/auth"
)

type AuthMiddleware struct {
	tokens *auth.TokenIssuer
}

func NewAuthMiddleware(tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claimsFromRequest(c)
		if err != nil {
			return err
		}

		c.Set("uid", claims.Subject)
		c.Set("name", claims.Name)
		c.Set("role", claims.Role)

		return next(c)
	}
}

// OptionalAuthenticate populates the principal when a bearer token is
// present and passes through untouched when it is not. Guest-facing
// endpoints use it so authenticated and anonymous callers share one
// route.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "" {
			return next(c)
		}

		claims, err := m.claimsFromRequest(c)
		if err != nil {
			return err
		}

		c.Set("uid", claims.Subject)
		c.Set("name", claims.Name)
		c.Set("role", claims.Role)

		return next(c)
	}
}

func (m *AuthMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != auth.RoleAdmin && role != auth.RoleSuperAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

func (m *AuthMiddleware) SuperAdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("role").(string)
		if role != auth.RoleSuperAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Superadmin access required")
		}
		return next(c)
	}
}

func (m *AuthMiddleware) claimsFromRequest(c echo.Context) (*auth.Claims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
	}

	claims, err := m.tokens.Verify(parts[1])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}
