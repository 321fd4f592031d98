package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/firmador-ais/internal/application/dto"
	"github.com/jhoicas/firmador-ais/pkg/jwt"
)

// Locals keys para el cliente autenticado en Fiber.
const (
	LocalClientID = "client_id"
	LocalClaims   = "jwt_claims"
)

// AuthMiddleware valida el Bearer Token JWT y deja ClientID y claims en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalClientID, claims.ClientID)
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// RequireScope exige que el token conceda el scope. Debe usarse DESPUÉS de AuthMiddleware.
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(LocalClaims).(*jwt.Claims)
		if !ok || claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token requerido"})
		}
		if !claims.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el token no concede " + scope})
		}
		return c.Next()
	}
}

// GetClientID devuelve el ClientID del contexto (después del middleware de auth).
func GetClientID(c *fiber.Ctx) string {
	v := c.Locals(LocalClientID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
