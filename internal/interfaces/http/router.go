package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SignatureJobs signatureJobs
	JWTSecret     string
	Log           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	signatures := protected.Group("/signatures")
	signatureHandler := NewSignatureHandler(deps.SignatureJobs, deps.Log)
	signatures.Post("/", RequireScope(jwt.ScopeSign), signatureHandler.Create)
	signatures.Get("/:id", RequireScope(jwt.ScopeRead), signatureHandler.GetByID)
	signatures.Get("/:id/documents/:index", RequireScope(jwt.ScopeRead), signatureHandler.Download)
}
