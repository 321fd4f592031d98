package http

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/internal/application/dto"
	"github.com/jhoicas/firmador-ais/internal/domain"
)

// signatureJobs contrato que necesita el handler (lo implementa *signing.JobUseCase).
type signatureJobs interface {
	Submit(ctx context.Context, requestedBy string, in dto.CreateSignatureRequest) (*dto.SignatureJobResponse, error)
	Get(ctx context.Context, requestedBy, id string) (*dto.SignatureJobResponse, error)
	OutputPath(ctx context.Context, requestedBy, id string, index int) (string, error)
}

// SignatureHandler maneja los trabajos de firma (protegido).
type SignatureHandler struct {
	uc  signatureJobs
	log zerolog.Logger
}

// NewSignatureHandler construye el handler.
func NewSignatureHandler(uc signatureJobs, log zerolog.Logger) *SignatureHandler {
	return &SignatureHandler{uc: uc, log: log}
}

// Create recibe los documentos y lanza la firma en segundo plano.
// POST /api/signatures
func (h *SignatureHandler) Create(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	if clientID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateSignatureRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	job, err := h.uc.Submit(c.UserContext(), clientID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// GetByID estado de un trabajo.
// GET /api/signatures/:id
func (h *SignatureHandler) GetByID(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	if clientID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	job, err := h.uc.Get(c.UserContext(), clientID, c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(job)
}

// Download descarga el paquete firmado de un documento.
// GET /api/signatures/:id/documents/:index
func (h *SignatureHandler) Download(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	if clientID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "index debe ser numérico"})
	}
	path, err := h.uc.OutputPath(c.UserContext(), clientID, c.Params("id"), index)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Attachment(filepath.Base(path))
	return c.SendFile(path)
}

// fail traduce errores de dominio a respuestas HTTP.
func (h *SignatureHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "trabajo o documento no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_READY", Message: err.Error()})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("http: error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
