package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
)

const defaultSource = "api"

// RecognitionService is the recognition workflow
type RecognitionService interface {
	Recognize(ctx context.Context, img []byte, source string) (*domain.RecognitionOutcome, error)
	RecognizeInRoom(ctx context.Context, img []byte, roomCode, source string) (*domain.RoomRecognitionOutcome, error)
}

// RecognitionHandler answers with the tagged outcome. Rejections are 200s;
// only invalid input and unavailability are errors. Image checks (size,
// format, dimensions) happen in the workflow, which audits every attempt.
type RecognitionHandler struct {
	service RecognitionService
	logger  *slog.Logger
}

func NewRecognitionHandler(svc RecognitionService, logger *slog.Logger) *RecognitionHandler {
	return &RecognitionHandler{service: svc, logger: logger}
}

// Recognize POST /v1/recognize
func (h *RecognitionHandler) Recognize(c *fiber.Ctx) error {
	img, err := uploadedImage(c)
	if err != nil {
		return err
	}

	out, err := h.service.Recognize(c.UserContext(), img, sourceOf(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// RecognizeInRoom POST /v1/exam-rooms/:room_code/recognize
func (h *RecognitionHandler) RecognizeInRoom(c *fiber.Ctx) error {
	img, err := uploadedImage(c)
	if err != nil {
		return err
	}

	out, err := h.service.RecognizeInRoom(c.UserContext(), img, c.Params("room_code"), sourceOf(c))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func sourceOf(c *fiber.Ctx) string {
	if s := strings.TrimSpace(c.FormValue("source")); s != "" {
		return s
	}
	return defaultSource
}
