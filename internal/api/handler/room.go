package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
)

// RoomService manages exam room assignments
type RoomService interface {
	Create(ctx context.Context, in service.CreateRoomInput) (*domain.ExamRoom, error)
	Update(ctx context.Context, id uuid.UUID, in service.UpdateRoomInput) (*domain.ExamRoom, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*service.RoomSummary, error)
	List(ctx context.Context) ([]service.RoomSummary, error)
	Roster(ctx context.Context, id uuid.UUID) (*service.RoomRoster, error)
	PreviewRange(ctx context.Context, start, end string) (*service.RangePreview, error)
	ValidateAssignment(ctx context.Context, roomCode, indexNumber string) (bool, string, error)
}

type RoomHandler struct {
	service RoomService
	logger  *slog.Logger
}

func NewRoomHandler(svc RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{service: svc, logger: logger}
}

type CreateRoomRequest struct {
	RoomCode    string `json:"room_code"`
	RoomName    string `json:"room_name"`
	IndexStart  string `json:"index_start"`
	IndexEnd    string `json:"index_end"`
	Capacity    *int   `json:"capacity,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateRoomRequest changes only the fields present in the body.
type UpdateRoomRequest struct {
	RoomCode    *string `json:"room_code,omitempty"`
	RoomName    *string `json:"room_name,omitempty"`
	IndexStart  *string `json:"index_start,omitempty"`
	IndexEnd    *string `json:"index_end,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	Description *string `json:"description,omitempty"`
}

type RoomListResponse struct {
	Rooms []service.RoomSummary `json:"rooms"`
	Total int                   `json:"total"`
}

type ValidateResponse struct {
	Valid       bool   `json:"valid"`
	RoomCode    string `json:"room_code"`
	IndexNumber string `json:"index_number"`
	Message     string `json:"message"`
}

// Create POST /v1/exam-rooms
func (h *RoomHandler) Create(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	room, err := h.service.Create(c.UserContext(), service.CreateRoomInput{
		RoomCode:    req.RoomCode,
		RoomName:    req.RoomName,
		IndexStart:  req.IndexStart,
		IndexEnd:    req.IndexEnd,
		Capacity:    req.Capacity,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// Update PUT /v1/exam-rooms/:id
func (h *RoomHandler) Update(c *fiber.Ctx) error {
	id, err := roomIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	room, err := h.service.Update(c.UserContext(), id, service.UpdateRoomInput{
		RoomCode:    req.RoomCode,
		RoomName:    req.RoomName,
		IndexStart:  req.IndexStart,
		IndexEnd:    req.IndexEnd,
		Capacity:    req.Capacity,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(room)
}

// Delete DELETE /v1/exam-rooms/:id
func (h *RoomHandler) Delete(c *fiber.Ctx) error {
	id, err := roomIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Get GET /v1/exam-rooms/:id
func (h *RoomHandler) Get(c *fiber.Ctx) error {
	id, err := roomIDParam(c)
	if err != nil {
		return err
	}
	room, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(room)
}

// Roster GET /v1/exam-rooms/:id/students
func (h *RoomHandler) Roster(c *fiber.Ctx) error {
	id, err := roomIDParam(c)
	if err != nil {
		return err
	}
	roster, err := h.service.Roster(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(roster)
}

// List GET /v1/exam-rooms
func (h *RoomHandler) List(c *fiber.Ctx) error {
	rooms, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	if rooms == nil {
		rooms = []service.RoomSummary{}
	}
	return c.JSON(RoomListResponse{Rooms: rooms, Total: len(rooms)})
}

// Preview GET /v1/exam-rooms/preview?index_start=&index_end=
func (h *RoomHandler) Preview(c *fiber.Ctx) error {
	preview, err := h.service.PreviewRange(c.UserContext(),
		strings.TrimSpace(c.Query("index_start")),
		strings.TrimSpace(c.Query("index_end")),
	)
	if err != nil {
		return err
	}
	return c.JSON(preview)
}

// Validate GET /v1/exam-rooms/validate/:room_code/:index_number
func (h *RoomHandler) Validate(c *fiber.Ctx) error {
	roomCode := domain.NormalizeRoomCode(c.Params("room_code"))
	indexNumber := strings.TrimSpace(c.Params("index_number"))

	valid, msg, err := h.service.ValidateAssignment(c.UserContext(), roomCode, indexNumber)
	if err != nil {
		return err
	}
	return c.JSON(ValidateResponse{
		Valid:       valid,
		RoomCode:    roomCode,
		IndexNumber: indexNumber,
		Message:     msg,
	})
}

func roomIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(errors.New("id must be a UUID"))
	}
	return id, nil
}
