package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/service"
)

// StudentService is the enrollment workflow
type StudentService interface {
	Enroll(ctx context.Context, in service.EnrollStudentInput) (*service.EnrollmentResult, error)
	Get(ctx context.Context, studentID string) (*domain.Student, error)
	List(ctx context.Context, offset, limit int) (*service.StudentPage, error)
	UpdateFace(ctx context.Context, studentID string, img []byte) (*domain.Student, error)
	ClearFace(ctx context.Context, studentID string) error
	Delete(ctx context.Context, studentID string) error
}

// StudentHandler handles student enrollment requests
type StudentHandler struct {
	service       StudentService
	maxImageBytes int64
	logger        *slog.Logger
}

func NewStudentHandler(svc StudentService, maxImageBytes int64, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{
		service:       svc,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// StudentResponse is a student as returned by the API
type StudentResponse struct {
	*domain.Student
	HasFace bool `json:"has_face"`
}

type EnrollResponse struct {
	Student    StudentResponse    `json:"student"`
	FaceStatus service.FaceStatus `json:"face_status"`
	FaceReason string             `json:"face_reason,omitempty"`
}

type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

func newStudentResponse(s *domain.Student) StudentResponse {
	return StudentResponse{Student: s, HasFace: s.HasEmbedding()}
}

// Enroll POST /v1/students - register a student with an optional photo
func (h *StudentHandler) Enroll(c *fiber.Ctx) error {
	img, err := readImage(c, h.maxImageBytes, false)
	if err != nil {
		return err
	}

	res, err := h.service.Enroll(c.UserContext(), service.EnrollStudentInput{
		StudentID:   c.FormValue("student_id"),
		IndexNumber: c.FormValue("index_number"),
		FirstName:   c.FormValue("first_name"),
		MiddleName:  c.FormValue("middle_name"),
		LastName:    c.FormValue("last_name"),
		Email:       c.FormValue("email"),
		Program:     c.FormValue("program"),
		Level:       c.FormValue("level"),
		Image:       img,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Student:    newStudentResponse(res.Student),
		FaceStatus: res.FaceStatus,
		FaceReason: res.FaceReason,
	})
}

// Get GET /v1/students/:student_id
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	st, err := h.service.Get(c.UserContext(), studentIDParam(c))
	if err != nil {
		return err
	}
	return c.JSON(newStudentResponse(st))
}

// List GET /v1/students?offset=&limit=
func (h *StudentHandler) List(c *fiber.Ctx) error {
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	page, err := h.service.List(c.UserContext(), offset, limit)
	if err != nil {
		return err
	}

	out := StudentListResponse{
		Students: make([]StudentResponse, 0, len(page.Students)),
		Total:    page.Total,
		Offset:   page.Offset,
		Limit:    page.Limit,
	}
	for i := range page.Students {
		out.Students = append(out.Students, newStudentResponse(&page.Students[i]))
	}
	return c.JSON(out)
}

// UpdateFace PUT /v1/students/:student_id/face - replace the stored face
func (h *StudentHandler) UpdateFace(c *fiber.Ctx) error {
	img, err := readImage(c, h.maxImageBytes, true)
	if err != nil {
		return err
	}

	st, err := h.service.UpdateFace(c.UserContext(), studentIDParam(c), img)
	if err != nil {
		return err
	}
	return c.JSON(newStudentResponse(st))
}

// ClearFace DELETE /v1/students/:student_id/face - keep the student, drop the face
func (h *StudentHandler) ClearFace(c *fiber.Ctx) error {
	if err := h.service.ClearFace(c.UserContext(), studentIDParam(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete DELETE /v1/students/:student_id
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), studentIDParam(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func studentIDParam(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("student_id"))
}
