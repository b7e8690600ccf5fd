package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
)

// FaceStatus tells the caller what happened to the enrollment photo.
type FaceStatus string

const (
	FaceEnrolled         FaceStatus = "enrolled"
	FaceNoImage          FaceStatus = "no_image"
	FaceNoFace           FaceStatus = "no_face"
	FaceMultipleFaces    FaceStatus = "multiple_faces"
	FaceTimeout          FaceStatus = "timeout"
	FaceInvalidImage     FaceStatus = "invalid_image"
	FaceExtractionFailed FaceStatus = "extraction_failed"
)

type EnrollStudentInput struct {
	StudentID   string
	IndexNumber string
	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	Program     string
	Level       string
	Image       []byte
}

// EnrollmentResult is the created student. FaceStatus is FaceEnrolled only
// when an embedding was stored.
type EnrollmentResult struct {
	Student    *domain.Student `json:"student"`
	FaceStatus FaceStatus      `json:"face_status"`
	FaceReason string          `json:"face_reason,omitempty"`
}

// StudentPage is one page of the student register.
type StudentPage struct {
	Students []domain.Student `json:"students"`
	Total    int              `json:"total"`
	Offset   int              `json:"offset"`
	Limit    int              `json:"limit"`
}

// StudentService runs enrollment and face maintenance for students.
type StudentService struct {
	store     StudentStore
	extractor FaceExtractor
	matcher   CandidateMatcher
	policy    extractor.MultiFacePolicy
	logger    *slog.Logger
}

// NewStudentService returns a service that picks the first face by default.
func NewStudentService(store StudentStore, ext FaceExtractor, m CandidateMatcher, logger *slog.Logger) *StudentService {
	return &StudentService{
		store:     store,
		extractor: ext,
		matcher:   m,
		policy:    extractor.PickFirst,
		logger:    logger.With(slog.String("component", "enrollment")),
	}
}

// WithMultiFacePolicy sets how enrollment photos with several faces are
// handled. The default picks the first detected face.
func (s *StudentService) WithMultiFacePolicy(p extractor.MultiFacePolicy) *StudentService {
	s.policy = p
	return s
}

// Enroll registers a student. A missing or unusable photo does not fail the
// enrollment; the student is stored without an embedding and the reason is
// reported in the result.
func (s *StudentService) Enroll(ctx context.Context, in EnrollStudentInput) (*EnrollmentResult, error) {
	student := &domain.Student{
		StudentID:   strings.TrimSpace(in.StudentID),
		IndexNumber: strings.TrimSpace(in.IndexNumber),
		FirstName:   strings.TrimSpace(in.FirstName),
		MiddleName:  strings.TrimSpace(in.MiddleName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		Program:     strings.TrimSpace(in.Program),
		Level:       strings.TrimSpace(in.Level),
	}
	if err := student.Validate(); err != nil {
		return nil, err
	}

	result := &EnrollmentResult{Student: student, FaceStatus: FaceNoImage}

	if len(in.Image) > 0 {
		ext, err := s.extractor.Extract(ctx, in.Image, s.policy)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.FaceStatus, result.FaceReason = s.faceStatus(student.StudentID, ext, err)
		if result.FaceStatus == FaceEnrolled {
			student.Embedding = ext.Embedding
		}
	}

	if err := s.store.Create(ctx, student); err != nil {
		if errors.Is(err, domain.ErrStudentExists) || errors.Is(err, domain.ErrIndexNumberExists) {
			return nil, err
		}
		return nil, fmt.Errorf("student %s: create: %w", student.StudentID, err)
	}
	s.matcher.Invalidate()

	s.logger.Info("student enrolled",
		slog.String("student_id", student.StudentID),
		slog.String("index_number", student.IndexNumber),
		slog.String("face_status", string(result.FaceStatus)),
	)

	return result, nil
}

// faceStatus maps an extraction to the enrollment outcome and logs every
// degraded case.
func (s *StudentService) faceStatus(studentID string, ext extractor.Extraction, err error) (FaceStatus, string) {
	log := s.logger.With(slog.String("student_id", studentID))

	if err != nil {
		if isImageError(err) {
			log.Warn("enrollment photo rejected", slog.String("error", err.Error()))
			return FaceInvalidImage, err.Error()
		}
		log.Error("enrollment face extraction failed", slog.String("error", err.Error()))
		return FaceExtractionFailed, "face extraction failed, the photo can be added later"
	}

	switch ext.Status {
	case extractor.StatusFound:
		if ext.FaceCount > 1 {
			log.Info("enrollment photo has several faces, using the first", slog.Int("faces", ext.FaceCount))
		}
		return FaceEnrolled, ""
	case extractor.StatusNoFace:
		log.Warn("no face in enrollment photo")
		return FaceNoFace, domain.ReasonNoFace
	case extractor.StatusMultipleFaces:
		log.Warn("enrollment photo rejected for multiple faces", slog.Int("faces", ext.FaceCount))
		return FaceMultipleFaces, domain.ReasonAmbiguous
	case extractor.StatusTimeout:
		log.Warn("enrollment face extraction timed out")
		return FaceTimeout, domain.ReasonTimeout
	}
	return FaceExtractionFailed, fmt.Sprintf("unexpected extraction status %q", ext.Status)
}

// UpdateFace replaces the student's embedding. Unlike Enroll, an unusable
// photo is an error here.
func (s *StudentService) UpdateFace(ctx context.Context, studentID string, img []byte) (*domain.Student, error) {
	if err := domain.ValidateStudentID(studentID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByStudentID(ctx, studentID); err != nil {
		return nil, err
	}

	ext, err := s.extractor.Extract(ctx, img, s.policy)
	if err != nil {
		return nil, err
	}
	switch ext.Status {
	case extractor.StatusNoFace:
		return nil, domain.ErrNoFaceDetected
	case extractor.StatusMultipleFaces:
		return nil, domain.ErrMultipleFaces
	case extractor.StatusTimeout:
		return nil, domain.ErrExtractionTimeout
	}

	if err := s.store.UpdateEmbedding(ctx, studentID, ext.Embedding); err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("student %s: update embedding: %w", studentID, err)
	}
	s.matcher.Invalidate()

	s.logger.Info("student face updated", slog.String("student_id", studentID))

	return s.store.GetByStudentID(ctx, studentID)
}

// ClearFace removes the embedding; the student stays registered but can no
// longer be recognized.
func (s *StudentService) ClearFace(ctx context.Context, studentID string) error {
	if err := domain.ValidateStudentID(studentID); err != nil {
		return err
	}
	if err := s.store.UpdateEmbedding(ctx, studentID, nil); err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			return err
		}
		return fmt.Errorf("student %s: clear embedding: %w", studentID, err)
	}
	s.matcher.Invalidate()
	return nil
}

func (s *StudentService) Get(ctx context.Context, studentID string) (*domain.Student, error) {
	if err := domain.ValidateStudentID(studentID); err != nil {
		return nil, err
	}
	return s.store.GetByStudentID(ctx, studentID)
}

// List returns students in index-number order. A zero limit means
// DefaultLogLimit and larger limits are capped at MaxLogLimit.
func (s *StudentService) List(ctx context.Context, offset, limit int) (*StudentPage, error) {
	switch {
	case offset < 0:
		return nil, domain.ErrValidationFailed.WithError(errors.New("offset must not be negative"))
	case limit < 0:
		return nil, domain.ErrValidationFailed.WithError(errors.New("limit must not be negative"))
	case limit == 0:
		limit = DefaultLogLimit
	case limit > MaxLogLimit:
		limit = MaxLogLimit
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	students, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	if students == nil {
		students = []domain.Student{}
	}
	return &StudentPage{Students: students, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *StudentService) Delete(ctx context.Context, studentID string) error {
	if err := domain.ValidateStudentID(studentID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, studentID); err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			return err
		}
		return fmt.Errorf("student %s: delete: %w", studentID, err)
	}
	s.matcher.Invalidate()
	return nil
}
