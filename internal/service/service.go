// Package service holds the enrollment, recognition and exam-room workflows.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
	"github.com/saturnino-fabrica-de-software/examgate/internal/matcher"
)

type StudentStore interface {
	Create(ctx context.Context, s *domain.Student) error
	UpdateEmbedding(ctx context.Context, studentID string, e domain.Embedding) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.Student, error)
	GetByIndexNumber(ctx context.Context, indexNumber string) (*domain.Student, error)
	Delete(ctx context.Context, studentID string) error
	ListCandidates(ctx context.Context) ([]domain.EnrollmentCandidate, error)
	ListByIndexRange(ctx context.Context, start, end string, limit int) ([]domain.Student, error)
	CountByIndexRange(ctx context.Context, start, end string) (int, error)
	List(ctx context.Context, offset, limit int) ([]domain.Student, error)
	Count(ctx context.Context) (int, error)
}

type RoomStore interface {
	Create(ctx context.Context, room *domain.ExamRoom) error
	Update(ctx context.Context, room *domain.ExamRoom) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExamRoom, error)
	GetByCode(ctx context.Context, code string) (*domain.ExamRoom, error)
	List(ctx context.Context) ([]domain.ExamRoom, error)
}

// FaceExtractor turns an image into at most one embedding.
type FaceExtractor interface {
	Extract(ctx context.Context, img []byte, policy extractor.MultiFacePolicy) (extractor.Extraction, error)
}

// CandidateMatcher is implemented by *matcher.Matcher.
type CandidateMatcher interface {
	Match(query []float64, candidates []matcher.Candidate, threshold float64) (matcher.Result, error)
	Indexed(n int) bool
	Invalidate()
}

// isImageError reports input validation failures of the image itself.
func isImageError(err error) bool {
	return errors.Is(err, domain.ErrInvalidImage) ||
		errors.Is(err, domain.ErrImageTooLarge) ||
		errors.Is(err, domain.ErrImageTooSmall)
}
