package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/extractor"
	"github.com/saturnino-fabrica-de-software/examgate/internal/matcher"
	"github.com/saturnino-fabrica-de-software/examgate/internal/workerpool"
)

// DefaultMatchThreshold is the largest accepted Euclidean distance (exclusive).
const DefaultMatchThreshold = 0.6

// RoomLookup is the part of RoomService recognition needs.
type RoomLookup interface {
	GetByCode(ctx context.Context, code string) (*domain.ExamRoom, error)
	FindRoomForIndex(ctx context.Context, indexNumber string) (*domain.ExamRoom, error)
}

// RecognitionService identifies students from photos and audits every attempt.
type RecognitionService struct {
	store     StudentStore
	rooms     RoomLookup
	extractor FaceExtractor
	matcher   CandidateMatcher
	pool      *workerpool.Pool
	audit     audit.Logger
	threshold float64
	logger    *slog.Logger
}

// NewRecognitionService returns a service using DefaultMatchThreshold.
func NewRecognitionService(
	store StudentStore,
	rooms RoomLookup,
	ext FaceExtractor,
	m CandidateMatcher,
	pool *workerpool.Pool,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *RecognitionService {
	return &RecognitionService{
		store:     store,
		rooms:     rooms,
		extractor: ext,
		matcher:   m,
		pool:      pool,
		audit:     auditLogger,
		threshold: DefaultMatchThreshold,
		logger:    logger.With(slog.String("component", "recognition")),
	}
}

func (s *RecognitionService) WithThreshold(threshold float64) *RecognitionService {
	s.threshold = threshold
	return s
}

// Recognize identifies the single student in img. Rejections (no face, no
// match, several faces, timeout) are outcomes with a nil error. Invalid
// images and store failures return an error together with the outcome.
// Every call records exactly one audit event.
func (s *RecognitionService) Recognize(ctx context.Context, img []byte, source string) (*domain.RecognitionOutcome, error) {
	out, err := s.recognize(ctx, img, normalizeSource(source))
	s.record(ctx, recognitionEvent(out))
	return out, err
}

// RecognizeInRoom recognizes the student and checks that their index number
// falls in the room's range. Internal failures, including panics, become a
// RoomStatusError outcome. Every call records exactly one audit event.
func (s *RecognitionService) RecognizeInRoom(ctx context.Context, img []byte, roomCode, source string) (out *domain.RoomRecognitionOutcome, err error) {
	source = normalizeSource(source)
	out = &domain.RoomRecognitionOutcome{
		Recognition: domain.RecognitionOutcome{Source: source},
		RoomCode:    domain.NormalizeRoomCode(roomCode),
		Timestamp:   time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("room recognition panicked",
				slog.String("room_code", out.RoomCode),
				slog.Any("panic", r),
			)
			out.Status = domain.RoomStatusError
			out.Signal = domain.SignalError
			out.Message = domain.ReasonUnavailable
			err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
		}
		s.record(ctx, roomEvent(out))
	}()

	if err := domain.ValidateRoomCode(out.RoomCode); err != nil {
		out.Status = domain.RoomStatusError
		out.Signal = domain.SignalError
		out.Message = err.Error()
		return out, err
	}

	room, err := s.rooms.GetByCode(ctx, out.RoomCode)
	if err != nil {
		out.Status = domain.RoomStatusError
		out.Signal = domain.SignalError
		if errors.Is(err, domain.ErrRoomNotFound) {
			out.Message = fmt.Sprintf("exam room %s does not exist", out.RoomCode)
			return out, err
		}
		s.logger.Error("room lookup failed",
			slog.String("room_code", out.RoomCode),
			slog.String("error", err.Error()),
		)
		out.Message = domain.ReasonUnavailable
		return out, domain.ErrRecognitionUnavailable.WithError(err)
	}
	out.RoomName = room.RoomName

	rec, err := s.recognize(ctx, img, source)
	out.Recognition = *rec
	if err != nil {
		out.Status = domain.RoomStatusError
		out.Signal = domain.SignalError
		out.Message = rec.Reason
		return out, err
	}

	switch {
	case rec.Status == domain.RecognitionNoValidEmbeddings:
		out.Status = domain.RoomStatusError
		out.Message = rec.Reason
	case !rec.Recognized():
		out.Status = domain.RoomStatusInvalid
		out.Message = rec.Reason
	default:
		out.Status, out.AssignedRoomCode, out.Message = s.checkPlacement(ctx, room, rec)
	}
	out.Signal = domain.SignalFor(out.Status)

	return out, nil
}

// checkPlacement decides valid or invalid for a recognized student.
func (s *RecognitionService) checkPlacement(ctx context.Context, room *domain.ExamRoom, rec *domain.RecognitionOutcome) (domain.RoomStatus, *string, string) {
	who := fmt.Sprintf("%s (%s)", *rec.StudentName, *rec.IndexNumber)

	if room.Contains(*rec.IndexNumber) {
		return domain.RoomStatusValid, &room.RoomCode, assignedMessage(who, room)
	}

	correct, err := s.rooms.FindRoomForIndex(ctx, *rec.IndexNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			s.logger.Warn("could not look up assigned room",
				slog.String("index_number", *rec.IndexNumber),
				slog.String("error", err.Error()),
			)
			return domain.RoomStatusInvalid, nil, fmt.Sprintf("%s is not assigned to %s", who, room.RoomCode)
		}
		correct = nil
	}

	var assigned *string
	if correct != nil {
		assigned = &correct.RoomCode
	}
	return domain.RoomStatusInvalid, assigned, misplacedMessage(who, *rec.IndexNumber, room, correct)
}

// recognize runs extraction and matching without auditing. The returned
// outcome is never nil.
func (s *RecognitionService) recognize(ctx context.Context, img []byte, source string) (out *domain.RecognitionOutcome, err error) {
	start := time.Now()
	out = &domain.RecognitionOutcome{
		ID:        uuid.New(),
		Source:    source,
		Timestamp: start.UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recognition panicked", slog.Any("panic", r))
			*out = domain.RecognitionOutcome{ID: out.ID, Source: source, Timestamp: out.Timestamp}
			out.Status = domain.RecognitionError
			out.Reason = domain.ReasonUnavailable
			err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
		}
		out.LatencyMs = time.Since(start).Milliseconds()
	}()

	ext, err := s.extractor.Extract(ctx, img, extractor.Reject)
	if err != nil {
		return s.failExtraction(ctx, out, err)
	}

	switch ext.Status {
	case extractor.StatusNoFace:
		return reject(out, domain.RecognitionNoFace, domain.ReasonNoFace), nil
	case extractor.StatusMultipleFaces:
		return reject(out, domain.RecognitionAmbiguous, domain.ReasonAmbiguous), nil
	case extractor.StatusTimeout:
		s.logger.Warn("recognition rejected after extraction timeout", slog.String("source", source))
		return reject(out, domain.RecognitionTimeout, domain.ReasonTimeout), nil
	}

	enrolled, err := s.store.ListCandidates(ctx)
	if err != nil {
		s.logger.Error("failed to load enrolled embeddings", slog.String("error", err.Error()))
		out = reject(out, domain.RecognitionError, domain.ReasonUnavailable)
		return out, domain.ErrRecognitionUnavailable.WithError(err)
	}

	result, err := s.match(ctx, ext.Embedding, candidates(enrolled))
	if err != nil {
		if errors.Is(err, matcher.ErrNoValidCandidates) {
			s.logger.Warn("no stored embedding has a usable dimension",
				slog.Int("candidates", len(enrolled)),
				slog.Int("dimension", len(ext.Embedding)),
			)
			return reject(out, domain.RecognitionNoValidEmbeddings, domain.ReasonNoValidEmbeddings), nil
		}
		s.logger.Error("matching failed", slog.String("error", err.Error()))
		out = reject(out, domain.RecognitionError, domain.ReasonUnavailable)
		return out, domain.ErrRecognitionUnavailable.WithError(err)
	}

	if !result.Found || !result.Accepted {
		s.logger.Debug("no student matched",
			slog.Int("candidates", len(enrolled)),
			slog.Float64("nearest_distance", result.Distance),
		)
		return reject(out, domain.RecognitionNoMatch, domain.ReasonNoMatch), nil
	}

	distance := result.Distance
	confidence := domain.Confidence(distance)
	out.Status = domain.RecognitionRecognized
	out.Reason = domain.ReasonRecognized
	out.StudentID = &result.Key
	out.IndexNumber = &result.IndexNumber
	out.StudentName = &result.Name
	out.Distance = &distance
	out.Confidence = &confidence

	return out, nil
}

func (s *RecognitionService) failExtraction(ctx context.Context, out *domain.RecognitionOutcome, err error) (*domain.RecognitionOutcome, error) {
	if isImageError(err) {
		return reject(out, domain.RecognitionInvalidImage, err.Error()), err
	}
	if ctx.Err() != nil {
		return reject(out, domain.RecognitionError, domain.ReasonUnavailable), ctx.Err()
	}
	s.logger.Error("face extraction failed", slog.String("error", err.Error()))
	return reject(out, domain.RecognitionError, domain.ReasonUnavailable),
		domain.ErrRecognitionUnavailable.WithError(err)
}

// match runs the search on the worker pool once the population is large
// enough to use the index.
func (s *RecognitionService) match(ctx context.Context, query domain.Embedding, cands []matcher.Candidate) (matcher.Result, error) {
	if !s.matcher.Indexed(len(cands)) {
		return s.matcher.Match(query, cands, s.threshold)
	}
	return workerpool.Do(ctx, s.pool, func(context.Context) (matcher.Result, error) {
		return s.matcher.Match(query, cands, s.threshold)
	})
}

// normalizeSource trims the checkpoint tag and cuts it to the stored width.
func normalizeSource(source string) string {
	return domain.Truncate(strings.TrimSpace(source), domain.MaxSourceLength)
}

// record logs the event. Audit failures never fail the recognition.
func (s *RecognitionService) record(ctx context.Context, event audit.Event) {
	if err := s.audit.Log(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to record audit event",
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func reject(out *domain.RecognitionOutcome, status domain.RecognitionStatus, reason string) *domain.RecognitionOutcome {
	out.Status = status
	out.Reason = reason
	return out
}

func candidates(enrolled []domain.EnrollmentCandidate) []matcher.Candidate {
	out := make([]matcher.Candidate, len(enrolled))
	for i, c := range enrolled {
		out[i] = matcher.Candidate{
			Key:         c.StudentID,
			IndexNumber: c.IndexNumber,
			Name:        c.Name,
			Embedding:   c.Embedding,
			Revision:    c.UpdatedAt.UnixNano(),
		}
	}
	return out
}

func recognitionEvent(out *domain.RecognitionOutcome) audit.Event {
	return audit.Event{
		ID:          out.ID,
		Timestamp:   out.Timestamp,
		Kind:        audit.KindRecognition,
		Outcome:     string(out.Status),
		Reason:      out.Reason,
		StudentID:   out.StudentID,
		IndexNumber: out.IndexNumber,
		Confidence:  out.Confidence,
		Distance:    out.Distance,
		Source:      domain.Truncate(out.Source, domain.MaxSourceLength),
		LatencyMs:   out.LatencyMs,
	}
}

func roomEvent(out *domain.RoomRecognitionOutcome) audit.Event {
	event := recognitionEvent(&out.Recognition)
	event.Kind = audit.KindRoomRecognition
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
		event.Timestamp = out.Timestamp
	}
	if event.Outcome == "" {
		event.Outcome = string(domain.RecognitionError)
		event.Reason = out.Message
	}

	roomCode := domain.Truncate(out.RoomCode, domain.MaxRoomCodeLength)
	status := string(out.Status)
	signal := string(out.Signal)
	event.RoomCode = &roomCode
	event.RoomStatus = &status
	event.Signal = &signal
	event.Message = out.Message
	return event
}
