// Package memory holds in-process stores with the same contracts as the
// Postgres repositories. Reads return copies, so callers never share state
// with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
	"github.com/saturnino-fabrica-de-software/examgate/internal/domain"
	"github.com/saturnino-fabrica-de-software/examgate/internal/metrics"
)

// StudentStore keeps students keyed by student ID.
type StudentStore struct {
	mu       sync.RWMutex
	students map[string]*domain.Student
	byIndex  map[string]string
	last     time.Time
}

func NewStudentStore() *StudentStore {
	return &StudentStore{
		students: make(map[string]*domain.Student),
		byIndex:  make(map[string]string),
	}
}

// now returns a timestamp strictly after the previous one so that
// updated_at always changes on write.
func (s *StudentStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *StudentStore) Create(_ context.Context, st *domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[st.StudentID]; ok {
		return domain.ErrStudentExists
	}
	if _, ok := s.byIndex[st.IndexNumber]; ok {
		return domain.ErrIndexNumberExists
	}

	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := s.now()
	st.CreatedAt, st.UpdatedAt = now, now

	s.students[st.StudentID] = cloneStudent(st)
	s.byIndex[st.IndexNumber] = st.StudentID
	return nil
}

func (s *StudentStore) UpdateEmbedding(_ context.Context, studentID string, e domain.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return domain.ErrStudentNotFound
	}
	st.Embedding = e.Clone()
	st.UpdatedAt = s.now()
	return nil
}

func (s *StudentStore) GetByStudentID(_ context.Context, studentID string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[studentID]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	return cloneStudent(st), nil
}

func (s *StudentStore) GetByIndexNumber(ctx context.Context, indexNumber string) (*domain.Student, error) {
	s.mu.RLock()
	id, ok := s.byIndex[indexNumber]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	return s.GetByStudentID(ctx, id)
}

func (s *StudentStore) Delete(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.students[studentID]
	if !ok {
		return domain.ErrStudentNotFound
	}
	delete(s.byIndex, st.IndexNumber)
	delete(s.students, studentID)
	return nil
}

func (s *StudentStore) ListCandidates(_ context.Context) ([]domain.EnrollmentCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EnrollmentCandidate, 0, len(s.students))
	for _, st := range s.students {
		if !st.HasEmbedding() {
			continue
		}
		out = append(out, domain.EnrollmentCandidate{
			StudentID:   st.StudentID,
			IndexNumber: st.IndexNumber,
			Name:        st.FullName(),
			Embedding:   st.Embedding.Clone(),
			UpdatedAt:   st.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *StudentStore) ListByIndexRange(_ context.Context, start, end string, limit int) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Student
	for _, st := range s.students {
		if st.IndexNumber >= start && st.IndexNumber <= end {
			out = append(out, *cloneStudent(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexNumber < out[j].IndexNumber })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *StudentStore) CountByIndexRange(_ context.Context, start, end string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for idx := range s.byIndex {
		if idx >= start && idx <= end {
			n++
		}
	}
	return n, nil
}

// List pages through students in index-number order.
func (s *StudentStore) List(_ context.Context, offset, limit int) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *cloneStudent(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexNumber < out[j].IndexNumber })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *StudentStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students), nil
}

func (s *StudentStore) Ping(context.Context) error { return nil }

func cloneStudent(st *domain.Student) *domain.Student {
	c := *st
	c.Embedding = st.Embedding.Clone()
	return &c
}

// RoomStore keeps exam rooms keyed by ID.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*domain.ExamRoom
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[uuid.UUID]*domain.ExamRoom)}
}

func (s *RoomStore) Create(_ context.Context, room *domain.ExamRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.codeTaken(room.RoomCode, uuid.Nil) {
		return domain.ErrRoomExists
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now

	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *RoomStore) Update(_ context.Context, room *domain.ExamRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rooms[room.ID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if s.codeTaken(room.RoomCode, room.ID) {
		return domain.ErrRoomExists
	}
	room.CreatedAt = existing.CreatedAt
	room.UpdatedAt = time.Now().UTC()

	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *RoomStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(s.rooms, id)
	return nil
}

func (s *RoomStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ExamRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (s *RoomStore) GetByCode(_ context.Context, code string) (*domain.ExamRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, room := range s.rooms {
		if room.RoomCode == code {
			return cloneRoom(room), nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (s *RoomStore) List(_ context.Context) ([]domain.ExamRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ExamRoom, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, *cloneRoom(room))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IndexStart != out[j].IndexStart {
			return out[i].IndexStart < out[j].IndexStart
		}
		return out[i].RoomCode < out[j].RoomCode
	})
	return out, nil
}

// codeTaken must be called with the lock held.
func (s *RoomStore) codeTaken(code string, except uuid.UUID) bool {
	for id, room := range s.rooms {
		if id != except && room.RoomCode == code {
			return true
		}
	}
	return false
}

func cloneRoom(room *domain.ExamRoom) *domain.ExamRoom {
	c := *room
	if room.Capacity != nil {
		capacity := *room.Capacity
		c.Capacity = &capacity
	}
	return &c
}

// LogStore keeps audit events in insertion order.
type LogStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewLogStore() *LogStore {
	return &LogStore{}
}

func (s *LogStore) CreateRecognitionLog(_ context.Context, e *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	s.events = append(s.events, *e)
	return nil
}

// Events returns a copy of every stored event.
func (s *LogStore) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// DeleteLogsBefore drops events older than cutoff.
func (s *LogStore) DeleteLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	for _, e := range s.events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	deleted := int64(len(s.events) - len(kept))
	s.events = kept
	return deleted, nil
}

// ListLogs returns matching events, newest first.
func (s *LogStore) ListLogs(_ context.Context, f metrics.LogFilter) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if !matchesFilter(e, f) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchesFilter(e audit.Event, f metrics.LogFilter) bool {
	if f.StudentID != "" && (e.StudentID == nil || *e.StudentID != f.StudentID) {
		return false
	}
	if f.RoomCode != "" && (e.RoomCode == nil || *e.RoomCode != f.RoomCode) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

var _ audit.Store = (*LogStore)(nil)

// Reports answers the reporting queries over a StudentStore and a LogStore.
type Reports struct {
	students *StudentStore
	logs     *LogStore
}

func NewReports(students *StudentStore, logs *LogStore) *Reports {
	return &Reports{students: students, logs: logs}
}

func (r *Reports) Stats(_ context.Context, since time.Time) (*metrics.Stats, error) {
	stats := &metrics.Stats{Since: since, ByOutcome: make(map[string]int64)}

	r.students.mu.RLock()
	for _, st := range r.students.students {
		stats.TotalStudents++
		if st.HasEmbedding() {
			stats.StudentsWithFace++
		}
	}
	r.students.mu.RUnlock()

	r.logs.mu.RLock()
	for _, e := range r.logs.events {
		stats.TotalRecognitions++
		if e.Timestamp.Before(since) {
			continue
		}
		stats.RecentRecognitions++
		stats.ByOutcome[e.Outcome]++
	}
	r.logs.mu.RUnlock()

	return stats, nil
}

func (r *Reports) ListLogs(ctx context.Context, f metrics.LogFilter) ([]audit.Event, error) {
	return r.logs.ListLogs(ctx, f)
}

func (r *Reports) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.logs.DeleteLogsBefore(ctx, cutoff)
}
