package domain

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	studentIDRegex   = regexp.MustCompile(`^\d{8}$`)
	indexNumberRegex = regexp.MustCompile(`^\d{7}$`)
)

// Student is the enrollment record: a registered identity plus its optional
// face embedding. A nil Embedding means the student can never be recognized.
type Student struct {
	ID          uuid.UUID `json:"id"`
	StudentID   string    `json:"student_id"`
	IndexNumber string    `json:"index_number"`
	FirstName   string    `json:"first_name"`
	MiddleName  string    `json:"middle_name,omitempty"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Program     string    `json:"program,omitempty"`
	Level       string    `json:"level,omitempty"`
	Embedding   Embedding `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasEmbedding reports whether the student is part of the matchable population.
func (s *Student) HasEmbedding() bool {
	return len(s.Embedding) > 0
}

func (s *Student) FullName() string {
	parts := []string{s.FirstName, s.MiddleName, s.LastName}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Validate checks identifiers and required attributes.
func (s *Student) Validate() error {
	if err := ValidateStudentID(s.StudentID); err != nil {
		return err
	}
	if err := ValidateIndexNumber(s.IndexNumber); err != nil {
		return err
	}
	if strings.TrimSpace(s.FirstName) == "" || strings.TrimSpace(s.LastName) == "" {
		return ErrValidationFailed.WithError(errors.New("first_name and last_name are required"))
	}
	if _, err := mail.ParseAddress(s.Email); err != nil {
		return ErrValidationFailed.WithError(errors.New("email is invalid"))
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"first_name", s.FirstName, maxNameLength},
		{"middle_name", s.MiddleName, maxNameLength},
		{"last_name", s.LastName, maxNameLength},
		{"email", s.Email, maxEmailLength},
		{"program", s.Program, maxNameLength},
		{"level", s.Level, maxLevelLength},
	} {
		if err := checkLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	if s.Embedding != nil {
		return s.Embedding.Validate()
	}
	return nil
}

// EnrollmentCandidate is one row of the matchable population.
type EnrollmentCandidate struct {
	StudentID   string    `json:"student_id"`
	IndexNumber string    `json:"index_number"`
	Name        string    `json:"name"`
	Embedding   Embedding `json:"embedding"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidateStudentID checks the 8-digit student identifier.
func ValidateStudentID(v string) error {
	if !studentIDRegex.MatchString(v) {
		return ErrValidationFailed.WithError(errors.New("student_id must be exactly 8 digits"))
	}
	return nil
}

// ValidateIndexNumber checks the canonical 7-digit index number. The fixed
// width keeps lexicographic and numeric ordering identical, which room range
// checks rely on.
func ValidateIndexNumber(v string) error {
	if !indexNumberRegex.MatchString(v) {
		return ErrValidationFailed.WithError(errors.New("index_number must be exactly 7 digits"))
	}
	return nil
}
