package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// Epoch is a fixed Monday morning used as the default test "now".
var Epoch = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

// Category options
type CategoryOption func(*domain.Category)

func WithRate(amount string) CategoryOption {
	return func(c *domain.Category) {
		m := domain.MustParseMoney(amount)
		c.HourlyRate = &m
	}
}

func WithoutRate() CategoryOption {
	return func(c *domain.Category) {
		c.HourlyRate = nil
	}
}

func NewTestCategory(name string, opts ...CategoryOption) *domain.Category {
	c := &domain.Category{
		ID:        uuid.New().String(),
		Name:      name,
		UpdatedAt: Epoch,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task options
type TaskOption func(*domain.Task)

func WithCategory(id string) TaskOption {
	return func(t *domain.Task) {
		t.CategoryID = &id
	}
}

func WithTitle(title string) TaskOption {
	return func(t *domain.Task) {
		t.Title = title
	}
}

func NewTestTask(userID string, opts ...TaskOption) *domain.Task {
	t := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     "task",
		CreatedAt: Epoch,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Session options
type SessionOption func(*domain.Session)

func WithStartedAt(t time.Time) SessionOption {
	return func(s *domain.Session) {
		s.StartedAt = t
		s.CreatedAt = t
	}
}

// Ended closes the fixture after d, deriving earnings from rate when set.
func Ended(d time.Duration, earnings *domain.Money) SessionOption {
	return func(s *domain.Session) {
		end := s.StartedAt.Add(d)
		s.EndedAt = &end
		s.IsActive = false
		s.EarningsUSD = earnings
	}
}

func WithSessionRate(amount string) SessionOption {
	return func(s *domain.Session) {
		m := domain.MustParseMoney(amount)
		s.HourlyRate = &m
	}
}

func WithNotes(n string) SessionOption {
	return func(s *domain.Session) {
		s.Notes = n
	}
}

func NewTestSession(userID, taskID string, opts ...SessionOption) *domain.Session {
	s := &domain.Session{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: Epoch,
		IsActive:  true,
		CreatedAt: Epoch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
