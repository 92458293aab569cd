package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// ErrNotFound is returned (wrapped) when a row does not exist.
var ErrNotFound = domain.ErrNotFound

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetActiveByUser(ctx context.Context, userID string) (*domain.Session, error)
	Close(ctx context.Context, s *domain.Session) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	ListEndedBetween(ctx context.Context, userID string, from, to time.Time) ([]*domain.Session, error)
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Session, error)
}

type PauseRepo interface {
	Create(ctx context.Context, p *domain.Pause) error
	Resume(ctx context.Context, pauseID string, at time.Time) error
	Update(ctx context.Context, p *domain.Pause) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Pause, error)
	ListBySessions(ctx context.Context, sessionIDs []string) (map[string][]domain.Pause, error)
}

type LedgerRepo interface {
	// Get returns the user's ledger, or a fresh zero ledger if none exists yet.
	Get(ctx context.Context, userID string) (*domain.AccountLedger, error)
	Upsert(ctx context.Context, l *domain.AccountLedger) error
}

type TaskRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Task, error)
	Upsert(ctx context.Context, t *domain.Task) error
}

type CategoryRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Upsert(ctx context.Context, c *domain.Category) error
}
