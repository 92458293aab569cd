package app

import (
	"context"
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/importer"
)

type StartSessionUseCase interface {
	StartSession(ctx context.Context, userID, taskID, notes string) (*StartResult, error)
}

type StopSessionUseCase interface {
	StopSession(ctx context.Context, req StopRequest) (*StopResult, error)
}

type PauseSessionUseCase interface {
	PauseSession(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	ResumeSession(ctx context.Context, userID, sessionID string) (*domain.Session, error)
}

type ActiveSessionUseCase interface {
	ActiveSession(ctx context.Context, userID string) (*domain.Session, error)
}

type ListSessionsUseCase interface {
	ListSessions(ctx context.Context, req ListSessionsRequest) (*SessionPage, error)
}

type SetTargetUseCase interface {
	SetTarget(ctx context.Context, userID string, target domain.Money) (*domain.AccountLedger, error)
}

type CloseAbandonedUseCase interface {
	CloseAbandoned(ctx context.Context, now time.Time) (*AbandonedResult, error)
}

type SummaryUseCase interface {
	GetSummary(ctx context.Context, req SummaryRequest) (*Summary, error)
}

type ImportCatalogUseCase interface {
	ImportCatalog(ctx context.Context, filePath string) (*ImportResult, error)
	ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (*ImportResult, error)
}
