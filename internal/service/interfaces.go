package service

import (
	"context"
	"time"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/importer"
)

type SessionService interface {
	StartSession(ctx context.Context, userID, taskID, notes string) (*app.StartResult, error)
	StopSession(ctx context.Context, req app.StopRequest) (*app.StopResult, error)
	PauseSession(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	ResumeSession(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	ActiveSession(ctx context.Context, userID string) (*domain.Session, error)
	GetSession(ctx context.Context, userID, sessionID string) (*app.SessionRow, error)
	ListSessions(ctx context.Context, req app.ListSessionsRequest) (*app.SessionPage, error)
	SetTarget(ctx context.Context, userID string, target domain.Money) (*domain.AccountLedger, error)
	CloseAbandoned(ctx context.Context, now time.Time) (*app.AbandonedResult, error)
}

type AnalyticsService interface {
	GetSummary(ctx context.Context, req app.SummaryRequest) (*app.Summary, error)
	GetWindow(ctx context.Context, userID string, window domain.Window, now *time.Time) (*app.WindowTotals, error)
}

type CatalogService interface {
	ImportCatalog(ctx context.Context, filePath string) (*app.ImportResult, error)
	ImportCatalogFromSchema(ctx context.Context, schema *importer.CatalogSchema) (*app.ImportResult, error)
	ListTasks(ctx context.Context, userID string) ([]*domain.Task, error)
}

var (
	_ app.StartSessionUseCase   = (SessionService)(nil)
	_ app.StopSessionUseCase    = (SessionService)(nil)
	_ app.PauseSessionUseCase   = (SessionService)(nil)
	_ app.ActiveSessionUseCase  = (SessionService)(nil)
	_ app.ListSessionsUseCase   = (SessionService)(nil)
	_ app.SetTargetUseCase      = (SessionService)(nil)
	_ app.CloseAbandonedUseCase = (SessionService)(nil)
	_ app.SummaryUseCase        = (AnalyticsService)(nil)
	_ app.ImportCatalogUseCase  = (CatalogService)(nil)
)
