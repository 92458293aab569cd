package app

import (
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// StopResult is the server-confirmed outcome of ending a session.
type StopResult struct {
	SessionID       string       `json:"session_id"`
	EndedAt         time.Time    `json:"ended_at"`
	DurationSeconds int64        `json:"duration_seconds"`
	EarningsUSD     domain.Money `json:"earnings_usd"`
	RateMissing     bool         `json:"rate_missing"`
}

// StartResult carries the new session and, when one was running, the
// confirmed totals of the session it replaced.
type StartResult struct {
	Session     *domain.Session
	PriorClosed *StopResult
}

// StopRequest ends SessionID, or the caller's active session when empty.
type StopRequest struct {
	UserID    string
	SessionID string
}

// SessionRow is a persisted session with values derived at read time.
type SessionRow struct {
	Session         *domain.Session
	DurationSeconds int64
	EarningsUSD     domain.Money
	RateMissing     bool
	Paused          bool
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type ListSessionsRequest struct {
	UserID   string
	Page     int
	PageSize int
	Now      *time.Time
}

func NewListSessionsRequest(userID string) ListSessionsRequest {
	return ListSessionsRequest{UserID: userID, Page: 1, PageSize: DefaultPageSize}
}

// SessionPage is one page of a user's history, newest first. TotalCount is
// the number of sessions across all pages.
type SessionPage struct {
	Rows       []SessionRow
	TotalCount int
	Page       int
	PageSize   int
}

// AbandonedResult reports a sweep of stale active sessions.
type AbandonedResult struct {
	Closed []StopResult `json:"closed"`
}
