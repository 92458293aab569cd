package contract

import "github.com/alexanderramin/earnclock/internal/app"

type StopResult = app.StopResult

type StartResult = app.StartResult

type StopRequest = app.StopRequest

type SessionRow = app.SessionRow

type ListSessionsRequest = app.ListSessionsRequest

func NewListSessionsRequest(userID string) ListSessionsRequest {
	return app.NewListSessionsRequest(userID)
}

type SessionPage = app.SessionPage

type AbandonedResult = app.AbandonedResult

const (
	DefaultPageSize = app.DefaultPageSize
	MaxPageSize     = app.MaxPageSize
)
