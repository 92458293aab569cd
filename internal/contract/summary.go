package contract

import "github.com/alexanderramin/earnclock/internal/app"

type SummaryRequest = app.SummaryRequest

func NewSummaryRequest(userID string) SummaryRequest {
	return app.NewSummaryRequest(userID)
}

type WindowTotals = app.WindowTotals

type Summary = app.Summary

type ImportResult = app.ImportResult
