package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/earnclock/internal/domain"
)

func TestNewListSessionsRequest_SetsDefaults(t *testing.T) {
	req := NewListSessionsRequest("u1")

	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPageSize, req.PageSize)
	assert.Nil(t, req.Now)
}

func TestNewSummaryRequest_AllWindows(t *testing.T) {
	req := NewSummaryRequest("u1")

	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, domain.Window(""), req.Window)
	assert.Nil(t, req.Now)
}

func TestSummaryTotals_SelectsWindow(t *testing.T) {
	s := Summary{
		Today:    WindowTotals{Earnings: domain.Cents(1)},
		Week:     WindowTotals{Earnings: domain.Cents(2)},
		Month:    WindowTotals{Earnings: domain.Cents(3)},
		Lifetime: WindowTotals{Earnings: domain.Cents(4)},
	}
	assert.Equal(t, domain.Cents(1), s.Totals(domain.WindowToday).Earnings)
	assert.Equal(t, domain.Cents(2), s.Totals(domain.WindowWeek).Earnings)
	assert.Equal(t, domain.Cents(3), s.Totals(domain.WindowMonth).Earnings)
	assert.Equal(t, domain.Cents(4), s.Totals(domain.WindowLifetime).Earnings)
	assert.Equal(t, 0.5, WindowTotals{Seconds: 1800}.Hours())
}
