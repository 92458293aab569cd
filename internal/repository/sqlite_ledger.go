package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// SQLiteLedgerRepo implements LedgerRepo using a SQLite database.
type SQLiteLedgerRepo struct {
	db db.DBTX
}

func NewSQLiteLedgerRepo(conn db.DBTX) *SQLiteLedgerRepo {
	return &SQLiteLedgerRepo{db: conn}
}

func (r *SQLiteLedgerRepo) Get(ctx context.Context, userID string) (*domain.AccountLedger, error) {
	query := `SELECT user_id, target_cents, current_balance_cents, lifetime_earnings_cents,
		lifetime_seconds, current_streak_days, best_streak_days, last_earning_date, updated_at
		FROM ledgers WHERE user_id = ?`

	var l domain.AccountLedger
	var target, balance, lifetime int64
	var lastDay sql.NullString
	var updatedAt string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&l.UserID, &target, &balance, &lifetime,
		&l.LifetimeSeconds, &l.CurrentStreakDays, &l.BestStreakDays, &lastDay, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewLedger(userID, time.Time{}), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning ledger: %w", err)
	}

	l.TargetBalance = domain.Cents(target)
	l.CurrentBalance = domain.Cents(balance)
	l.LifetimeEarnings = domain.Cents(lifetime)
	l.LastEarningDate = parseNullableTime(lastDay, domain.DateLayout)
	if l.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLiteLedgerRepo) Upsert(ctx context.Context, l *domain.AccountLedger) error {
	var lastDay any
	if l.LastEarningDate != nil {
		lastDay = l.LastEarningDate.Format(domain.DateLayout)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ledgers (user_id, target_cents, current_balance_cents, lifetime_earnings_cents,
			lifetime_seconds, current_streak_days, best_streak_days, last_earning_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			target_cents = excluded.target_cents,
			current_balance_cents = excluded.current_balance_cents,
			lifetime_earnings_cents = excluded.lifetime_earnings_cents,
			lifetime_seconds = excluded.lifetime_seconds,
			current_streak_days = excluded.current_streak_days,
			best_streak_days = excluded.best_streak_days,
			last_earning_date = excluded.last_earning_date,
			updated_at = excluded.updated_at`,
		l.UserID, l.TargetBalance.Cents(), l.CurrentBalance.Cents(), l.LifetimeEarnings.Cents(),
		l.LifetimeSeconds, l.CurrentStreakDays, l.BestStreakDays, lastDay, formatTime(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting ledger: %w", err)
	}
	return nil
}
