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

const sessionColumns = `id, task_id, user_id, category_id, started_at, ended_at,
	hourly_rate_cents, earnings_cents, is_active, notes, created_at`

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
// Rows carry no pauses; callers join them from PauseRepo when needed.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.TaskID,
		s.UserID,
		nullableString(s.CategoryID),
		formatTime(s.StartedAt),
		nullableTimeToString(s.EndedAt),
		nullableMoney(s.HourlyRate),
		nullableMoney(s.EarningsUSD),
		boolToInt(s.IsActive),
		s.Notes,
		formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return r.scanSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteSessionRepo) GetActiveByUser(ctx context.Context, userID string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND is_active = 1
		ORDER BY started_at DESC LIMIT 1`
	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

// Close persists the end of s. The update only matches a still-active row,
// so a concurrent stop surfaces as a conflict instead of a double write.
func (r *SQLiteSessionRepo) Close(ctx context.Context, s *domain.Session) error {
	if s.EndedAt == nil {
		return fmt.Errorf("closing session %s: ended_at not set", s.ID)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, is_active = 0, earnings_cents = ?
		WHERE id = ? AND is_active = 1`,
		formatTime(*s.EndedAt), nullableMoney(s.EarningsUSD), s.ID)
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	if n == 0 {
		return domain.ConflictError("end session", "session %s is not active", s.ID)
	}
	return nil
}

func (r *SQLiteSessionRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by user: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteSessionRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

// ListEndedBetween returns sessions whose ended_at lies in [from, to).
func (r *SQLiteSessionRepo) ListEndedBetween(ctx context.Context, userID string, from, to time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = ? AND is_active = 0 AND ended_at >= ? AND ended_at < ?
		ORDER BY ended_at`
	rows, err := r.db.QueryContext(ctx, query, userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("listing sessions in window: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

// ListActiveStartedBefore returns active sessions of every user that started
// before cutoff.
func (r *SQLiteSessionRepo) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE is_active = 1 AND started_at < ?
		ORDER BY started_at`
	rows, err := r.db.QueryContext(ctx, query, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("listing stale sessions: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

type sessionRow struct {
	s          domain.Session
	categoryID sql.NullString
	startedAt  string
	endedAt    sql.NullString
	rate       sql.NullInt64
	earnings   sql.NullInt64
	isActive   int
	createdAt  string
}

func (row *sessionRow) dest() []any {
	return []any{
		&row.s.ID, &row.s.TaskID, &row.s.UserID, &row.categoryID, &row.startedAt, &row.endedAt,
		&row.rate, &row.earnings, &row.isActive, &row.s.Notes, &row.createdAt,
	}
}

// scanSession scans a single session from a *sql.Row.
func (r *SQLiteSessionRepo) scanSession(row *sql.Row) (*domain.Session, error) {
	var raw sessionRow
	if err := row.Scan(raw.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return r.populateSession(&raw)
}

// scanSessions scans multiple sessions from *sql.Rows.
func (r *SQLiteSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		var raw sessionRow
		if err := rows.Scan(raw.dest()...); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		s, err := r.populateSession(&raw)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// populateSession fills in parsed fields after scanning raw columns.
func (r *SQLiteSessionRepo) populateSession(raw *sessionRow) (*domain.Session, error) {
	s := raw.s
	var err error
	if s.StartedAt, err = parseTime(raw.startedAt, "started_at"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(raw.createdAt, "created_at"); err != nil {
		return nil, err
	}
	if raw.endedAt.Valid {
		end, err := parseTime(raw.endedAt.String, "ended_at")
		if err != nil {
			return nil, err
		}
		s.EndedAt = &end
	}
	s.CategoryID = stringFromNull(raw.categoryID)
	s.HourlyRate = moneyFromNull(raw.rate)
	s.EarningsUSD = moneyFromNull(raw.earnings)
	s.IsActive = intToBool(raw.isActive)
	return &s, nil
}
