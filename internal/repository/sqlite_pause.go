package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// SQLitePauseRepo implements PauseRepo using a SQLite database.
type SQLitePauseRepo struct {
	db db.DBTX
}

func NewSQLitePauseRepo(conn db.DBTX) *SQLitePauseRepo {
	return &SQLitePauseRepo{db: conn}
}

func (r *SQLitePauseRepo) Create(ctx context.Context, p *domain.Pause) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_pauses (id, session_id, paused_at, resumed_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.SessionID, formatTime(p.PausedAt), nullableTimeToString(p.ResumedAt))
	if err != nil {
		return fmt.Errorf("inserting pause: %w", err)
	}
	return nil
}

func (r *SQLitePauseRepo) Resume(ctx context.Context, pauseID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_pauses SET resumed_at = ? WHERE id = ? AND resumed_at IS NULL`,
		formatTime(at), pauseID)
	if err != nil {
		return fmt.Errorf("resuming pause: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resuming pause: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("open pause %s: %w", pauseID, ErrNotFound)
	}
	return nil
}

// Update rewrites a pause's interval.
func (r *SQLitePauseRepo) Update(ctx context.Context, p *domain.Pause) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE session_pauses SET paused_at = ?, resumed_at = ? WHERE id = ?`,
		formatTime(p.PausedAt), nullableTimeToString(p.ResumedAt), p.ID)
	if err != nil {
		return fmt.Errorf("updating pause: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating pause: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pause %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLitePauseRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Pause, error) {
	m, err := r.ListBySessions(ctx, []string{sessionID})
	if err != nil {
		return nil, err
	}
	return m[sessionID], nil
}

// ListBySessions loads pauses for many sessions in one query, keyed by
// session id and ordered by paused_at.
func (r *SQLitePauseRepo) ListBySessions(ctx context.Context, sessionIDs []string) (map[string][]domain.Pause, error) {
	out := make(map[string][]domain.Pause, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionIDs)), ",")
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, paused_at, resumed_at FROM session_pauses
		WHERE session_id IN (`+placeholders+`)
		ORDER BY paused_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pauses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Pause
		var pausedAt string
		var resumedAt sql.NullString
		if err := rows.Scan(&p.ID, &p.SessionID, &pausedAt, &resumedAt); err != nil {
			return nil, fmt.Errorf("scanning pause row: %w", err)
		}
		if p.PausedAt, err = parseTime(pausedAt, "paused_at"); err != nil {
			return nil, err
		}
		p.ResumedAt = parseNullableTime(resumedAt, timeLayout)
		out[p.SessionID] = append(out[p.SessionID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pauses: %w", err)
	}
	return out, nil
}
