package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
	"github.com/alexanderramin/earnclock/internal/metrics"
	"github.com/alexanderramin/earnclock/internal/repository"
)

type sessionService struct {
	uow db.UnitOfWork
	settings
}

// NewSessionService builds the session lifecycle manager. Every mutation runs
// in one write transaction; repositories are bound to that transaction.
func NewSessionService(uow db.UnitOfWork, opts ...Option) SessionService {
	return &sessionService{uow: uow, settings: newSettings(opts)}
}

// txRepos are repositories bound to one transaction.
type txRepos struct {
	sessions   repository.SessionRepo
	pauses     repository.PauseRepo
	ledgers    repository.LedgerRepo
	tasks      repository.TaskRepo
	categories repository.CategoryRepo
}

func newTxRepos(tx db.DBTX) *txRepos {
	return &txRepos{
		sessions:   repository.NewSQLiteSessionRepo(tx),
		pauses:     repository.NewSQLitePauseRepo(tx),
		ledgers:    repository.NewSQLiteLedgerRepo(tx),
		tasks:      repository.NewSQLiteTaskRepo(tx),
		categories: repository.NewSQLiteCategoryRepo(tx),
	}
}

type closeReason string

const (
	reasonExplicit  closeReason = "explicit"
	reasonSwitched  closeReason = "switched"
	reasonAbandoned closeReason = "abandoned"
)

func (s *sessionService) StartSession(ctx context.Context, userID, taskID, notes string) (result *app.StartResult, err error) {
	fields := map[string]any{"user_id": userID, "task_id": taskID}
	done := s.observe(ctx, "start-session", fields)
	defer func() { done(err) }()

	if userID == "" {
		return nil, domain.ValidationError("start session", "user id is required")
	}
	if taskID == "" {
		return nil, domain.ValidationError("start session", "task id is required")
	}

	now := s.now()
	var events []broadcast.Event
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)

		task, err := r.tasks.GetByID(ctx, taskID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !task.OwnedBy(userID)) {
			return domain.NotFoundError("start session", "task %s not found", taskID)
		}
		if err != nil {
			return err
		}

		result = &app.StartResult{}
		active, err := r.sessions.GetActiveByUser(ctx, userID)
		switch {
		case err == nil:
			prior, err := s.closeSession(ctx, r, active, now, true)
			if err != nil {
				return err
			}
			result.PriorClosed = prior
			events = append(events, broadcast.Event{
				Kind: broadcast.SessionAutoClosed, UserID: userID, SessionID: active.ID, At: now,
			})
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		var rate *domain.Money
		if task.CategoryID != nil {
			cat, err := r.categories.GetByID(ctx, *task.CategoryID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFoundError("start session", "category %s not found", *task.CategoryID)
			}
			if err != nil {
				return err
			}
			rate = cat.HourlyRate
		}

		sess := &domain.Session{
			ID:         uuid.New().String(),
			TaskID:     task.ID,
			UserID:     userID,
			CategoryID: task.CategoryID,
			StartedAt:  now,
			HourlyRate: rate,
			IsActive:   true,
			Notes:      notes,
			CreatedAt:  now,
		}
		if err := r.sessions.Create(ctx, sess); err != nil {
			return err
		}
		result.Session = sess
		events = append(events, broadcast.Event{
			Kind: broadcast.SessionStarted, UserID: userID, SessionID: sess.ID, At: now,
		})
		s.publishOnCommit(ctx, events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Inc()
	if result.PriorClosed != nil {
		s.recordClose(result.PriorClosed, reasonSwitched)
		fields["prior_session_id"] = result.PriorClosed.SessionID
	}
	fields["session_id"] = result.Session.ID
	fields["rate_missing"] = result.Session.RateMissing()
	return result, nil
}

func (s *sessionService) StopSession(ctx context.Context, req app.StopRequest) (result *app.StopResult, err error) {
	fields := map[string]any{"user_id": req.UserID, "session_id": req.SessionID}
	done := s.observe(ctx, "stop-session", fields)
	defer func() { done(err) }()

	if req.UserID == "" {
		return nil, domain.ValidationError("end session", "user id is required")
	}

	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		sess, err := s.loadOwned(ctx, r, "end session", req.UserID, req.SessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive {
			return domain.ConflictError("end session", "session %s already ended", sess.ID)
		}
		if result, err = s.closeSession(ctx, r, sess, now, false); err != nil {
			return err
		}
		s.publishOnCommit(ctx, broadcast.Event{
			Kind: broadcast.SessionStopped, UserID: req.UserID, SessionID: sess.ID, At: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordClose(result, reasonExplicit)
	fields["session_id"] = result.SessionID
	fields["duration_seconds"] = result.DurationSeconds
	fields["earnings_usd"] = result.EarningsUSD.String()
	return result, nil
}

// closeSession ends sess at `at` inside the caller's transaction: one UPDATE
// of the session row, the open pause (if any) resumed at the same instant,
// and the ledger credited. When capped and a cutoff is configured, ended_at
// is clamped to started_at + cutoff.
func (s *sessionService) closeSession(ctx context.Context, r *txRepos, sess *domain.Session, at time.Time, capped bool) (*app.StopResult, error) {
	pauses, err := r.pauses.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Pauses = pauses
	before := slices.Clone(pauses)

	end := at
	if capped && s.maxDuration > 0 && end.Sub(sess.StartedAt) > s.maxDuration {
		end = sess.StartedAt.Add(s.maxDuration)
	}
	if err := sess.Close(end, nil); err != nil {
		return nil, err
	}

	secs := earnings.DurationSeconds(sess.StartedAt, *sess.EndedAt, sess.Pauses)
	res, err := earnings.Earnings(secs, sess.HourlyRate)
	if err != nil {
		return nil, err
	}
	if !res.RateMissing {
		amount := res.Amount
		sess.EarningsUSD = &amount
	}

	if err := r.sessions.Close(ctx, sess); err != nil {
		return nil, err
	}
	for i := range sess.Pauses {
		if pauseEqual(before[i], sess.Pauses[i]) {
			continue
		}
		if err := r.pauses.Update(ctx, &sess.Pauses[i]); err != nil {
			return nil, err
		}
	}

	ledger, err := r.ledgers.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	ledger.ApplyCompletion(secs, res.Amount, sess.EndedAt.In(s.location), at)
	if err := r.ledgers.Upsert(ctx, ledger); err != nil {
		return nil, err
	}

	return &app.StopResult{
		SessionID:       sess.ID,
		EndedAt:         *sess.EndedAt,
		DurationSeconds: secs,
		EarningsUSD:     res.Amount,
		RateMissing:     res.RateMissing,
	}, nil
}

func pauseEqual(a, b domain.Pause) bool {
	if !a.PausedAt.Equal(b.PausedAt) || (a.ResumedAt == nil) != (b.ResumedAt == nil) {
		return false
	}
	return a.ResumedAt == nil || a.ResumedAt.Equal(*b.ResumedAt)
}

func (s *sessionService) recordClose(res *app.StopResult, reason closeReason) {
	metrics.SessionsStopped.WithLabelValues(string(reason)).Inc()
	metrics.ActiveSessions.Dec()
	metrics.EarningsCents.Add(float64(res.EarningsUSD.Cents()))
	if res.RateMissing {
		metrics.SessionsRateMissing.Inc()
	}
}

// loadOwned resolves sessionID (or the user's active session when empty)
// and checks ownership.
func (s *sessionService) loadOwned(ctx context.Context, r *txRepos, op, userID, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		sess, err := r.sessions.GetActiveByUser(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError(op, "no active session")
		}
		return sess, err
	}
	sess, err := r.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFoundError(op, "session %s not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, domain.AuthorizationError(op, "session %s belongs to another user", sessionID)
	}
	return sess, nil
}

func (s *sessionService) PauseSession(ctx context.Context, userID, sessionID string) (sess *domain.Session, err error) {
	fields := map[string]any{"user_id": userID, "session_id": sessionID}
	done := s.observe(ctx, "pause-session", fields)
	defer func() { done(err) }()

	if userID == "" {
		return nil, domain.ValidationError("pause session", "user id is required")
	}
	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		sess, err = s.loadOwned(ctx, r, "pause session", userID, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive {
			return domain.ConflictError("pause session", "session %s already ended", sess.ID)
		}
		if sess.Pauses, err = r.pauses.ListBySession(ctx, sess.ID); err != nil {
			return err
		}
		if sess.IsPaused() {
			return domain.ConflictError("pause session", "session %s is already paused", sess.ID)
		}
		p := domain.Pause{ID: uuid.New().String(), SessionID: sess.ID, PausedAt: now}
		if p.PausedAt.Before(sess.StartedAt) {
			p.PausedAt = sess.StartedAt
		}
		if err := r.pauses.Create(ctx, &p); err != nil {
			return err
		}
		sess.Pauses = append(sess.Pauses, p)
		s.publishOnCommit(ctx, broadcast.Event{Kind: broadcast.SessionPaused, UserID: userID, SessionID: sess.ID, At: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) ResumeSession(ctx context.Context, userID, sessionID string) (sess *domain.Session, err error) {
	fields := map[string]any{"user_id": userID, "session_id": sessionID}
	done := s.observe(ctx, "resume-session", fields)
	defer func() { done(err) }()

	if userID == "" {
		return nil, domain.ValidationError("resume session", "user id is required")
	}
	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		sess, err = s.loadOwned(ctx, r, "resume session", userID, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsActive {
			return domain.ConflictError("resume session", "session %s already ended", sess.ID)
		}
		if sess.Pauses, err = r.pauses.ListBySession(ctx, sess.ID); err != nil {
			return err
		}
		open := sess.OpenPause()
		if open == nil {
			return domain.ConflictError("resume session", "session %s is not paused", sess.ID)
		}
		at := now
		if at.Before(open.PausedAt) {
			at = open.PausedAt
		}
		if err := r.pauses.Resume(ctx, open.ID, at); err != nil {
			return err
		}
		open.ResumedAt = &at
		s.publishOnCommit(ctx, broadcast.Event{Kind: broadcast.SessionResumed, UserID: userID, SessionID: sess.ID, At: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ActiveSession returns the user's running session with its pauses, or a
// NotFoundError when nothing is running.
func (s *sessionService) ActiveSession(ctx context.Context, userID string) (*domain.Session, error) {
	if userID == "" {
		return nil, domain.ValidationError("active session", "user id is required")
	}
	var sess *domain.Session
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		var err error
		sess, err = s.loadOwned(ctx, r, "active session", userID, "")
		if err != nil {
			return err
		}
		sess.Pauses, err = r.pauses.ListBySession(ctx, sess.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *sessionService) GetSession(ctx context.Context, userID, sessionID string) (*app.SessionRow, error) {
	if userID == "" || sessionID == "" {
		return nil, domain.ValidationError("get session", "user id and session id are required")
	}
	now := s.now()
	var row *app.SessionRow
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		sess, err := s.loadOwned(ctx, r, "get session", userID, sessionID)
		if err != nil {
			return err
		}
		if sess.Pauses, err = r.pauses.ListBySession(ctx, sess.ID); err != nil {
			return err
		}
		row, err = deriveRow(sess, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *sessionService) ListSessions(ctx context.Context, req app.ListSessionsRequest) (page *app.SessionPage, err error) {
	fields := map[string]any{"user_id": req.UserID, "page": req.Page, "page_size": req.PageSize}
	done := s.observe(ctx, "list-sessions", fields)
	defer func() { done(err) }()

	if req.UserID == "" {
		return nil, domain.ValidationError("list sessions", "user id is required")
	}
	if req.Page < 1 {
		return nil, domain.ValidationError("list sessions", "page must be >= 1, got %d", req.Page)
	}
	if req.PageSize < 1 || req.PageSize > app.MaxPageSize {
		return nil, domain.ValidationError("list sessions", "page_size must be between 1 and %d, got %d", app.MaxPageSize, req.PageSize)
	}
	now := s.now()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	page = &app.SessionPage{Page: req.Page, PageSize: req.PageSize, Rows: []app.SessionRow{}}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		total, err := r.sessions.CountByUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		page.TotalCount = total

		rows, err := r.sessions.ListByUser(ctx, req.UserID, req.PageSize, (req.Page-1)*req.PageSize)
		if err != nil {
			return err
		}
		ids := make([]string, len(rows))
		for i, sess := range rows {
			ids[i] = sess.ID
		}
		pauses, err := r.pauses.ListBySessions(ctx, ids)
		if err != nil {
			return err
		}
		for _, sess := range rows {
			sess.Pauses = pauses[sess.ID]
			row, err := deriveRow(sess, now)
			if err != nil {
				return err
			}
			page.Rows = append(page.Rows, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["total_count"] = page.TotalCount
	return page, nil
}

func deriveRow(sess *domain.Session, now time.Time) (*app.SessionRow, error) {
	secs, res, err := earnings.ForSession(sess, now)
	if err != nil {
		return nil, err
	}
	return &app.SessionRow{
		Session:         sess,
		DurationSeconds: secs,
		EarningsUSD:     res.Amount,
		RateMissing:     res.RateMissing,
		Paused:          sess.IsPaused(),
	}, nil
}

func (s *sessionService) SetTarget(ctx context.Context, userID string, target domain.Money) (ledger *domain.AccountLedger, err error) {
	fields := map[string]any{"user_id": userID, "target_usd": target.String()}
	done := s.observe(ctx, "set-target", fields)
	defer func() { done(err) }()

	if userID == "" {
		return nil, domain.ValidationError("set target", "user id is required")
	}
	if target.IsNegative() {
		return nil, domain.ValidationError("set target", "target must not be negative")
	}
	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		var err error
		if ledger, err = r.ledgers.Get(ctx, userID); err != nil {
			return err
		}
		ledger.TargetBalance = target
		ledger.UpdatedAt = now
		if err := r.ledgers.Upsert(ctx, ledger); err != nil {
			return err
		}
		s.publishOnCommit(ctx, broadcast.Event{Kind: broadcast.TargetUpdated, UserID: userID, At: now})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// CloseAbandoned ends every active session that started more than the
// configured cutoff before now, capping ended_at at the cutoff. A zero
// cutoff disables the sweep.
func (s *sessionService) CloseAbandoned(ctx context.Context, now time.Time) (result *app.AbandonedResult, err error) {
	fields := map[string]any{}
	done := s.observe(ctx, "close-abandoned", fields)
	defer func() { done(err) }()

	result = &app.AbandonedResult{}
	if s.maxDuration <= 0 {
		return result, nil
	}
	now = now.UTC().Truncate(time.Second)
	cutoff := now.Add(-s.maxDuration)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		var events []broadcast.Event
		stale, err := r.sessions.ListActiveStartedBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, sess := range stale {
			res, err := s.closeSession(ctx, r, sess, now, true)
			if err != nil {
				return err
			}
			result.Closed = append(result.Closed, *res)
			events = append(events, broadcast.Event{
				Kind: broadcast.SessionAutoClosed, UserID: sess.UserID, SessionID: sess.ID, At: now,
			})
		}
		s.publishOnCommit(ctx, events...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range result.Closed {
		s.recordClose(&result.Closed[i], reasonAbandoned)
	}
	fields["closed"] = len(result.Closed)
	return result, nil
}
