package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/contract"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body contract.StartSessionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.sessions.StartSession(r.Context(), userFrom(r), body.TaskID, body.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.NewStartSessionResponse(res))
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	var body contract.StopSessionBody
	if err := decodeBody(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.sessions.StopSession(r.Context(), app.StopRequest{UserID: userFrom(r), SessionID: body.SessionID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.PauseSession(r.Context(), userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeSession(w, r, sess)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ResumeSession(r.Context(), userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeSession(w, r, sess)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ActiveSession(r.Context(), userFrom(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeSession(w, r, sess)
}

// writeSession renders a session with duration and earnings derived now.
func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, sess *domain.Session) {
	secs, res, err := earnings.ForSession(sess, s.clock.Now())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewSessionView(app.SessionRow{
		Session:         sess,
		DurationSeconds: secs,
		EarningsUSD:     res.Amount,
		RateMissing:     res.RateMissing,
		Paused:          sess.IsPaused(),
	}))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	row, err := s.sessions.GetSession(r.Context(), userFrom(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewSessionView(*row))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	req := app.NewListSessionsRequest(userFrom(r))
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.KindValidation, "page must be an integer")
			return
		}
		req.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.KindValidation, "page_size must be an integer")
			return
		}
		req.PageSize = n
	}

	page, err := s.sessions.ListSessions(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewSessionPageResponse(page))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeSummary(w, r, userFrom(r))
}

// handleUserSummary serves /users/{user}/summary. Only the caller's own
// account is readable.
func (s *Server) handleUserSummary(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["user"]
	if target != userFrom(r) {
		s.writeServiceError(w, r, domain.AuthorizationError("get summary", "cannot read another user's summary"))
		return
	}
	s.writeSummary(w, r, target)
}

func (s *Server) writeSummary(w http.ResponseWriter, r *http.Request, userID string) {
	window := domain.Window(r.URL.Query().Get("window"))
	if window != "" && !domain.ValidWindows[window] {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "window must be one of today, week, month, lifetime")
		return
	}

	summary, err := s.store.Summary(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	// The cached summary is shared; echo the window on a copy.
	view := *summary
	view.Window = window
	writeJSON(w, http.StatusOK, contract.NewSummaryView(&view))
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var body contract.TargetBody
	if err := decodeBody(r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	ledger, err := s.sessions.SetTarget(r.Context(), userFrom(r), body.TargetUSD)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewLedgerView(ledger))
}
