package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/cli/formatter"
	"github.com/alexanderramin/earnclock/internal/contract"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
)

func newStartCmd(a *App) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "start [TASK_ID]",
		Short: "Start tracking a task, closing any running session",
		Long: "Start a session on TASK_ID. A running session is closed first, in the\n" +
			"same transaction. Without TASK_ID an interactive terminal offers a picker.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var taskID string
			if len(args) == 1 {
				taskID = args[0]
			} else {
				if !a.interactive() {
					return domain.ValidationError("start", "task id is required")
				}
				picked, err := pickTask(ctx, a)
				if err != nil {
					return err
				}
				taskID = picked
			}

			res, err := a.Sessions.StartSession(ctx, a.UserID, taskID, notes)
			if err != nil {
				return err
			}
			resp := contract.NewStartSessionResponse(res)
			return a.emit(cmd.OutOrStdout(), resp, func() string { return formatter.FormatStarted(resp) })
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Session notes")
	return cmd
}

func newStopCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [SESSION_ID]",
		Short: "Stop the running session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Sessions.StopSession(cmd.Context(), app.StopRequest{UserID: a.UserID, SessionID: sessionArg(args)})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func() string { return formatter.FormatStopped(res) })
		},
	}
}

func newPauseCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause [SESSION_ID]",
		Short: "Pause the running session; paused time is not billed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.Sessions.PauseSession(cmd.Context(), a.UserID, sessionArg(args))
			if err != nil {
				return err
			}
			return a.emitSession(cmd, sess, "Paused")
		},
	}
}

func newResumeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [SESSION_ID]",
		Short: "Resume a paused session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.Sessions.ResumeSession(cmd.Context(), a.UserID, sessionArg(args))
			if err != nil {
				return err
			}
			return a.emitSession(cmd, sess, "Resumed")
		},
	}
}

// sessionArg returns the explicit session id, or "" for the caller's
// active session.
func sessionArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}

func (a *App) emitSession(cmd *cobra.Command, sess *domain.Session, verb string) error {
	secs, res, err := earnings.ForSession(sess, a.Clock.Now())
	if err != nil {
		return err
	}
	view := contract.NewSessionView(app.SessionRow{
		Session:         sess,
		DurationSeconds: secs,
		EarningsUSD:     res.Amount,
		RateMissing:     res.RateMissing,
		Paused:          sess.IsPaused(),
	})
	return a.emit(cmd.OutOrStdout(), view, func() string {
		return fmt.Sprintf("%s session %s · %s · %s so far\n", verb,
			formatter.TruncID(view.ID), formatter.FormatDuration(view.DurationSeconds), formatter.FormatMoney(view.EarningsUSD))
	})
}

func newSessionsCmd(a *App) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.NewListSessionsRequest(a.UserID)
			req.Page = page
			req.PageSize = pageSize

			p, err := a.Sessions.ListSessions(cmd.Context(), req)
			if err != nil {
				return err
			}
			resp := contract.NewSessionPageResponse(p)
			return a.emit(cmd.OutOrStdout(), resp, func() string {
				return formatter.FormatSessionPage(resp, a.Clock.Now())
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number, from 1")
	cmd.Flags().IntVar(&pageSize, "page-size", app.DefaultPageSize, "Sessions per page")
	return cmd
}
