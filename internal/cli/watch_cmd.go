package cli

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/timer"
)

func newWatchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live timer and earnings, kept in sync with every other client",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.interactive() {
				return domain.ValidationError("watch", "watch needs an interactive terminal")
			}
			return a.watch(cmd.Context(), cmd)
		},
	}
}

func (a *App) watch(parent context.Context, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	rec := a.Reconciler

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = rec.Run(ctx)
	}()

	machine := timer.New(a.Sessions, a.UserID, a.Clock)
	if err := machine.Restore(ctx); err != nil {
		return err
	}
	tasks, err := a.Catalog.ListTasks(ctx, a.UserID)
	if err != nil {
		return err
	}
	sub, err := rec.Observe(ctx, a.UserID)
	if err != nil {
		return err
	}
	defer sub.Close()

	m := newWatchModel(ctx, machine, rec, a.Clock, a.UserID, tasks)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		machine.Run(ctx, a.Config.Timer.TickInterval, func(l timer.Live) { p.Send(liveMsg(l)) })
	}()
	go func() {
		defer wg.Done()
		for range sub.C {
			p.Send(changedMsg{})
		}
	}()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
