package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/cli/formatter"
	"github.com/alexanderramin/earnclock/internal/domain"
)

func newImportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import tasks and categories from a YAML catalog",
		Long: "Import upserts the categories and tasks in FILE. Changing a category\n" +
			"rate only affects sessions started afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Catalog.ImportCatalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func() string {
				return fmt.Sprintf("Imported %d categories and %d tasks (%d rate changes)\n",
					res.CategoryCount, res.TaskCount, res.RateChanges)
			})
		},
	}
}

// earnclockHuhTheme matches huh forms to the formatter palette.
func earnclockHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func taskOptions(tasks []*domain.Task) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(tasks))
	for _, t := range tasks {
		label := t.Title
		if t.CategoryID == nil {
			label += " (no rate)"
		}
		options = append(options, huh.NewOption(label, t.ID))
	}
	return options
}

// pickTask asks which of the caller's tasks to start.
func pickTask(ctx context.Context, a *App) (string, error) {
	tasks, err := a.Catalog.ListTasks(ctx, a.UserID)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", domain.NotFoundError("start", "no tasks for %s; import a catalog first", a.UserID)
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which task?").
				Options(taskOptions(tasks)...).
				Value(&choice),
		),
	).WithTheme(earnclockHuhTheme()).WithShowHelp(false)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", domain.ValidationError("start", "no task selected")
		}
		return "", fmt.Errorf("running task picker: %w", err)
	}
	return choice, nil
}

func newSweepCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close sessions running longer than sessions.max_duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Config.Sessions.MaxDuration <= 0 {
				return domain.ValidationError("sweep", "sessions.max_duration is disabled")
			}
			res, err := a.Sessions.CloseAbandoned(cmd.Context(), a.Clock.Now())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func() string {
				out := fmt.Sprintf("Closed %d abandoned sessions\n", len(res.Closed))
				for i := range res.Closed {
					out += formatter.FormatStopped(&res.Closed[i])
				}
				return out
			})
		},
	}
}
