package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/cli/formatter"
	"github.com/alexanderramin/earnclock/internal/contract"
	"github.com/alexanderramin/earnclock/internal/domain"
)

func newStatusCmd(a *App) *cobra.Command {
	var window string
	var plain bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show earnings, streak and target progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.NewSummaryRequest(a.UserID)
			req.Window = domain.Window(window)

			summary, err := a.Analytics.GetSummary(cmd.Context(), req)
			if err != nil {
				return err
			}
			view := contract.NewSummaryView(summary)
			return a.emit(cmd.OutOrStdout(), view, func() string {
				if plain || !a.interactive() {
					return formatter.SummaryText(view)
				}
				return formatter.FormatSummary(view) + "\n"
			})
		},
	}

	cmd.Flags().StringVar(&window, "window", "", "Highlight one window: today, week, month, lifetime")
	cmd.Flags().BoolVar(&plain, "plain", false, "Unstyled output")
	return cmd
}

func newTargetCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "target AMOUNT",
		Short: "Set the earnings target, e.g. 5000 or 1250.50",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := domain.ParseMoney(args[0])
			if err != nil {
				return domain.ValidationError("set target", "invalid amount %q: %v", args[0], err)
			}
			ledger, err := a.Sessions.SetTarget(cmd.Context(), a.UserID, amount)
			if err != nil {
				return err
			}
			view := contract.NewLedgerView(ledger)
			return a.emit(cmd.OutOrStdout(), view, func() string {
				return "Target set to " + formatter.FormatMoney(view.TargetBalance) + "\n" +
					formatter.RenderProgress(view.ProgressPercentage, 20) + "\n"
			})
		},
	}
}
