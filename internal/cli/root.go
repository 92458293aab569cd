package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "earnclock" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "earnclock",
		Short: "Time tracking with a virtual earnings balance",
		Long: "earnclock tracks time against tasks and turns it into virtual earnings\n" +
			"at each category's hourly rate.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to a YAML config file")
	flags.String("db", "", "SQLite database path (default ~/.earnclock/earnclock.db)")
	flags.String("user", "", "Account to act as (default $USER)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("timezone", "", "IANA timezone for day, week and month windows")
	flags.BoolVar(&app.JSON, "json", false, "Print JSON instead of formatted output")

	root.AddCommand(
		newStartCmd(app),
		newStopCmd(app),
		newPauseCmd(app),
		newResumeCmd(app),
		newStatusCmd(app),
		newSessionsCmd(app),
		newTargetCmd(app),
		newImportCmd(app),
		newSweepCmd(app),
		newServeCmd(app),
		newWatchCmd(app),
	)

	return root
}
