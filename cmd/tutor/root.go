package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/c3ho/tutor/pkg/logging"
	"github.com/c3ho/tutor/pkg/paths"
)

var (
	verbosity int
	rootDir   string

	rootCmd = &cobra.Command{
		Use:   "tutor",
		Short: "Render and manage an Open edX deployment environment",
		Long: `tutor renders a tree of deployment artifacts (compose files, service
configuration, hooks) from layered templates and a single configuration
file, materializing the result under <root>/env.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. Called once from main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root directory (default $TUTOR_ROOT or the XDG data directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newPluginsCmd())
}

// projectRoot resolves the project root from the --root flag and the
// environment.
func projectRoot() string {
	return paths.Root(rootDir)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tutor version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}
