package main

import (
	"github.com/spf13/cobra"

	"github.com/c3ho/tutor/pkg/paths"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render the environment from the saved configuration",
		Long: `Render every base template tree and each enabled plugin's template tree
into <root>/env. Binary assets are copied verbatim; everything else is
rendered against the merged configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}
			if err := rt.renderEnv(root); err != nil {
				return err
			}
			printSuccess("Environment generated in %s", paths.EnvPath(root))
			return nil
		},
	}
}
