package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/c3ho/tutor/pkg/config"
	"github.com/c3ho/tutor/pkg/env"
	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/interactive"
	"github.com/c3ho/tutor/pkg/paths"
	"github.com/c3ho/tutor/pkg/plugins"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the project configuration",
	}
	cmd.AddCommand(newConfigSaveCmd())
	cmd.AddCommand(newConfigPrintValueCmd())
	return cmd
}

func newConfigSaveCmd() *cobra.Command {
	var interactiveMode bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the configuration and render the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()

			defaults, err := config.LoadDefaults()
			if err != nil {
				return err
			}
			current, err := config.LoadCurrent(root)
			if err != nil {
				return err
			}

			// The plugin set is needed before saving: interactive
			// defaults and template-valued entries render through the
			// full environment.
			merged := make(map[string]interface{}, len(current))
			for k, v := range current {
				merged[k] = v
			}
			config.Merge(merged, defaults)

			registry, err := plugins.LoadLocal(paths.PluginsDir(root), enabledPlugins(merged))
			if err != nil {
				return err
			}
			renderer := env.NewRenderer(registry, afero.NewOsFs())

			if interactiveMode {
				if err := interactive.AskQuestions(current, defaults, renderer.RenderString); err != nil {
					return err
				}
			}

			if err := config.Save(root, current); err != nil {
				return err
			}
			printInfo("Configuration saved to %s", paths.ConfigFile(root))

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

	cmd.Flags().BoolVarP(&interactiveMode, "interactive", "i", false, "Ask configuration questions interactively")
	return cmd
}

func newConfigPrintValueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "printvalue KEY",
		Short: "Print a rendered configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(projectRoot())
			if err != nil {
				return err
			}

			value, ok := rt.config[args[0]]
			if !ok {
				return errors.Newf(errors.ErrMissingConfig, "missing configuration value: %s", args[0])
			}
			fmt.Println(value)
			return nil
		},
	}
}
