package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c3ho/tutor/pkg/paths"
)

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect installed plugins",
	}
	cmd.AddCommand(newPluginsListCmd())
	return cmd
}

func newPluginsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins and whether they are enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot()

			rt, err := loadRuntime(root)
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(paths.PluginsDir(root))
			if err != nil {
				if os.IsNotExist(err) {
					printInfo("No plugins installed")
					return nil
				}
				return err
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				status := "disabled"
				if rt.registry.Has(entry.Name()) {
					status = "enabled"
				}
				fmt.Printf("%s\t%s\n", entry.Name(), status)
			}
			return nil
		},
	}
}
