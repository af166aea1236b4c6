package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the effective configuration",
		Long: `Init writes the configuration in effect (defaults, environment and
flags) to the settings file so later runs pick it up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFromContext(cmd.Context())

			if _, err := os.Stat(a.settingsPath); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to overwrite", a.settingsPath)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := writeSettings(a.settingsPath, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "settings written to %s\n", a.settingsPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
	return cmd
}
