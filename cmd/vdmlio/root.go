package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rootFlags are the persistent flags; set values override the config.
type rootFlags struct {
	verbose  bool
	settings string
	dbPath   string
	flowType string
	pretty   bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:          "vdmlio",
		Short:        "vdmlio keeps VDML documents and their diagrams in sync",
		Long:         `vdmlio imports VDML documents into an editable diagram, exports them back to XML, renders snapshots, and serves an editing session over MCP.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f.settings)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DBPath = f.dbPath
			}
			if flags.Changed("flow-type") {
				cfg.FlowType = f.flowType
			}
			if flags.Changed("pretty") {
				cfg.PrettyXML = f.pretty
			}
			if f.verbose {
				cfg.LogLevel = "debug"
			}

			logger, charm, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			a := &app{cfg: cfg, settingsPath: f.settings, logger: logger, charm: charm, out: cmd.OutOrStdout()}
			cmd.SetContext(withApp(cmd.Context(), a))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("vdmlio %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	pf := root.PersistentFlags()
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&f.settings, "settings", settingsPath(), "settings file")
	pf.StringVar(&f.dbPath, "db", "", "document store path (default from settings)")
	pf.StringVar(&f.flowType, "flow-type", "", "connection kind between flow nodes: sequenceFlow or valueFlow")
	pf.BoolVar(&f.pretty, "pretty", true, "indent exported XML")

	root.AddCommand(
		newImportCmd(),
		newExportCmd(),
		newInspectCmd(),
		newRenderCmd(),
		newWatchCmd(),
		newServeCmd(),
		newHistoryCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}
