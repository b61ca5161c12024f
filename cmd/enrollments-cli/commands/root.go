package commands

import (
	"context"
	"fmt"
	"os"

	"enrollments-backend/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	cfg        Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "enrollments.json5", "The configuration file.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:           "enrollments-cli",
	Short:         "enrollments-cli scrapes registrar enrollments and maintains the enrollment archive.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
