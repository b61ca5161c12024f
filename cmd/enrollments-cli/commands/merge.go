package commands

import (
	"fmt"

	"enrollments-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var mergeBootstrap bool

func init() {
	mergeCmd.Flags().BoolVar(&mergeBootstrap, "bootstrap", false, "Start a new archive when the configured archive does not exist.")
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <new.csv>",
	Short: "Merges a scrape output into the enrollment archive and regenerates the analytical table.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := runMerge(cmd.Context(), args[0], mergeBootstrap)
		if err != nil {
			serviceutil.Fatal("merge failed", err)
		}

		fmt.Println(result.Summary())
		if result.BackupPath != "" {
			fmt.Println("backup:", result.BackupPath)
		}
	},
}
