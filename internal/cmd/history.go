package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/config"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion runs",
		Long: `List recent conversion runs recorded in the history database.

With --files, the per-file outcomes of the most recent run (or the run
given by --run) are shown as well.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("db", "", "Path to the history database (default from config)")
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list")
	cmd.Flags().String("run", "", "Show per-file results for this run id")
	cmd.Flags().Bool("files", false, "Show per-file results for the most recent run")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	dbPath, _ := flags.GetString("db")
	if dbPath == "" {
		cfg, err := config.LoadConfig(defaultConfigPath)
		if err != nil {
			return err
		}
		dbPath = cfg.HistoryDB
	}
	if dbPath == "" {
		return fmt.Errorf("run history is disabled (no history_db configured)")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := flags.GetInt("limit")
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-20s  %-8s  %9s  %9s  %6s\n",
		"RUN", "STARTED", "ENGINE", "ATTEMPTED", "SUCCEEDED", "FAILED")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-20s  %-8s  %9d  %9d  %6d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Engine,
			r.Attempted, r.Succeeded, r.Failed)
	}

	runID, _ := flags.GetString("run")
	showFiles, _ := flags.GetBool("files")
	if runID == "" && showFiles {
		runID = runs[0].ID
	}
	if runID != "" {
		files, err := store.RunFiles(runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFiles for run %s:\n", runID)
		for _, f := range files {
			status := "ok"
			detail := f.Engine
			if !f.Success {
				status = "FAILED"
				detail = f.Error
			}
			fmt.Fprintf(out, "  [%s] %s (%s)\n", status, f.Source, detail)
		}
	}
	return nil
}
