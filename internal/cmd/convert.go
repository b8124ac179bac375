package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/config"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/converter"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/history"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/report"
)

// defaultConfigPath is where convert looks for configuration unless
// --config overrides it.
const defaultConfigPath = ".nc2csv/config.yaml"

// NewConvertCommand creates the convert command
func NewConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <path>...",
		Short: "Convert NetCDF files to tabular outputs",
		Long: `Convert one or more NetCDF files or directories to CSV.

Each path may be a file (converted unconditionally) or a directory
(scanned for files matching the configured patterns). Paths and
patterns may also be given as comma-separated lists, so a whole batch
fits in one argument.

Engines are tried per file: the requested engine first, then the
remaining ones in the fixed order netcdf4, scipy, h5netcdf. A file
that no engine can open is recorded as failed; the batch continues.

Configuration is loaded from .nc2csv/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Convert a directory, non-recursive, default patterns
  nc2csv convert ./ncin1

  # Multiple inputs as one comma-separated argument
  nc2csv convert "ncin1, ncin2, ncin3/salinity_t054.nc"

  # Recursive with a depth limit, preferred engine scipy
  nc2csv convert --recursive --max-depth 4 --engine scipy ./drops

  # Flat output layout plus xlsx workbooks and an HTML report
  nc2csv convert --flat --workbook --report report.html ./ncin1`,
		Args: cobra.MinimumNArgs(1),
		RunE: runConvert,
	}

	cmd.Flags().String("config", "", "Path to config file (default: "+defaultConfigPath+")")
	cmd.Flags().String("engine", "", "Preferred engine: "+strings.Join(engine.Engines(), ", "))
	cmd.Flags().String("patterns", "", "Comma-separated filename patterns (e.g. '*.nc,*.NC')")
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().Bool("recursive", false, "Descend into subdirectories")
	cmd.Flags().Int("max-depth", 0, "Maximum recursion depth (0 = unlimited)")
	cmd.Flags().Bool("flat", false, "Do not mirror the input directory structure")
	cmd.Flags().Bool("workbook", false, "Also write an xlsx workbook per source file")
	cmd.Flags().String("report", "", "Write an HTML report to this path")
	cmd.Flags().String("chart", "", "Write a results bar chart to this path (png/svg/pdf)")
	cmd.Flags().String("log-level", "", "Logging verbosity (debug, info, warn, error)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// CLI flags override file settings.
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("patterns") {
		raw, _ := flags.GetString("patterns")
		cfg.Patterns = splitList([]string{raw})
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("recursive") {
		cfg.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("flat") {
		flat, _ := flags.GetBool("flat")
		cfg.PreserveStructure = !flat
	}
	if flags.Changed("workbook") {
		cfg.Workbook, _ = flags.GetBool("workbook")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.LogLevel)
	report.DisableColorIfNotTerminal(os.Stdout)

	started := time.Now()
	sum, err := converter.Run(cmd.Context(), converter.Request{
		Inputs:            splitList(args),
		Patterns:          cfg.Patterns,
		OutputDir:         cfg.OutputDir,
		Engine:            cfg.Engine,
		Recursive:         cfg.Recursive,
		MaxDepth:          cfg.MaxDepth,
		PreserveStructure: cfg.PreserveStructure,
		Workbook:          cfg.Workbook,
	})
	if err != nil {
		return err
	}

	report.PrintSummary(cmd.OutOrStdout(), sum)

	if reportPath, _ := flags.GetString("report"); reportPath != "" {
		if err := report.WriteHTML(reportPath, sum); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", reportPath)
	}
	if chartPath, _ := flags.GetString("chart"); chartPath != "" {
		if err := report.WriteChart(chartPath, sum); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", chartPath)
	}

	noHistory, _ := flags.GetBool("no-history")
	if !noHistory && cfg.HistoryDB != "" {
		if err := recordRun(cfg.HistoryDB, sum, cfg.Engine, cfg.OutputDir, started); err != nil {
			// History is bookkeeping; a failure must not fail the batch.
			logrus.Warnf("recording run history: %v", err)
		}
	}
	return nil
}

func recordRun(dbPath string, sum *converter.Summary, engineID, outputDir string, started time.Time) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.RecordRun(sum, engineID, outputDir, started)
	if err != nil {
		return err
	}
	logrus.WithField("run", id).Debug("run recorded")
	return nil
}

// splitList splits arguments that may themselves be comma-separated
// lists, trimming whitespace and dropping empties.
func splitList(args []string) []string {
	var out []string
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// setupLogging configures the global logger the way the rest of the
// toolkit expects it.
func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
