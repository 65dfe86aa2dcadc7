package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	skerrors "github.com/jmurray2011/skein/internal/errors"
	"github.com/jmurray2011/skein/internal/engine"
	"github.com/jmurray2011/skein/internal/history"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/report"
	"github.com/jmurray2011/skein/internal/ui"

	"github.com/spf13/cobra"
)

// DefaultReportPath is where the HTML report goes when --report is not set.
const DefaultReportPath = "skein-report.html"

var (
	auditDir      string
	podDir        string
	reportPath    string
	metadataFile  string
	reportMeta    report.Metadata
	concurrency   int
	referenceYear int
	summaryLength int
	noHistory     bool
)

var correlateCmd = &cobra.Command{
	Use:     "correlate <pattern>",
	Aliases: []string{"c"},
	Short:   "Merge every log line about a resource into one timeline",
	Long: `Search an audit-log directory and a pod-log directory for every record that
mentions the resources in <pattern>, merge them into one chronological
timeline, print the entries, and write a self-contained HTML report.

A missing or empty directory is a warning: the other source still runs.
Entries go to stdout; status, warnings and the run summary go to stderr.

Examples:
  # One pod
  skein correlate web-0 --audit-dir ./audit --pod-dir ./pods

  # Two namespaces, CSV on stdout, report elsewhere
  skein correlate "ns-a|ns-b" --audit-dir ./audit --pod-dir ./pods -o csv --report /tmp/ns.html

  # Attach CI context to the report header
  skein correlate web-0 --audit-dir ./audit --pod-dir ./pods \
      --job e2e-nightly --build 1234 --target cluster-a --source-url https://ci.example.com/1234

  # Header fields from a file (flags win over the file)
  skein correlate web-0 --audit-dir ./audit --metadata run.yaml`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return skerrors.MissingFlagError("resource pattern", []string{
				"skein correlate web-0 --audit-dir ./audit --pod-dir ./pods",
				`skein correlate "ns-a|ns-b" --audit-dir ./audit`,
			})
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runCorrelate,
}

func init() {
	rootCmd.AddCommand(correlateCmd)

	correlateCmd.Flags().StringVarP(&auditDir, "audit-dir", "a", "", "Directory searched recursively for audit logs")
	correlateCmd.Flags().StringVarP(&podDir, "pod-dir", "p", "", "Directory searched recursively for pod logs")
	correlateCmd.Flags().StringVarP(&reportPath, "report", "r", DefaultReportPath, "Path of the HTML report (empty to skip)")
	correlateCmd.Flags().StringVar(&metadataFile, "metadata", "", "YAML file with report header fields")
	correlateCmd.Flags().StringVar(&reportMeta.Title, "title", "", "Report title")
	correlateCmd.Flags().StringVar(&reportMeta.Job, "job", "", "Job or run name shown in the report")
	correlateCmd.Flags().StringVar(&reportMeta.Build, "build", "", "Build identifier shown in the report")
	correlateCmd.Flags().StringVar(&reportMeta.Target, "target", "", "Target name shown in the report")
	correlateCmd.Flags().StringVar(&reportMeta.SourceURL, "source-url", "", "Link back to the original log location")
	correlateCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Files parsed at once per source (default from config)")
	correlateCmd.Flags().IntVar(&referenceYear, "reference-year", 0, "Year for timestamps that omit one (default from config, then current year)")
	correlateCmd.Flags().IntVar(&summaryLength, "summary-length", 0, "Maximum summary length in characters (default from config)")
	correlateCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't record this run in the history database")

	_ = correlateCmd.MarkFlagDirname("audit-dir")
	_ = correlateCmd.MarkFlagDirname("pod-dir")
	_ = correlateCmd.MarkFlagFilename("metadata", "yaml", "yml")
}

// correlateOptions is the per-invocation input of correlate, separated from
// flag globals so tests can drive it directly.
type correlateOptions struct {
	Pattern    string
	AuditDir   string
	PodDir     string
	ReportPath string
	Metadata   report.Metadata
	MetaFile   string
	NoHistory  bool
	Now        func() time.Time
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	if cmd.Flags().Changed("concurrency") {
		app.Config.Concurrency = concurrency
	}
	if cmd.Flags().Changed("reference-year") {
		app.Config.ReferenceYear = referenceYear
	}
	if cmd.Flags().Changed("summary-length") {
		app.Config.SummaryLength = summaryLength
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Correlate(ctx, cmd, correlateOptions{
		Pattern:    args[0],
		AuditDir:   auditDir,
		PodDir:     podDir,
		ReportPath: reportPath,
		Metadata:   reportMeta,
		MetaFile:   metadataFile,
		NoHistory:  noHistory,
		Now:        time.Now,
	})
}

// Correlate runs the engine and emits entries, report, summary and history.
// Configuration errors abort before any file is read; everything else is
// reported as a warning and the run still completes.
func (a *App) Correlate(ctx context.Context, cmd *cobra.Command, opts correlateOptions) error {
	format, err := output.ParseFormat(a.GetOutputFormat())
	if err != nil {
		return err
	}

	meta := opts.Metadata
	if opts.MetaFile != "" {
		fileMeta, err := report.LoadMetadata(opts.MetaFile)
		if err != nil {
			return skerrors.Configuration(opts.MetaFile, err)
		}
		meta = meta.Merge(fileMeta)
	}
	meta.Pattern = opts.Pattern

	eng, err := engine.New(a.EngineConfig(opts.Pattern, opts.AuditDir, opts.PodDir), a.Log)
	if err != nil {
		return err
	}

	a.Render.Status("Correlating %q...", opts.Pattern)
	res, err := eng.Run(ctx)
	if err != nil {
		return fmt.Errorf("correlation aborted: %w", err)
	}

	if opts.ReportPath != "" {
		if opts.Now != nil {
			meta.GeneratedAt = opts.Now().UTC().Format(time.RFC3339)
		}
		a.Render.Status("Writing report to %s...", opts.ReportPath)
		if err := report.WriteFile(opts.ReportPath, res.Timeline, meta); err != nil {
			return err
		}
	}

	formatter := output.NewFormatter(string(format), cmd.OutOrStdout(), ui.WithNoColor(a.Config.NoColor)).
		WithHighlight(opts.Pattern)
	if err := formatter.FormatEntries(res.Entries()); err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}

	a.Render.RunSummary(res, opts.ReportPath)

	if !opts.NoHistory {
		a.recordRun(res, opts.ReportPath)
	}
	return nil
}

// recordRun stores res in the history. Failures only produce a debug line.
func (a *App) recordRun(res *engine.Result, reportPath string) {
	repo, err := a.OpenHistory()
	if err != nil {
		a.Debugf("history unavailable: %v", err)
		return
	}
	defer repo.Close()

	if err := repo.Save(history.NewRun(res, reportPath)); err != nil {
		a.Debugf("failed to record run: %v", err)
	}
}
