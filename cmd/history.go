package cmd

import (
	"fmt"
	"strconv"

	"github.com/jmurray2011/skein/internal/history"
	"github.com/jmurray2011/skein/internal/ui"
	"github.com/jmurray2011/skein/pkg/timeutil"

	"github.com/spf13/cobra"
)

var (
	historyClear   bool
	historyLimit   int
	historyPattern string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded correlation runs",
	Long: `List earlier 'skein correlate' runs, newest first.

Each run records its pattern, input directories, report path, entry counts
per severity, time span and duration. The database lives in your user config
directory unless history_db is set.

Examples:
  # Last 20 runs
  skein history

  # Runs for one pattern
  skein history --pattern "ns-a|ns-b"

  # Forget everything
  skein history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all recorded runs")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyPattern, "pattern", "", "Only list runs with this exact pattern")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	repo, err := app.OpenHistory()
	if err != nil {
		return err
	}
	defer repo.Close()

	if historyClear {
		n, err := repo.Clear()
		if err != nil {
			return err
		}
		app.Render.Success("Cleared %d recorded runs", n)
		return nil
	}

	var runs []history.Run
	if historyPattern != "" {
		runs, err = repo.ListByPattern(historyPattern, historyLimit)
	} else {
		runs, err = repo.List(historyLimit)
	}
	if err != nil {
		return err
	}

	renderRuns(app.Render, runs)
	return nil
}

func renderRuns(r *ui.Renderer, runs []history.Run) {
	if len(runs) == 0 {
		r.Info("No recorded runs.")
		return
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			strconv.FormatInt(run.ID, 10),
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Pattern,
			strconv.Itoa(run.Entries),
			fmt.Sprintf("%d/%d/%d", run.Errors, run.Warnings, run.Infos),
			timeutil.FormatDuration(run.Span),
			run.ReportPath,
		}
	}
	r.Table([]string{"#", "WHEN", "PATTERN", "ENTRIES", "E/W/I", "SPAN", "REPORT"}, rows)
}
