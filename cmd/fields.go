package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/jmurray2011/skein/internal/audit"
	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/ui"

	"github.com/spf13/cobra"
)

var fieldsSample int

var fieldsCmd = &cobra.Command{
	Use:     "fields <audit-file|audit-dir>",
	Aliases: []string{"f"},
	Short:   "Discover field paths in audit records",
	Long: `Sample audit records and list every field as a JMESPath expression.

Use it to configure audit.fields when your audit trail is not a stock
Kubernetes API server log. Paths already used by the current configuration
are marked with the setting they feed.

Examples:
  # Sample one file
  skein fields ./audit/kube-apiserver/audit.log

  # Sample a whole directory (same globs as correlate)
  skein fields ./audit --sample 200`,
	Args: cobra.ExactArgs(1),
	RunE: runFields,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)

	fieldsCmd.Flags().IntVar(&fieldsSample, "sample", 50, "Number of records to sample")
}

func runFields(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)

	files := []string{args[0]}
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
		files, err = local.Discover(args[0], app.Config.AuditGlobs)
		if err != nil {
			return err
		}
	}

	app.Render.Status("Sampling %d records from %s...", fieldsSample, args[0])
	sample, err := audit.DiscoverFields(cmd.Context(), files, fieldsSample)
	if err != nil {
		return err
	}
	if sample.Records == 0 {
		app.Render.Warning("No JSON records found in %s", args[0])
		return nil
	}

	renderFields(app.Render, sample, app.Config.Fields)
	return nil
}

// configuredPaths maps each configured expression to the setting it feeds.
func configuredPaths(fp audit.FieldPaths) map[string]string {
	d := audit.DefaultFieldPaths()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	used := map[string]string{
		pick(fp.Verb, d.Verb):           "verb",
		pick(fp.Actor, d.Actor):         "actor",
		pick(fp.Code, d.Code):           "code",
		pick(fp.Namespace, d.Namespace): "namespace",
		pick(fp.Kind, d.Kind):           "kind",
		pick(fp.Name, d.Name):           "name",
	}
	ts := fp.Timestamp
	if len(ts) == 0 {
		ts = d.Timestamp
	}
	for _, p := range ts {
		used[p] = "timestamp"
	}
	return used
}

func renderFields(r *ui.Renderer, s audit.Sample, fp audit.FieldPaths) {
	used := configuredPaths(fp)

	rows := make([][]string, len(s.Fields))
	for i, f := range s.Fields {
		rows[i] = []string{
			f.Path,
			fmt.Sprintf("%d/%d", f.Count, s.Records),
			used[f.Path],
			f.Sample,
		}
	}
	r.Table([]string{"PATH", "SEEN", "USED AS", "SAMPLE"}, rows)

	r.Newline()
	r.Info("Found %d fields across %d sampled records.", len(s.Fields), s.Records)
	paths := make([]string, 0, len(used))
	for path := range used {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if s.Coverage(path) == 0 {
			r.Warning("audit.fields.%s (%s) matched no sampled record", used[path], path)
		}
	}
}
