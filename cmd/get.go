package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/source"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <ptr>",
	Short: "Print the source line behind an entry pointer",
	Long: `Re-read the original line of an entry using its pointer.

Every entry printed by 'skein correlate' carries a pointer of the form
file:///path/to/file#line. The file is streamed, not loaded, so this works on
very large logs.

Examples:
  # Print the raw line
  skein get "file:///logs/pods/web-0/0.log#42"

  # Bare path#line works too
  skein get /logs/audit/audit.log#1542

  # As JSON
  skein get "file:///logs/audit/audit.log#1542" -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	app := GetApp(cmd)
	format, err := output.ParseFormat(app.GetOutputFormat())
	if err != nil {
		return err
	}

	app.Debugf("Fetching record with pointer: %s", args[0])
	info, line, err := local.GetRecord(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeRecord(cmd.OutOrStdout(), format, info, line)
}

// writeRecord prints one raw line. Only json wraps it; text and csv print
// the line as it is in the file.
func writeRecord(w io.Writer, format output.Format, info source.LocalPtrInfo, line string) error {
	if format != output.FormatJSON {
		_, err := fmt.Fprintln(w, line)
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Ptr     string `json:"ptr"`
		File    string `json:"file"`
		Line    int    `json:"line"`
		Content string `json:"content"`
	}{
		Ptr:     source.MakeLocalPtr(info.FilePath, info.LineNum),
		File:    info.FilePath,
		Line:    info.LineNum,
		Content: line,
	})
}
