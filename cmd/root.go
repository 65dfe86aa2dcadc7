package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmurray2011/skein/internal/audit"
	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/output"
	"github.com/jmurray2011/skein/internal/source"
	"github.com/jmurray2011/skein/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outputFormat string
	cfgFile      string
	logLevel     string
	verbose      bool
	noColor      bool
	quiet        bool

	// render is the global renderer for all output
	render *ui.Renderer
)

var rootCmd = &cobra.Command{
	Use:   "skein",
	Short: "Follow one resource through every log it touched",
	Long: `skein - a length of yarn loosely coiled; pull one thread and the rest follows.

Correlates a Kubernetes-style audit trail with the process logs of the pods
it describes. Every line mentioning the resources you name is merged into one
timeline, printed as JSON, text or CSV, and rendered as a self-contained HTML
report you can open offline.

Resource patterns:
  web-0                 one resource, matched as a substring
  "ns-a|ns-b"           several resources
  "web-.*-0"            a regular expression

Configuration:
  Create ~/.skein.yaml (or run 'skein init'):

    output: json              # json, text, csv
    concurrency: 4
    summary_length: 200
    # reference_year: 2025    # completes syslog/klog timestamps; default is the current year
    audit:
      globs: ["**/*.log", "**/*.jsonl"]
      fields:
        namespace: objectRef.namespace
        name: objectRef.name
    pods:
      globs: ["**/*.log", "**/*.txt"]

  Every key can also be set from the environment with the SKEIN_ prefix,
  e.g. SKEIN_CONCURRENCY=8 or SKEIN_AUDIT_GLOBS.

Examples:
  # Correlate one pod across both corpora
  skein correlate web-0 --audit-dir ./audit --pod-dir ./pods

  # Two namespaces, text output, report next to the logs
  skein correlate "ns-a|ns-b" --audit-dir ./audit --pod-dir ./pods -o text --report ./ns.html

  # Re-read one line by pointer
  skein get "file:///logs/pods/web-0/0.log#42"`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig, initRenderer, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.skein.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, text, csv")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress status messages and the run summary")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	_ = rootCmd.RegisterFlagCompletionFunc("output", fixedCompletion(output.Formats))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", fixedCompletion(logging.LevelNames))
}

// initRenderer initializes the global renderer with current settings.
func initRenderer() {
	render = ui.NewRendererWithOptions(
		ui.WithNoColor(noColor || os.Getenv("NO_COLOR") != ""),
		ui.WithQuiet(quiet),
	)
}

// initLogging points the default logger at stderr with the configured level.
func initLogging() {
	log := logging.New()
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		render.Warning("%v", err)
		level = logging.LevelWarn
	}
	if IsVerbose() {
		level = logging.LevelDebug
	}
	log.SetLevel(level)
	logging.SetDefault(log)
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

// Debugf prints a debug message if verbose mode is enabled
func Debugf(format string, args ...any) {
	if IsVerbose() {
		render.Debug(format, args...)
	}
}

// setDefaults registers every config key so env overrides and 'skein init'
// see the same set.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output", "json")
	v.SetDefault("log_level", "warn")
	v.SetDefault("concurrency", source.DefaultConcurrency)
	v.SetDefault("summary_length", source.DefaultSummaryLength)
	v.SetDefault("reference_year", 0)
	v.SetDefault("history_db", "")
	v.SetDefault("audit.globs", audit.DefaultGlobs)
	v.SetDefault("pods.globs", local.DefaultPodGlobs)

	fields := audit.DefaultFieldPaths()
	v.SetDefault("audit.fields.verb", fields.Verb)
	v.SetDefault("audit.fields.actor", fields.Actor)
	v.SetDefault("audit.fields.code", fields.Code)
	v.SetDefault("audit.fields.namespace", fields.Namespace)
	v.SetDefault("audit.fields.kind", fields.Kind)
	v.SetDefault("audit.fields.name", fields.Name)
	v.SetDefault("audit.fields.timestamp", fields.Timestamp)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".skein")
		viper.SetConfigType("yaml")
	}

	// Environment variables: audit.globs -> SKEIN_AUDIT_GLOBS
	viper.SetEnvPrefix("SKEIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	// Read config file (ignore if not found, warn on other errors)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}
}

// getOutputFormat returns the output format from flags or config.
func getOutputFormat() string {
	if outputFormat != "" {
		return outputFormat
	}
	return viper.GetString("output")
}
