package cmd

import (
	"context"
	"time"

	"github.com/jmurray2011/skein/internal/audit"
	"github.com/jmurray2011/skein/internal/engine"
	"github.com/jmurray2011/skein/internal/history"
	"github.com/jmurray2011/skein/internal/logging"
	"github.com/jmurray2011/skein/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// appContextKey is the context key for the App instance.
type appContextKey struct{}

// Config holds the resolved configuration for one invocation.
type Config struct {
	OutputFormat  string
	Verbose       bool
	NoColor       bool
	Quiet         bool
	Concurrency   int
	ReferenceYear int
	SummaryLength int
	AuditGlobs    []string
	PodGlobs      []string
	Fields        audit.FieldPaths
	HistoryDB     string
}

// App holds the application dependencies that can be injected for testing.
type App struct {
	Config Config
	Render *ui.Renderer
	Log    logging.Logger
}

// NewApp creates a new App with configuration from viper.
func NewApp() *App {
	cfg := Config{
		OutputFormat:  getOutputFormat(),
		Verbose:       IsVerbose(),
		NoColor:       noColor,
		Quiet:         quiet,
		Concurrency:   viper.GetInt("concurrency"),
		ReferenceYear: viper.GetInt("reference_year"),
		SummaryLength: viper.GetInt("summary_length"),
		AuditGlobs:    viper.GetStringSlice("audit.globs"),
		PodGlobs:      viper.GetStringSlice("pods.globs"),
		HistoryDB:     viper.GetString("history_db"),
	}
	if err := viper.UnmarshalKey("audit.fields", &cfg.Fields); err != nil && render != nil {
		render.Warning("ignoring audit.fields: %v", err)
	}
	// Timestamps without a year fall in the current one.
	if cfg.ReferenceYear == 0 {
		cfg.ReferenceYear = time.Now().Year()
	}

	return &App{
		Config: cfg,
		Render: render,
		Log:    logging.Default(),
	}
}

// NewAppWithConfig creates a new App with the given configuration.
// This is primarily used for testing.
func NewAppWithConfig(cfg Config, renderer *ui.Renderer, log logging.Logger) *App {
	if renderer == nil {
		renderer = ui.NewRenderer()
	}
	if log == nil {
		log = logging.NopLogger{}
	}
	return &App{
		Config: cfg,
		Render: renderer,
		Log:    log,
	}
}

// GetApp retrieves the App from the command context.
// If no App is set, it creates a new default one.
func GetApp(cmd *cobra.Command) *App {
	if ctx := cmd.Context(); ctx != nil {
		if app, ok := ctx.Value(appContextKey{}).(*App); ok {
			return app
		}
	}
	return NewApp()
}

// SetApp stores the App in the context for a command.
func SetApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// Debugf prints a debug message if verbose mode is enabled.
func (a *App) Debugf(format string, args ...any) {
	if a.Config.Verbose {
		a.Render.Debug(format, args...)
	}
}

// GetOutputFormat returns the output format from Config or viper.
func (a *App) GetOutputFormat() string {
	if a.Config.OutputFormat != "" {
		return a.Config.OutputFormat
	}
	return viper.GetString("output")
}

// EngineConfig builds the engine configuration for one run.
func (a *App) EngineConfig(pattern, auditDir, podDir string) engine.Config {
	return engine.Config{
		Pattern:       pattern,
		AuditDir:      auditDir,
		PodDir:        podDir,
		AuditGlobs:    a.Config.AuditGlobs,
		PodGlobs:      a.Config.PodGlobs,
		Concurrency:   a.Config.Concurrency,
		ReferenceYear: a.Config.ReferenceYear,
		SummaryLength: a.Config.SummaryLength,
		Fields:        a.Config.Fields,
	}
}

// OpenHistory opens the run history database.
func (a *App) OpenHistory() (*history.SQLiteRepository, error) {
	if a.Config.HistoryDB != "" {
		return history.OpenAt(a.Config.HistoryDB)
	}
	return history.Open()
}
