package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jmurray2011/skein/internal/audit"
	"github.com/jmurray2011/skein/internal/local"
	"github.com/jmurray2011/skein/internal/source"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default skein configuration",
	Long: `Create ~/.skein.yaml with every setting at its default value.

Examples:
  # Create default config (won't overwrite existing)
  skein init

  # Force overwrite existing config
  skein init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
}

// fileConfig mirrors the keys read by initConfig and NewApp.
type fileConfig struct {
	Output        string `yaml:"output"`
	LogLevel      string `yaml:"log_level"`
	Concurrency   int    `yaml:"concurrency"`
	SummaryLength int    `yaml:"summary_length"`
	Audit         struct {
		Globs  []string         `yaml:"globs"`
		Fields audit.FieldPaths `yaml:"fields"`
	} `yaml:"audit"`
	Pods struct {
		Globs []string `yaml:"globs"`
	} `yaml:"pods"`
}

func runInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	configPath := filepath.Join(home, ".skein.yaml")

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := createFileIfNotExists(w, configPath, content, initForce); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nEdit %s to customize your settings.\n", configPath)
	return nil
}

func generateDefaultConfig() ([]byte, error) {
	cfg := fileConfig{
		Output:        "json",
		LogLevel:      "warn",
		Concurrency:   source.DefaultConcurrency,
		SummaryLength: source.DefaultSummaryLength,
	}
	cfg.Audit.Globs = audit.DefaultGlobs
	cfg.Audit.Fields = audit.DefaultFieldPaths()
	cfg.Pods.Globs = local.DefaultPodGlobs

	var buf bytes.Buffer
	buf.WriteString("# skein configuration\n")
	buf.WriteString("# reference_year completes syslog/klog timestamps; it defaults to the current year.\n")
	buf.WriteString("# history_db overrides the run history location.\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func createFileIfNotExists(w io.Writer, path string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "  %s already exists (use --force to overwrite)\n", path)
			return nil
		}
	}

	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(w, "  Created %s\n", path)
	return nil
}
