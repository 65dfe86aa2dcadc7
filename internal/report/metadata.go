package report

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmurray2011/skein/internal/pattern"
)

// Metadata is caller-supplied context shown verbatim in the report header.
// The engine never interprets it.
type Metadata struct {
	Title     string `yaml:"title,omitempty"`
	Job       string `yaml:"job,omitempty"`
	Build     string `yaml:"build,omitempty"`
	Target    string `yaml:"target,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
	SourceURL string `yaml:"source_url,omitempty"`
	// GeneratedAt is free text so that rendering stays a pure function of
	// its inputs; the CLI fills it in.
	GeneratedAt string `yaml:"generated_at,omitempty"`
}

// Resources splits Pattern into the resource names it names.
func (m Metadata) Resources() []string {
	if m.Pattern == "" {
		return nil
	}
	return pattern.Resources(m.Pattern)
}

// LoadMetadata reads a YAML metadata file. Unknown keys are rejected so
// typos surface instead of silently vanishing from the report.
func LoadMetadata(path string) (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading metadata: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if len(bytes.TrimSpace(data)) == 0 {
			return Metadata{}, nil
		}
		return m, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return m, nil
}

// Merge returns m with every empty field taken from other.
func (m Metadata) Merge(other Metadata) Metadata {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Title, other.Title)
	fill(&m.Job, other.Job)
	fill(&m.Build, other.Build)
	fill(&m.Target, other.Target)
	fill(&m.Pattern, other.Pattern)
	fill(&m.SourceURL, other.SourceURL)
	fill(&m.GeneratedAt, other.GeneratedAt)
	return m
}
