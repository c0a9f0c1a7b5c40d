// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

// ReportFile is the run report written next to the artifacts.
const ReportFile = "sync-report.yaml"

// Report summarizes a completed run for humans and CI.
type Report struct {
	RunID      string               `yaml:"run_id"`
	Version    string               `yaml:"version"`
	StartedAt  time.Time            `yaml:"started_at"`
	FinishedAt time.Time            `yaml:"finished_at"`
	Duration   string               `yaml:"duration"`
	States     []string             `yaml:"states"`
	Summary    types.RunSummary     `yaml:"summary"`
	Artifacts  []types.ArtifactInfo `yaml:"artifacts"`
}

// WriteReport writes r to ReportFile in w.Dir through a temp file.
func (w *Writer) WriteReport(r Report) (string, error) {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := stage(w.Dir, data)
	if err != nil {
		return "", fmt.Errorf("staging report: %w", err)
	}
	path := filepath.Join(w.Dir, ReportFile)
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(dir string) (Report, error) {
	var r Report
	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		return r, fmt.Errorf("reading report: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parsing report: %w", err)
	}
	return r, nil
}
