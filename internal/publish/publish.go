// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish writes the three dataset artifacts as a set. Every
// artifact is marshaled and staged in a temp file before any of them
// replaces its predecessor, so a failure while preparing the set leaves the
// previously published artifacts untouched.
package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/thesis-sync/pkg/types"
)

// Artifact file names.
const (
	ProjectsFile      = "projects.json"
	OrganizationsFile = "organizations.json"
	MetadataFile      = "metadata.json"
)

// Writer publishes artifacts into Dir.
type Writer struct {
	Dir    string
	Logger *log.Logger
}

// NewWriter returns a Writer for dir. A nil logger uses log.Default().
func NewWriter(dir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{Dir: dir, Logger: logger}
}

type staged struct {
	info types.ArtifactInfo
	data []byte
	tmp  string
}

// Write publishes projects.json, organizations.json and metadata.json.
// It returns the published files in that order.
func (w *Writer) Write(ds types.Datasets) ([]types.ArtifactInfo, error) {
	files := []struct {
		name string
		v    any
	}{
		{ProjectsFile, ds.Projects},
		{OrganizationsFile, ds.Organizations},
		{MetadataFile, ds.Metadata},
	}

	set := make([]*staged, 0, len(files))
	for _, f := range files {
		data, err := marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", f.name, err)
		}
		sum := sha256.Sum256(data)
		set = append(set, &staged{
			info: types.ArtifactInfo{
				Name:   f.name,
				Path:   filepath.Join(w.Dir, f.name),
				Bytes:  len(data),
				SHA256: hex.EncodeToString(sum[:]),
			},
			data: data,
		})
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	cleanup := func() {
		for _, s := range set {
			if s.tmp != "" {
				os.Remove(s.tmp)
			}
		}
	}
	for _, s := range set {
		tmp, err := stage(w.Dir, s.data)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("staging %s: %w", s.info.Name, err)
		}
		s.tmp = tmp
	}

	out := make([]types.ArtifactInfo, 0, len(set))
	for i, s := range set {
		if err := os.Rename(s.tmp, s.info.Path); err != nil {
			cleanup()
			return nil, fmt.Errorf("publishing %s (%d of %d already replaced): %w", s.info.Name, i, len(set), err)
		}
		s.tmp = ""
		w.Logger.Debug("published", "file", s.info.Path, "bytes", s.info.Bytes)
		out = append(out, s.info)
	}
	return out, nil
}

// marshal renders v as indented JSON with a trailing newline.
func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// stage writes data to a synced temp file in dir and returns its path.
func stage(dir string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".publish-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()

	_, writeErr := f.Write(data)
	syncErr := f.Sync()
	closeErr := f.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return "", err
		}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}
