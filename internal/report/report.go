package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DataSource supplies the report payload for an owner over a data window.
// The payload is opaque to the scheduling engine.
type DataSource interface {
	Fetch(ctx context.Context, ownerRef string, windowStart, windowEnd time.Time) (map[string]any, error)
}

// Renderer turns a report payload into the artifact bytes.
type Renderer interface {
	Render(payload map[string]any) ([]byte, error)
}

// ArtifactStore uploads rendered artifacts and returns their URL.
type ArtifactStore interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}

// JSONRenderer is the default renderer: the payload serialised as indented
// JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(payload map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render report payload: %w", err)
	}
	return data, nil
}

// LocalArtifactStore writes artifacts under a base directory and returns
// file URLs. It stands in for a remote object store in single-node setups
// and tests.
type LocalArtifactStore struct {
	baseDir string
}

func NewLocalArtifactStore(baseDir string) *LocalArtifactStore {
	return &LocalArtifactStore{baseDir: baseDir}
}

func (s *LocalArtifactStore) Upload(ctx context.Context, data []byte, path string) (string, error) {
	full := filepath.Join(s.baseDir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store artifact %s: %w", path, err)
	}

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	return "file://" + abs, nil
}
