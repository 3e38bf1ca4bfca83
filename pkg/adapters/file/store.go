// Package file provides a filesystem snapshot store: one JSON file per
// session. Useful for single-host deployments that must survive restarts
// without running Redis.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nithiin7/lang2query/pkg/domain"
)

const snapshotExt = ".json"

// Store implements ports.StateStore on the local filesystem.
type Store struct {
	dir string
}

// New creates a file store rooted at dir. An empty dir defaults to
// ".lang2query/sessions".
func New(dir string) *Store {
	if dir == "" {
		dir = filepath.Join(".lang2query", "sessions")
	}
	return &Store{dir: dir}
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+snapshotExt)
}

// Save writes the snapshot atomically: temp file, fsync, rename. A crash
// mid-write leaves the previous snapshot intact.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// The temp file lives in the same directory so the rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(s.dir, "tmp-"+sessionID+"-*"+snapshotExt)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(sessionID)); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &state, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	err := os.Remove(s.path(sessionID))
	if os.IsNotExist(err) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the session IDs with snapshot files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotExt) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, snapshotExt))
	}
	return sessions, nil
}
