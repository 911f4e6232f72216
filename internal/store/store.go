// Package store persists interview transcripts on behalf of the engine's
// callers. The engine itself is stateless; this store exists for the CLI and
// server collaborators that need to carry the turn history between calls.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/crafty-arl/etherith/internal/conversation"
)

// TranscriptStore manages durable storage of interview transcripts keyed by
// query ID.
type TranscriptStore interface {
	// Get returns the transcript stored for the given query ID, or nil if
	// there is nothing stored under that ID
	Get(queryID string) (*conversation.History, error)
	// Set stores a transcript under its query ID
	Set(queryID string, value conversation.History) error
	// Delete removes the transcript stored under a query ID
	Delete(queryID string) error
}

// FileSystemTranscriptStore implements TranscriptStore using the OS file
// system, one JSON file per query ID.
type FileSystemTranscriptStore struct {
	dir string // The directory query IDs will be relative to
}

func NewFileSystemTranscriptStore(dir string) FileSystemTranscriptStore {
	return FileSystemTranscriptStore{dir: dir}
}

// filePath maps a query ID to its on-disk location. The ID comes from the
// request, so anything that could escape the store directory is rejected.
func (s FileSystemTranscriptStore) filePath(queryID string) (string, error) {
	if queryID == "" || strings.ContainsAny(queryID, `/\`) || strings.Contains(queryID, "..") {
		return "", fmt.Errorf("invalid query ID %q", queryID)
	}
	return path.Join(s.dir, queryID+".json"), nil
}

func (s FileSystemTranscriptStore) Get(queryID string) (*conversation.History, error) {
	p, err := s.filePath(queryID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		// The file doesn't exist so nothing is stored under this ID
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var value conversation.History
	if err := json.Unmarshal(b, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &value, nil
}

func (s FileSystemTranscriptStore) Set(queryID string, value conversation.History) error {
	p, err := s.filePath(queryID)
	if err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := os.WriteFile(p, b, 0666); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s FileSystemTranscriptStore) Delete(queryID string) error {
	p, err := s.filePath(queryID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
