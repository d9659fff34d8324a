// Package photo persists confidence photos under a per-session directory
// and serves them back as /photos/ URL paths.
package photo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store writes confidence photos to the local filesystem.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory photos are written under.
func (s *Store) Dir() string { return s.dir }

// Save writes the photo for one question and returns the URL path it will
// be served from. The filename records how the capture happened so a
// session's photos can be audited without consulting the database.
func (s *Store) Save(sessionID string, questionID int64, captureMode string, delaySec int, data []byte) (string, error) {
	if captureMode == "" {
		captureMode = "unknown"
	}
	sessionDir := filepath.Join(s.dir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	name := fmt.Sprintf("confidence_q%d_%d_mode-%s_delay-%ds.jpg",
		questionID, time.Now().UnixMilli(), captureMode, delaySec)
	if err := os.WriteFile(filepath.Join(sessionDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return "/photos/" + sessionID + "/" + name, nil
}
