// Package session persists per-conversation state across hook invocations.
//
// Each conversation maps to one small JSON file keyed by a sanitized
// session id. Loads never fail: any unreadable or malformed file yields a
// fresh state, because losing dedup history is strictly better than
// blocking a user-visible turn. Writes go to a sibling temporary path
// followed by an atomic rename so a concurrent reader never observes a
// half-written file.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/sanitize"
)

// Store reads and writes session state files.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a session state store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Path returns the deterministic state file path for a session id.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.dir, sanitize.SessionID(sessionID)+".json")
}

// Load reads the persisted state for a session. On any read or parse
// failure it returns a fresh state; it never returns an error.
func (s *Store) Load(sessionID string) *State {
	path := s.Path(sessionID)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("unreadable session state, starting fresh",
				zap.String("path", path), zap.Error(err))
		}
		return NewState(sessionID)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Debug("corrupted session state, starting fresh",
			zap.String("path", path), zap.Error(err))
		return NewState(sessionID)
	}

	state.SessionID = sessionID
	if state.InjectedIDs == nil {
		state.InjectedIDs = make(map[string]bool)
	}
	return &state
}

// Save writes the state atomically: marshal, write to a temporary sibling
// path, then rename into place.
func (s *Store) Save(state *State) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	path := s.Path(state.SessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming session state: %w", err)
	}
	return nil
}

// ResetAfterCompact clears the dedup set after the host assistant compacts
// its context window: previously injected text is no longer visible, so
// the same results become eligible again. All other fields persist across
// the boundary.
func ResetAfterCompact(state *State) {
	state.InjectedIDs = make(map[string]bool)
}
