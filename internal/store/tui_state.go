package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const tuiStateFileName = "tui_state.json"

// TUIState stores small UI state for restoring the grid on relaunch.
//
// It is best effort: callers should tolerate missing/invalid data.
type TUIState struct {
	Version int `json:"version"`

	Search string `json:"search,omitempty"`

	// Expanded lists the label ids whose values were visible.
	Expanded []string `json:"expanded,omitempty"`

	// Cursor is the row key (model.Row.Key) under the cursor.
	Cursor string `json:"cursor,omitempty"`
}

// StateDir is where UI state lives. An empty Dir disables persistence.
type StateDir struct {
	Dir string
}

// DefaultStateDir uses the config dir.
func DefaultStateDir() StateDir {
	dir, err := ConfigDir()
	if err != nil {
		return StateDir{}
	}
	return StateDir{Dir: dir}
}

func (s StateDir) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s StateDir) LoadTUIState() (*TUIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &TUIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupted state is treated as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s StateDir) SaveTUIState(st *TUIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, tuiStateFileName+".*.tmp", s.tuiStatePath(), b, 0o644)
}
