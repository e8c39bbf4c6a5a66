package state

import (
	"encoding/json" // For JSON encoding and decoding of the journal file
	"os"
	"path/filepath"
	"time"

	"zsmart-installer/internal/logger"
)

// FileName is the journal kept at the root of the install directory.
const FileName = ".zsmart-installer.json"

// maxHistory bounds how many past operations are kept.
const maxHistory = 20

// Entry records one orchestration cycle: what was planned, how far it got,
// and why it stopped. It is diagnostic only; the installed version is always
// read from the manifest.
type Entry struct {
	Operation string    `json:"operation"`         // install or update
	Action    string    `json:"action"`            // Planned action: noop, install or update
	From      string    `json:"from,omitempty"`    // Version detected before the cycle
	To        string    `json:"to,omitempty"`      // Version the cycle aimed for
	Stage     string    `json:"stage"`             // Last stage reached
	Result    string    `json:"result"`            // committed, failed or noop
	Error     string    `json:"error,omitempty"`   // Failure detail for manual recovery
	Warning   string    `json:"warning,omitempty"` // Non-fatal issue such as a skipped migration
	At        time.Time `json:"at"`
}

// State holds the journal of past operations, newest last.
type State struct {
	History []Entry `json:"history"`
}

// Last returns the most recent entry, if any.
func (s *State) Last() (Entry, bool) {
	if len(s.History) == 0 {
		return Entry{}, false
	}
	return s.History[len(s.History)-1], true
}

// Record appends e and drops the oldest entries beyond maxHistory.
func (s *State) Record(e Entry) {
	s.History = append(s.History, e)
	if over := len(s.History) - maxHistory; over > 0 {
		s.History = append([]Entry(nil), s.History[over:]...)
	}
}

// Path returns the journal location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// LoadState loads the journal from path.
// A missing or unreadable file yields an empty journal.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		return &State{}
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("[WARN] Ignoring corrupt journal %s: %v\n", path, err)
		return &State{}
	}
	return &st
}

// SaveState writes the journal to path as indented JSON.
// Errors are logged but not propagated; losing the journal never fails an operation.
func SaveState(path string, st *State) {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		logger.Error("[ERROR] Failed to marshal journal: %v\n", err)
		return
	}

	logger.Debug("[DEBUG] Writing journal to %s\n", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("[ERROR] Failed to create %s: %v\n", filepath.Dir(path), err)
		return
	}
	if err := os.WriteFile(path, file, 0o644); err != nil {
		logger.Error("[ERROR] Failed to write journal %s: %v\n", path, err)
	}
}
