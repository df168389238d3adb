package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is a single history line with the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// line encodes the entry for the history file.
func (e HistoryEntry) line() string {
	if e.Mode == modeCtrl {
		return "C:" + e.Line
	}

	return "E:" + e.Line
}

func parseEntry(s string) HistoryEntry {
	if rest, ok := strings.CutPrefix(s, "C:"); ok {
		return HistoryEntry{Line: rest, Mode: modeCtrl}
	}

	rest, _ := strings.CutPrefix(s, "E:")

	return HistoryEntry{Line: rest, Mode: modeEval}
}

// History is the persistent REPL input history. An empty path keeps the
// history in memory only.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns a history stored at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with the content of the history file.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	return scanner.Err()
}

// Add appends line entered in mode. An older identical entry is moved to
// the end.
func (h *History) Add(line string, mode inputMode) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{Line: line, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	if i := slices.Index(h.entries, entry); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
		h.entries = append(h.entries, entry)

		return h.rewrite()
	}

	h.entries = append(h.entries, entry)

	if h.path == "" {
		return nil
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(entry.line() + "\n")

	return err
}

// Entry returns the entry at i, oldest first.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of all entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// rewrite writes all entries to the history file. h.mu must be held.
func (h *History) rewrite() error {
	if h.path == "" {
		return nil
	}

	var b strings.Builder
	for _, e := range h.entries {
		b.WriteString(e.line())
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}
