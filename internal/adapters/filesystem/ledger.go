package filesystem

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/ctx/internal/models"
	"github.com/example/ctx/internal/ports/secondary"
)

// LedgerFileName is the ledger file inside the state directory.
const LedgerFileName = "dag.jsonl"

// Ledger is the append-only task DAG log: one self-contained JSON
// record per line. A mutex serializes appenders; each append is a
// single O_APPEND write followed by a sync, so a record either fully
// commits or does not appear.
type Ledger struct {
	path string

	mu    sync.Mutex
	known map[string]bool // task ids with at least one entry
}

// NewLedger opens (creating if needed) the ledger under the given state
// directory and indexes the task ids already present.
func NewLedger(stateDir string) (*Ledger, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	l := &Ledger{
		path:  filepath.Join(stateDir, LedgerFileName),
		known: make(map[string]bool),
	}

	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		l.known[e.TaskID] = true
	}

	return l, nil
}

// Append durably writes one immutable record. Returns
// secondary.ErrDanglingParent if the entry names a parent id with no
// prior entry.
func (l *Ledger) Append(ctx context.Context, entry models.LedgerEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ParentID != "" && !l.known[entry.ParentID] {
		return fmt.Errorf("task %s parent %s: %w",
			entry.TaskID, entry.ParentID, secondary.ErrDanglingParent)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}

	l.known[entry.TaskID] = true
	return nil
}

// ReadAll returns every entry in append order.
func (l *Ledger) ReadAll(ctx context.Context) ([]models.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll()
}

// HasTask reports whether any entry exists for the task id.
func (l *Ledger) HasTask(ctx context.Context, taskID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.known[taskID], nil
}

func (l *Ledger) readAll() ([]models.LedgerEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	var entries []models.LedgerEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.LedgerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("corrupt ledger line: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	return entries, nil
}

// Ensure Ledger implements the interface
var _ secondary.Ledger = (*Ledger)(nil)
