//go:build ignore

// Rebuild the sqlite task projection from the ledger.
//
// The dag.jsonl ledger is the authoritative record; ctx.db is a derived
// index. If the database is lost or corrupted, this script replays the
// ledger and reconstructs one row per task with its last-written status.
// Session ids, concept sets and output paths are not in the ledger and
// stay empty; resume those tasks from their task directories by hand.
//
// Usage: go run scripts/rebuild_index.go -state .ctx

package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type entry struct {
	TaskID      string `json:"task_id"`
	ParentID    string `json:"parent_id"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type projected struct {
	entry
	firstSeen string
}

func main() {
	stateDir := flag.String("state", ".ctx", "state directory containing dag.jsonl and ctx.db")
	dryRun := flag.Bool("dry-run", false, "print what would be written without touching the database")
	flag.Parse()

	ledgerPath := filepath.Join(*stateDir, "dag.jsonl")
	f, err := os.Open(ledgerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	// Last entry per task wins; first entry fixes creation time.
	tasks := make(map[string]*projected)
	var order []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed line %d: %v\n", line, err)
			continue
		}
		if p, ok := tasks[e.TaskID]; ok {
			p.entry = e
		} else {
			tasks[e.TaskID] = &projected{entry: e, firstSeen: e.Timestamp}
			order = append(order, e.TaskID)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read ledger: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Replayed %d entries into %d task(s)\n", line, len(tasks))
	if *dryRun {
		for _, id := range order {
			p := tasks[id]
			fmt.Printf("  %s %s: %s\n", p.TaskID, p.Status, p.Description)
		}
		return
	}

	db, err := sql.Open("sqlite3", filepath.Join(*stateDir, "ctx.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	for _, id := range order {
		p := tasks[id]
		var parent interface{}
		if p.ParentID != "" {
			parent = p.ParentID
		}
		var completed interface{}
		if p.Status == "completed" || p.Status == "failed" {
			completed = p.Timestamp
		}
		_, err := db.Exec(`
			INSERT INTO tasks (id, parent_id, description, concepts, status, created_at, completed_at)
			VALUES (?, ?, ?, '[]', ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				completed_at = excluded.completed_at`,
			id, parent, p.Description, p.Status, p.firstSeen, completed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "write task %s: %v\n", id, err)
			os.Exit(1)
		}
	}

	fmt.Println("✓ Projection rebuilt")
}
