package models

// LedgerEntry is one immutable record in the append-only task DAG log.
// Each line of the ledger file is the JSON encoding of one entry.
type LedgerEntry struct {
	TaskID      string `json:"task_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
