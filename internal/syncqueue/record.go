// Package syncqueue persists locally-originated writes while the central
// store is unreachable and replays them oldest-first once connectivity
// returns.
package syncqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Record is one queued mutation. ID doubles as the idempotency key the
// remote side deduplicates on, so a crash between a successful replay and
// the local synced mark cannot duplicate a create.
type Record struct {
	ID         string          `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	Op         Operation       `db:"op" json:"operation"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	CreatedAt  time.Time       `db:"-" json:"createdAt"`
	Synced     bool            `db:"synced" json:"synced"`
	Attempts   int             `db:"attempts" json:"attempts"`
	LastError  string          `db:"last_error" json:"lastError,omitempty"`
}

// newRecordID keeps the readable entity/op/timestamp prefix and appends a
// UUID so ids are collision-free across terminals.
func newRecordID(entityType string, op Operation, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d-%s", entityType, op, now.UnixMilli(), uuid.NewString())
}
