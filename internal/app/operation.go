package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation identifies one CLI invocation. Its ID tags every log line the
// invocation writes.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "running", "success" or "error"
}

// NewOperation creates an operation with a fresh random id.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        uuid.New().String(),
		Name:      name,
		StartedAt: now,
		Status:    "running",
	}
}

// Finish records the outcome of the operation.
func (op *Operation) Finish(err error) {
	if err != nil {
		op.Status = "error"
		return
	}
	op.Status = "success"
}

// ShortID returns the first block of the id, which is enough to grep the log.
func (op *Operation) ShortID() string {
	if len(op.ID) < 8 {
		return op.ID
	}
	return op.ID[:8]
}
