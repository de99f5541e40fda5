package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation tracks one CLI command from start to Close. Its ID tags every
// log line the command writes.
type Operation struct {
	ID        string
	Command   string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation starts tracking command.
func NewOperation(command string, now time.Time) *Operation {
	return &Operation{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed is the time since the operation started, truncated to milliseconds.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt).Truncate(time.Millisecond)
}
