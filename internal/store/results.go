package store

import (
	"context"
	"time"

	"github.com/local/finfinder/internal/finder"
)

// Job states.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Result is the stored outcome of one serve-mode locate job.
type Result struct {
	JobID    string                 `json:"job_id"`
	Status   string                 `json:"status"`
	Source   string                 `json:"source"`
	Error    string                 `json:"error,omitempty"`
	Document *finder.DocumentResult `json:"document,omitempty"`
	Created  time.Time              `json:"created"`
	Finished *time.Time             `json:"finished,omitempty"`
}

// Results persists job results for later retrieval.
type Results interface {
	Set(ctx context.Context, r Result) error
	Get(ctx context.Context, jobID string) (Result, bool, error)
	Ping(ctx context.Context) error
	Close() error
}
