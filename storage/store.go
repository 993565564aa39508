// Package storage persists run snapshots keyed by run id.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pthm-cable/evolution/telemetry"
)

// errStoreClosed is returned by writes before Init or after Close.
var errStoreClosed = errors.New("store is not initialized")

// Run is one persisted simulation run.
type Run struct {
	ID        string
	SpeciesID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Snapshot  *telemetry.Snapshot
}

// Store defines persistence operations for runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]string, error)
	DeleteRun(ctx context.Context, id string) error
}
