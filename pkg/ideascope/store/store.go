package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/ideascope/pkg/ideascope/executor"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
)

// Store persists idea snapshots and a ledger of pipeline runs.
type Store interface {
	Close() error

	// Ideas
	SaveIdeas(ctx context.Context, topic string, ideas []idea.Idea) error
	LoadIdeas(ctx context.Context, topic string) ([]idea.Idea, error)
	Topics(ctx context.Context) ([]string, error)

	// Runs
	RecordRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, kind string, limit int) ([]Run, error)

	// Executions
	RecordExecution(ctx context.Context, runID string, r executor.Result) error
	ListExecutions(ctx context.Context, runID string) ([]executor.Result, error)
}

// Run kinds.
const (
	KindDedup   = "dedup"
	KindCluster = "cluster"
	KindExecute = "execute"
)

// Run is one pipeline invocation.
type Run struct {
	ID        string
	Kind      string
	Topic     string
	Threshold float64
	Input     int
	Output    int
	Note      string
	CreatedAt time.Time
}

var (
	idMu    sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new monotonic ULID string.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
