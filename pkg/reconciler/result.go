package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/comicmap/pkg/comics"
)

// Cycle names used in results and logs.
const (
	CycleIngest  = "ingest"
	CycleRefresh = "refresh"
)

// Change is a record whose chapter count moved during a refresh.
type Change struct {
	Old comics.Record
	New comics.Record
}

// Failure is a source whose extraction failed this cycle.
type Failure struct {
	Source string
	Err    error
}

// Result describes one ingest or refresh pass.
type Result struct {
	Cycle string

	Added     []comics.Record
	Updated   []Change
	Unchanged int
	Skipped   int // ingest: sources already tracked when the merge ran
	Failed    []Failure

	// Dirty is set when the pass changed the collection.
	Dirty bool
	// Saved is set when the local mirror was written.
	Saved bool
	// Pushed is set when the remote blob was written.
	Pushed bool
	// Interrupted is set when the context ended before every source was
	// extracted; the sources that were extracted are still merged.
	Interrupted bool

	StartTime time.Time
	Duration  time.Duration
}

func newResult(cycle string) *Result {
	return &Result{Cycle: cycle, StartTime: time.Now()}
}

func (r *Result) finalize() {
	r.Duration = time.Since(r.StartTime)
}

// HasChanges reports whether records were added or updated.
func (r *Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0
}

// Summary returns a one-line human-readable description.
func (r *Result) Summary() string {
	push := "not pushed"
	if r.Pushed {
		push = "pushed"
	}
	if r.Interrupted {
		push += ", interrupted"
	}
	switch r.Cycle {
	case CycleIngest:
		return fmt.Sprintf("ingest: %d added, %d failed, %s", len(r.Added), len(r.Failed), push)
	default:
		return fmt.Sprintf("refresh: %d updated, %d unchanged, %d failed, %s",
			len(r.Updated), r.Unchanged, len(r.Failed), push)
	}
}
