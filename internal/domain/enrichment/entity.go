package enrichment

import (
	"sync"
	"time"

	"github.com/codelens-ai/codelens/internal/domain/analysis"
)

// ID tipe untuk Batch
type BatchID string

// BatchStatus enum
type BatchStatus string

const (
	BatchPending            BatchStatus = "pending"
	BatchAnalyzing          BatchStatus = "analyzing"
	BatchCompleted          BatchStatus = "completed"
	BatchPartiallyCompleted BatchStatus = "partially_completed"
	BatchCancelled          BatchStatus = "cancelled"
)

// Result is the enrichment produced for a single finding. Cached entries are
// shared across batches, keyed by content identity.
type Result struct {
	ID              string    `json:"issue_id"`
	Summary         string    `json:"summary"`
	RootCause       string    `json:"root_cause"`
	Impact          string    `json:"impact"`
	Recommendations []string  `json:"recommendations"`
	CodeExample     string    `json:"code_example,omitempty"`
	AnalysisTime    float64   `json:"analysis_time"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Failed reports whether this result carries an error instead of content.
func (r Result) Failed() bool { return r.Error != "" }

// Aggregate Root: Batch. Owned exclusively by the queue; readers go through
// Snapshot.
type Batch struct {
	mu sync.Mutex

	ID          BatchID
	ProjectPath string
	Findings    []analysis.Finding

	status             BatchStatus
	completed          int
	failed             int
	progress           int
	results            []Result
	startedAt          time.Time
	endedAt            time.Time
	estimatedRemaining int
	cancelled          bool
}

// NewBatch allocates a batch in pending, not yet scheduled.
func NewBatch(id BatchID, projectPath string, findings []analysis.Finding) *Batch {
	return &Batch{
		ID:          id,
		ProjectPath: projectPath,
		Findings:    findings,
		status:      BatchPending,
	}
}

// Status returns the current state.
func (b *Batch) Status() BatchStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Cancelled reports the monotonic cancellation flag.
func (b *Batch) Cancelled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelled
}

// Cancel is idempotent and only legal from pending/analyzing; it returns
// whether a transition occurred. In-flight jobs observe the flag at their
// next checkpoint.
func (b *Batch) Cancel(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != BatchPending && b.status != BatchAnalyzing {
		return false
	}
	b.cancelled = true
	b.status = BatchCancelled
	b.endedAt = now
	return true
}

// BeginProcessing moves pending → analyzing and records the start time. It
// fails fast when the batch was cancelled before the driver got to it.
func (b *Batch) BeginProcessing(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelled {
		b.status = BatchCancelled
		if b.endedAt.IsZero() {
			b.endedAt = now
		}
		return false
	}
	if b.status != BatchPending {
		return false
	}
	b.status = BatchAnalyzing
	b.startedAt = now
	return true
}

// Tick advances the in-flight progress counters after one job settles.
// Skipped once cancelled; Finalize recomputes the authoritative counts.
func (b *Batch) Tick(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelled || len(b.Findings) == 0 {
		return
	}
	b.completed++
	b.progress = b.completed * 100 / len(b.Findings)
	if b.completed > 0 && !b.startedAt.IsZero() {
		elapsed := now.Sub(b.startedAt).Seconds()
		avg := elapsed / float64(b.completed)
		b.estimatedRemaining = int(avg * float64(len(b.Findings)-b.completed))
	}
}

// Finalize aggregates settled results: completed is the number of results
// without error, failed the rest. A cancelled batch keeps its terminal state
// and discards the results.
func (b *Batch) Finalize(results []Result, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelled {
		b.status = BatchCancelled
		if b.endedAt.IsZero() {
			b.endedAt = now
		}
		return
	}
	completed, failed := 0, 0
	for _, r := range results {
		if r.Failed() {
			failed++
		} else {
			completed++
		}
	}
	b.results = results
	b.completed = completed
	b.failed = failed
	b.progress = 100
	b.estimatedRemaining = 0
	b.endedAt = now
	if failed == 0 {
		b.status = BatchCompleted
	} else {
		b.status = BatchPartiallyCompleted
	}
}

// EndedBefore reports whether the batch finished before the cutoff; batches
// that never ended are kept.
func (b *Batch) EndedBefore(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.endedAt.IsZero() && b.endedAt.Before(cutoff)
}

// ResultByID searches this batch's settled results.
func (b *Batch) ResultByID(id string) (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

// BatchSnapshot is the read model served to status pollers.
type BatchSnapshot struct {
	QueueID            string      `json:"queue_id"`
	ProjectPath        string      `json:"project_path"`
	Status             BatchStatus `json:"status"`
	TotalIssues        int         `json:"total_issues"`
	Completed          int         `json:"completed"`
	Failed             int         `json:"failed"`
	Progress           int         `json:"progress"`
	Results            []Result    `json:"results"`
	StartedAt          *time.Time  `json:"start_time"`
	EndedAt            *time.Time  `json:"end_time"`
	EstimatedRemaining int         `json:"estimated_remaining"`
	Cancelled          bool        `json:"cancelled"`
}

// Snapshot captures the batch counters in one coherent read.
func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	var started, ended *time.Time
	if !b.startedAt.IsZero() {
		t := b.startedAt
		started = &t
	}
	if !b.endedAt.IsZero() {
		t := b.endedAt
		ended = &t
	}
	results := make([]Result, len(b.results))
	copy(results, b.results)

	return BatchSnapshot{
		QueueID:            string(b.ID),
		ProjectPath:        b.ProjectPath,
		Status:             b.status,
		TotalIssues:        len(b.Findings),
		Completed:          b.completed,
		Failed:             b.failed,
		Progress:           b.progress,
		Results:            results,
		StartedAt:          started,
		EndedAt:            ended,
		EstimatedRemaining: b.estimatedRemaining,
		Cancelled:          b.cancelled,
	}
}
