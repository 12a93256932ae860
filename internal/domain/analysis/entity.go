package analysis

import (
	"sync"
	"time"
)

// ID tipe untuk Run
type RunID string

// Status enum
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Severity enum, ordered critical > high > medium > low
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Category enum
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryQuality     Category = "quality"
)

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Finding is one normalized issue reported by an analyzer. Immutable once produced.
type Finding struct {
	ID          string   `json:"id,omitempty"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Column      int      `json:"column"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Rule        string   `json:"rule"`
	Message     string   `json:"message"`
	CodeSnippet string   `json:"code_snippet,omitempty"`
	Tool        string   `json:"tool"`
}

// Aggregate Root: Run. Owned by the orchestrator for its entire lifetime;
// mutation happens only through the methods below so status readers always
// observe a coherent snapshot.
type Run struct {
	mu sync.RWMutex

	ID          RunID
	ProjectPath string
	Files       []string
	Categories  []Category
	Analyzers   []string

	status         Status
	progress       float64
	currentFile    string
	completedFiles int
	totalFiles     int
	selectedFiles  int

	findings []Finding
	summary  SeverityCounts

	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time

	errMsg string
}

// NewRun creates a run in PENDING, before the background worker begins.
func NewRun(id RunID, projectPath string, files []string, categories []Category, analyzers []string, now time.Time) *Run {
	return &Run{
		ID:            id,
		ProjectPath:   projectPath,
		Files:         files,
		Categories:    categories,
		Analyzers:     analyzers,
		status:        StatusPending,
		totalFiles:    len(files),
		selectedFiles: len(files),
		createdAt:     now,
	}
}

// Status returns the current state.
func (r *Run) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Begin transitions PENDING → RUNNING and records the start time. Returns
// false when the run was cancelled before the worker got to it.
func (r *Run) Begin(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPending {
		return false
	}
	r.status = StatusRunning
	r.startedAt = now
	return true
}

// SetTotalSteps finalizes the progress denominator after the applicable
// passes have been enumerated. A file analyzed by three passes counts three
// times; progress reporting is per-(file,pass).
func (r *Run) SetTotalSteps(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalFiles = total
	r.completedFiles = 0
}

// SetCurrentFile records the item label shown to status pollers.
func (r *Run) SetCurrentFile(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentFile = label
}

// FileDone appends the findings of one (file,pass) step, recomputes the live
// summary and advances progress, all under a single lock so readers never see
// the counters torn apart.
func (r *Run) FileDone(findings []Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, findings...)
	r.summary = Summarize(r.findings)
	r.completedFiles++
	if r.totalFiles > 0 {
		r.progress = float64(r.completedFiles) / float64(r.totalFiles)
	}
}

// RecomputeSummary rebuilds the live summary from the accumulated findings.
func (r *Run) RecomputeSummary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = Summarize(r.findings)
}

// Pause transitions RUNNING → PAUSED. Anything else is a no-op.
func (r *Run) Pause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusRunning {
		return false
	}
	r.status = StatusPaused
	return true
}

// Resume transitions PAUSED → RUNNING. Anything else is a no-op.
func (r *Run) Resume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPaused {
		return false
	}
	r.status = StatusRunning
	return true
}

// Cancel is legal from PENDING, RUNNING or PAUSED and is terminal; the
// processing loop observes it at the next file checkpoint.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.status {
	case StatusPending, StatusRunning, StatusPaused:
		r.status = StatusCancelled
		return true
	}
	return false
}

// Fail marks the run FAILED with the fault message. No-op once terminal.
func (r *Run) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return
	}
	r.status = StatusFailed
	r.errMsg = msg
}

// Complete marks the run COMPLETED with progress pinned to 1.0. A cancelled
// run never completes.
func (r *Run) Complete(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusCancelled {
		return false
	}
	r.status = StatusCompleted
	r.progress = 1.0
	r.completedAt = now
	r.summary = Summarize(r.findings)
	return true
}
