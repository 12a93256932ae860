package analysis

import (
	"fmt"
	"time"
)

// StatusSnapshot is the read model served to status pollers.
type StatusSnapshot struct {
	AnalysisID         string         `json:"analysis_id"`
	Status             Status         `json:"status"`
	Progress           float64        `json:"progress"`
	CurrentFile        string         `json:"current_file,omitempty"`
	CompletedFiles     int            `json:"completed_files"`
	TotalFiles         int            `json:"total_files"`
	SelectedFilesCount int            `json:"selected_files_count"`
	ElapsedTime        int            `json:"elapsed_time"`
	EstimatedRemaining int            `json:"estimated_remaining"`
	LiveSummary        SeverityCounts `json:"live_summary"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ResultSnapshot is the read model for final or in-progress results.
type ResultSnapshot struct {
	AnalysisID  string         `json:"analysis_id"`
	Status      Status         `json:"status"`
	ProjectPath string         `json:"project_path"`
	Summary     SeverityCounts `json:"summary"`
	Issues      []Finding      `json:"issues"`
	CompletedAt *time.Time     `json:"completed_at"`
	ElapsedTime int            `json:"elapsed_time"`
	TotalFiles  int            `json:"total_files"`
}

// StatusSnapshot captures status, progress and timing in one coherent read.
func (r *Run) StatusSnapshot(now time.Time) StatusSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	elapsed := 0
	if !r.startedAt.IsZero() {
		elapsed = int(now.Sub(r.startedAt).Seconds())
	}

	return StatusSnapshot{
		AnalysisID:         string(r.ID),
		Status:             r.status,
		Progress:           r.progress,
		CurrentFile:        r.currentFile,
		CompletedFiles:     r.completedFiles,
		TotalFiles:         r.totalFiles,
		SelectedFilesCount: r.selectedFiles,
		ElapsedTime:        elapsed,
		EstimatedRemaining: r.estimateRemainingLocked(now),
		LiveSummary:        r.summary,
		UpdatedAt:          now,
	}
}

// estimateRemainingLocked extrapolates remaining seconds from the average
// time per completed step. Zero before any step has finished.
func (r *Run) estimateRemainingLocked(now time.Time) int {
	if r.startedAt.IsZero() || r.completedFiles == 0 {
		return 0
	}
	elapsed := now.Sub(r.startedAt).Seconds()
	avg := elapsed / float64(r.completedFiles)
	return int(avg * float64(r.totalFiles-r.completedFiles))
}

// ResultSnapshot returns the accumulated findings; available in any state so
// callers can render incrementally.
func (r *Run) ResultSnapshot(now time.Time) ResultSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	elapsed := 0
	var completedAt *time.Time
	if !r.completedAt.IsZero() {
		t := r.completedAt
		completedAt = &t
		if !r.startedAt.IsZero() {
			elapsed = int(r.completedAt.Sub(r.startedAt).Seconds())
		}
	} else if !r.startedAt.IsZero() {
		elapsed = int(now.Sub(r.startedAt).Seconds())
	}

	issues := make([]Finding, len(r.findings))
	for i, f := range r.findings {
		f.ID = fmt.Sprintf("%s-%d", r.ID, i)
		issues[i] = f
	}

	return ResultSnapshot{
		AnalysisID:  string(r.ID),
		Status:      r.status,
		ProjectPath: r.ProjectPath,
		Summary:     r.summary,
		Issues:      issues,
		CompletedAt: completedAt,
		ElapsedTime: elapsed,
		TotalFiles:  r.totalFiles,
	}
}

// Error returns the terminal error message, empty unless FAILED.
func (r *Run) Error() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errMsg
}

// Progress returns the current progress fraction.
func (r *Run) Progress() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}
