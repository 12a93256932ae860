package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/application"
	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

// Config tunes the orchestrator. Zero values fall back to defaults.
type Config struct {
	// MaxFiles is the file-count ceiling enforced at Start.
	MaxFiles int
	// PollInterval is how often a paused run re-checks its status.
	PollInterval time.Duration
	// PassTimeout bounds a single analyzer invocation so one unresponsive
	// tool cannot wedge the run.
	PassTimeout time.Duration
}

const (
	defaultMaxFiles     = 10000
	defaultPollInterval = 200 * time.Millisecond
	defaultPassTimeout  = 5 * time.Minute
)

// Service implements the orchestrator use-cases: start, status, pause,
// resume, cancel, result. Safe for concurrent use.
type Service struct {
	store     *RunStore
	analyzers []domain.Analyzer
	clock     application.Clock
	cfg       Config
}

// NewService wires the orchestrator. The analyzer slice defines the fixed
// pass order.
func NewService(store *RunStore, analyzers []domain.Analyzer, clock application.Clock, cfg Config) *Service {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = defaultPassTimeout
	}
	return &Service{store: store, analyzers: analyzers, clock: clock, cfg: cfg}
}

// Start validates the request, registers a PENDING run and schedules its
// processing in the background. Returns immediately with the run id.
func (s *Service) Start(projectPath string, files []string, categories []domain.Category, analyzerNames []string) (domain.RunID, error) {
	if len(files) > s.cfg.MaxFiles {
		return "", &domain.ValidationError{Limit: s.cfg.MaxFiles, Count: len(files)}
	}
	if len(files) > 1000 {
		logrus.Warnf("analysis requested for %d files, expect high memory use and a long run", len(files))
	}

	// Default to every registered analyzer when the caller does not choose.
	if len(analyzerNames) == 0 {
		for _, a := range s.analyzers {
			analyzerNames = append(analyzerNames, a.Name())
		}
	}

	id := domain.RunID(uuid.New().String())
	run := domain.NewRun(id, projectPath, files, categories, analyzerNames, s.clock.Now())
	s.store.Put(run)

	go s.process(run)

	return id, nil
}

// Status is a pure read for pollers.
func (s *Service) Status(id domain.RunID) (domain.StatusSnapshot, error) {
	run, ok := s.store.Get(id)
	if !ok {
		return domain.StatusSnapshot{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return run.StatusSnapshot(s.clock.Now()), nil
}

// Result returns accumulated findings in any state, supporting incremental UI.
func (s *Service) Result(id domain.RunID) (domain.ResultSnapshot, error) {
	run, ok := s.store.Get(id)
	if !ok {
		return domain.ResultSnapshot{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return run.ResultSnapshot(s.clock.Now()), nil
}

// Pause suspends a RUNNING run at its next file checkpoint. Illegal
// transitions are silent no-ops.
func (s *Service) Pause(id domain.RunID) error {
	run, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if run.Pause() {
		logrus.Infof("analysis %s paused", id)
	}
	return nil
}

// Resume restarts a PAUSED run. Illegal transitions are silent no-ops.
func (s *Service) Resume(id domain.RunID) error {
	run, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if run.Resume() {
		logrus.Infof("analysis %s resumed", id)
	}
	return nil
}

// Cancel requests termination; the processing loop observes it at the next
// file boundary. Terminal runs are left untouched.
func (s *Service) Cancel(id domain.RunID) error {
	run, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if run.Cancel() {
		logrus.Infof("analysis %s cancelled", id)
	}
	return nil
}

// pass is one analyzer's traversal of its applicable file subset.
type pass struct {
	analyzer domain.Analyzer
	files    []string
}

// process drives a run to a terminal state. Runs on its own goroutine; a
// panic here fails this run only, never the process.
func (s *Service) process(run *domain.Run) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Errorf("analysis %s failed: %v", run.ID, rec)
			run.Fail(fmt.Sprintf("%v", rec))
		}
	}()

	if !run.Begin(s.clock.Now()) {
		// Cancelled before the worker started.
		return
	}

	passes := s.applicablePasses(run)

	total := 0
	for _, p := range passes {
		total += len(p.files)
	}
	run.SetTotalSteps(total)

	logrus.Debugf("analysis %s: %d passes, %d total steps", run.ID, len(passes), total)

	for _, p := range passes {
		if !s.runPass(run, p) {
			return
		}
		// Defensive recompute keeps the summary consistent even when a
		// pass bailed out partway.
		run.RecomputeSummary()
	}

	if run.Status() == domain.StatusCancelled {
		return
	}

	run.Complete(s.clock.Now())
	logrus.Infof("analysis %s completed", run.ID)
}

// applicablePasses keeps the analyzers that are selected, have a non-empty
// file bucket, and whose required category is selected.
func (s *Service) applicablePasses(run *domain.Run) []pass {
	selected := make(map[string]bool, len(run.Analyzers))
	for _, name := range run.Analyzers {
		selected[name] = true
	}
	categories := make(map[domain.Category]bool, len(run.Categories))
	for _, c := range run.Categories {
		categories[c] = true
	}

	var passes []pass
	for _, a := range s.analyzers {
		if !selected[a.Name()] {
			continue
		}
		if required, ok := a.RequiredCategory(); ok && !categories[required] {
			continue
		}
		var bucket []string
		for _, f := range run.Files {
			if a.Matches(f) {
				bucket = append(bucket, f)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		passes = append(passes, pass{analyzer: a, files: bucket})
	}
	return passes
}

// runPass iterates one bucket file by file, honoring pause and cancel at
// each boundary. Returns false when the run must stop entirely.
func (s *Service) runPass(run *domain.Run, p pass) bool {
	name := p.analyzer.Name()
	for _, file := range p.files {
		for run.Status() == domain.StatusPaused {
			time.Sleep(s.cfg.PollInterval)
		}
		if run.Status() == domain.StatusCancelled {
			return false
		}

		run.SetCurrentFile(fmt.Sprintf("[%s] %s", name, file))

		findings := s.analyzeFile(run, p.analyzer, file)
		run.FileDone(findings)
	}
	return true
}

// analyzeFile invokes the adapter under the pass timeout. Adapter failures
// are logged per file and never abort the run.
func (s *Service) analyzeFile(run *domain.Run, a domain.Analyzer, file string) []domain.Finding {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PassTimeout)
	defer cancel()

	findings, err := a.Analyze(ctx, run.ProjectPath, []string{file})
	if err != nil {
		logrus.Warnf("%s failed on %s: %v", a.Name(), file, err)
		return nil
	}
	return findings
}
