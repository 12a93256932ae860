package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codelens-ai/codelens/internal/application"
	domain "github.com/codelens-ai/codelens/internal/domain/analysis"
)

// fakeAnalyzer is a scriptable in-process analyzer.
type fakeAnalyzer struct {
	name     string
	required domain.Category
	exts     []string // empty matches everything
	findings []domain.Finding
	err      error
	panics   bool
	calls    int32
}

func (f *fakeAnalyzer) Name() string { return f.name }

func (f *fakeAnalyzer) Matches(path string) bool {
	if len(f.exts) == 0 {
		return true
	}
	for _, e := range f.exts {
		if strings.HasSuffix(path, e) {
			return true
		}
	}
	return false
}

func (f *fakeAnalyzer) RequiredCategory() (domain.Category, bool) {
	return f.required, f.required != ""
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, files []string) ([]domain.Finding, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panics {
		panic("analyzer exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.findings, nil
}

// gatedAnalyzer blocks each file until the test releases it, so pause and
// cancel can be injected at known checkpoints.
type gatedAnalyzer struct {
	name    string
	started chan string
	release chan struct{}
}

func (g *gatedAnalyzer) Name() string                              { return g.name }
func (g *gatedAnalyzer) Matches(string) bool                       { return true }
func (g *gatedAnalyzer) RequiredCategory() (domain.Category, bool) { return "", false }

func (g *gatedAnalyzer) Analyze(_ context.Context, _ string, files []string) ([]domain.Finding, error) {
	g.started <- files[0]
	<-g.release
	return nil, nil
}

func newTestService(analyzers []domain.Analyzer, cfg Config) *Service {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	return NewService(NewRunStore(), analyzers, application.SystemClock{}, cfg)
}

func waitStatus(t *testing.T, svc *Service, id domain.RunID, want domain.Status) domain.StatusSnapshot {
	t.Helper()
	var snap domain.StatusSnapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = svc.Status(id)
		return err == nil && snap.Status == want
	}, 2*time.Second, 5*time.Millisecond, "run never reached %s", want)
	return snap
}

func TestStartRejectsTooManyFiles(t *testing.T) {
	svc := newTestService(nil, Config{MaxFiles: 2})

	_, err := svc.Start("/proj", []string{"a", "b", "c"}, nil, nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 2, ve.Limit)
	assert.Equal(t, 3, ve.Count)
	assert.Equal(t, 0, svc.store.Len(), "no run registered on validation failure")
}

func TestProcessCountsPerFilePerPass(t *testing.T) {
	js := &fakeAnalyzer{name: "ESLint", exts: []string{".js"}, findings: []domain.Finding{
		{Severity: domain.SeverityHigh, Category: domain.CategoryQuality},
	}}
	all := &fakeAnalyzer{name: "CustomPattern"}
	svc := newTestService([]domain.Analyzer{js, all}, Config{})

	id, err := svc.Start("/proj", []string{"a.js", "b.py", "c.js"}, nil, nil)
	require.NoError(t, err)

	snap := waitStatus(t, svc, id, domain.StatusCompleted)
	// ESLint visits 2 files, CustomPattern visits 3.
	assert.Equal(t, 5, snap.TotalFiles)
	assert.Equal(t, 5, snap.CompletedFiles)
	assert.Equal(t, 1.0, snap.Progress)
	assert.Equal(t, 3, snap.SelectedFilesCount)
	assert.Equal(t, 2, snap.LiveSummary.High)
	assert.Equal(t, 2, snap.LiveSummary.Total)
}

func TestRequiredCategoryGatesPass(t *testing.T) {
	bandit := &fakeAnalyzer{name: "Bandit", required: domain.CategorySecurity, exts: []string{".py"}}
	all := &fakeAnalyzer{name: "CustomPattern"}
	svc := newTestService([]domain.Analyzer{bandit, all}, Config{})

	id, err := svc.Start("/proj", []string{"a.py"}, []domain.Category{domain.CategoryQuality}, nil)
	require.NoError(t, err)

	snap := waitStatus(t, svc, id, domain.StatusCompleted)
	assert.Equal(t, 1, snap.TotalFiles, "only the unconditional pass runs")
	assert.Equal(t, int32(0), atomic.LoadInt32(&bandit.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&all.calls))
}

func TestUnselectedAnalyzerSkipped(t *testing.T) {
	a := &fakeAnalyzer{name: "ESLint", exts: []string{".js"}}
	b := &fakeAnalyzer{name: "CustomPattern"}
	svc := newTestService([]domain.Analyzer{a, b}, Config{})

	id, err := svc.Start("/proj", []string{"a.js"}, nil, []string{"CustomPattern"})
	require.NoError(t, err)

	waitStatus(t, svc, id, domain.StatusCompleted)
	assert.Equal(t, int32(0), atomic.LoadInt32(&a.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.calls))
}

func TestAdapterFailureDoesNotAbortRun(t *testing.T) {
	bad := &fakeAnalyzer{name: "ESLint", err: errors.New("tool missing")}
	good := &fakeAnalyzer{name: "CustomPattern", findings: []domain.Finding{
		{Severity: domain.SeverityLow, Category: domain.CategoryQuality},
	}}
	svc := newTestService([]domain.Analyzer{bad, good}, Config{})

	id, err := svc.Start("/proj", []string{"a.js"}, nil, nil)
	require.NoError(t, err)

	snap := waitStatus(t, svc, id, domain.StatusCompleted)
	assert.Equal(t, 2, snap.CompletedFiles, "failed step still advances progress")
	assert.Equal(t, 1, snap.LiveSummary.Total)
}

func TestPanicFailsRunOnly(t *testing.T) {
	svc := newTestService([]domain.Analyzer{&fakeAnalyzer{name: "CustomPattern", panics: true}}, Config{})

	id, err := svc.Start("/proj", []string{"a.js"}, nil, nil)
	require.NoError(t, err)

	waitStatus(t, svc, id, domain.StatusFailed)
	run, ok := svc.store.Get(id)
	require.True(t, ok)
	assert.Contains(t, run.Error(), "analyzer exploded")
}

func TestPauseResumeRoundTrip(t *testing.T) {
	g := &gatedAnalyzer{name: "CustomPattern", started: make(chan string), release: make(chan struct{})}
	svc := newTestService([]domain.Analyzer{g}, Config{})

	id, err := svc.Start("/proj", []string{"a.py", "b.py"}, nil, nil)
	require.NoError(t, err)

	<-g.started
	require.NoError(t, svc.Pause(id))
	g.release <- struct{}{}

	snap := waitStatus(t, svc, id, domain.StatusPaused)
	assert.Equal(t, 1, snap.CompletedFiles, "in-flight file finishes before the pause takes hold")

	require.NoError(t, svc.Resume(id))
	<-g.started
	g.release <- struct{}{}

	snap = waitStatus(t, svc, id, domain.StatusCompleted)
	assert.Equal(t, 2, snap.CompletedFiles)
}

func TestCancelStopsAtFileBoundary(t *testing.T) {
	g := &gatedAnalyzer{name: "CustomPattern", started: make(chan string), release: make(chan struct{})}
	svc := newTestService([]domain.Analyzer{g}, Config{})

	id, err := svc.Start("/proj", []string{"a.py", "b.py", "c.py"}, nil, nil)
	require.NoError(t, err)

	<-g.started
	require.NoError(t, svc.Cancel(id))
	g.release <- struct{}{}

	snap := waitStatus(t, svc, id, domain.StatusCancelled)
	assert.Equal(t, 1, snap.CompletedFiles)
	assert.Less(t, snap.Progress, 1.0)

	// Terminal: neither resumed nor completed afterwards.
	time.Sleep(20 * time.Millisecond)
	snap, err = svc.Status(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, snap.Status)
}

func TestResultAvailableInAnyState(t *testing.T) {
	all := &fakeAnalyzer{name: "CustomPattern", findings: []domain.Finding{
		{File: "a.py", Severity: domain.SeverityMedium, Category: domain.CategoryQuality},
	}}
	svc := newTestService([]domain.Analyzer{all}, Config{})

	id, err := svc.Start("/proj", []string{"a.py"}, nil, nil)
	require.NoError(t, err)
	waitStatus(t, svc, id, domain.StatusCompleted)

	res, err := svc.Result(id)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, string(id)+"-0", res.Issues[0].ID)
	require.NotNil(t, res.CompletedAt)
}

func TestUnknownRunID(t *testing.T) {
	svc := newTestService(nil, Config{})

	_, err := svc.Status("nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = svc.Result("nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.ErrorIs(t, svc.Pause("nope"), domain.ErrRunNotFound)
	assert.ErrorIs(t, svc.Resume("nope"), domain.ErrRunNotFound)
	assert.ErrorIs(t, svc.Cancel("nope"), domain.ErrRunNotFound)
}
