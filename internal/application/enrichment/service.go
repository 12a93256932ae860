package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/codelens-ai/codelens/internal/application"
	"github.com/codelens-ai/codelens/internal/domain/analysis"
	domain "github.com/codelens-ai/codelens/internal/domain/enrichment"
	"github.com/codelens-ai/codelens/internal/infra/ai/prompt"
)

// Config tunes the queue. Zero values fall back to defaults.
type Config struct {
	// MaxConcurrent is the admission cap: at most this many jobs hold an
	// in-flight inference call. Small on purpose, the backend is itself
	// resource-constrained.
	MaxConcurrent int
	// CacheTTL bounds how long a cached enrichment stays valid.
	CacheTTL time.Duration
	// GenerateTimeout bounds one inference call.
	GenerateTimeout time.Duration
	// Temperature and MaxTokens are passed through to the model.
	Temperature float32
	MaxTokens   int
}

const (
	defaultMaxConcurrent   = 2
	defaultCacheTTL        = 7 * 24 * time.Hour
	defaultGenerateTimeout = 2 * time.Minute
	defaultTemperature     = 0.3
	defaultMaxTokens       = 2000
)

// Service implements the enrichment queue use-cases. Safe for concurrent use;
// the cache is shared across all batches.
type Service struct {
	store  *BatchStore
	client domain.InferenceClient
	reader domain.ContentReader
	cache  *resultCache
	clock  application.Clock
	cfg    Config
}

func NewService(store *BatchStore, client domain.InferenceClient, reader domain.ContentReader, clock application.Clock, cfg Config) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = defaultGenerateTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Service{
		store:  store,
		client: client,
		reader: reader,
		cache:  newResultCache(cfg.CacheTTL),
		clock:  clock,
		cfg:    cfg,
	}
}

// CreateBatch allocates a batch in pending, not yet scheduled.
func (s *Service) CreateBatch(projectPath string, findings []analysis.Finding) domain.BatchID {
	id := domain.BatchID(uuid.New().String())
	s.store.Put(domain.NewBatch(id, projectPath, findings))
	return id
}

// ProcessBatch is the background driver: it fans out one job per finding
// under the admission cap, waits for every job to settle (successes and
// failures alike) and aggregates the final counts. A batch cancelled before
// processing starts fails fast.
func (s *Service) ProcessBatch(id domain.BatchID) error {
	batch, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}

	if !batch.BeginProcessing(s.clock.Now()) {
		if batch.Cancelled() {
			logrus.Infof("enrichment batch %s was cancelled before processing started", id)
		}
		return nil
	}

	findings := batch.Findings
	results := make([]domain.Result, len(findings))

	p := pool.New().WithMaxGoroutines(s.cfg.MaxConcurrent)
	for i, f := range findings {
		p.Go(func() {
			results[i] = s.enrich(batch, f)
			batch.Tick(s.clock.Now())
		})
	}
	p.Wait()

	batch.Finalize(results, s.clock.Now())

	snap := batch.Snapshot()
	logrus.Infof("enrichment batch %s finished: status=%s completed=%d failed=%d",
		id, snap.Status, snap.Completed, snap.Failed)
	return nil
}

// enrich handles one finding: cancellation placeholder, cache lookup, prompt
// build, inference call, response parse. Every failure lands in the result's
// error field; a single finding must never abort the batch.
func (s *Service) enrich(batch *domain.Batch, f analysis.Finding) domain.Result {
	start := s.clock.Now()
	res := domain.Result{ID: uuid.New().String(), Timestamp: start}

	// A job admitted after cancellation never contacts the backend.
	if batch.Cancelled() {
		res.Error = "analysis cancelled by user"
		return res
	}

	content, err := s.reader.ReadFile(f.File, batch.ProjectPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	key := cacheKey(content, f.File, f.Line, f.Rule)
	if cached, ok := s.cache.Get(key, s.clock.Now()); ok {
		logrus.Debugf("enrichment cache hit for %s:%d", f.File, f.Line)
		return cached
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GenerateTimeout)
	defer cancel()

	text, err := s.client.Generate(ctx, prompt.BuildAnalysisPrompt(f, content), prompt.SystemPrompt, s.cfg.Temperature, s.cfg.MaxTokens)
	if err != nil {
		res.Error = err.Error()
		res.AnalysisTime = s.clock.Now().Sub(start).Seconds()
		return res
	}

	parsed := prompt.ParseResponse(text)
	res.Summary = parsed.Summary
	res.RootCause = parsed.RootCause
	res.Impact = parsed.Impact
	res.Recommendations = parsed.Recommendations
	res.CodeExample = parsed.CodeExample
	res.AnalysisTime = s.clock.Now().Sub(start).Seconds()

	s.cache.Put(key, res, s.clock.Now())
	logrus.Debugf("enriched %s:%d in %.2fs", f.File, f.Line, res.AnalysisTime)

	return res
}

// Status is a pure read for pollers.
func (s *Service) Status(id domain.BatchID) (domain.BatchSnapshot, error) {
	batch, ok := s.store.Get(id)
	if !ok {
		return domain.BatchSnapshot{}, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	return batch.Snapshot(), nil
}

// Cancel requests termination and reports whether a transition occurred.
// Mid-flight jobs are allowed to finish; pending ones produce cancelled
// placeholders.
func (s *Service) Cancel(id domain.BatchID) (bool, error) {
	batch, ok := s.store.Get(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	cancelled := batch.Cancel(s.clock.Now())
	if cancelled {
		logrus.Infof("enrichment batch %s marked for cancellation", id)
	}
	return cancelled, nil
}

// ResultByID looks one settled result up across all known batches.
func (s *Service) ResultByID(resultID string) (domain.Result, error) {
	for _, b := range s.store.All() {
		if r, ok := b.ResultByID(resultID); ok {
			return r, nil
		}
	}
	return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrResultNotFound, resultID)
}

// EvictStale removes batches that ended more than maxAge ago and sweeps
// expired cache entries. Returns the number of evicted batches.
func (s *Service) EvictStale(maxAge time.Duration) int {
	now := s.clock.Now()
	evicted := s.store.EvictEndedBefore(now.Add(-maxAge))
	swept := s.cache.Sweep(now)
	if evicted > 0 || swept > 0 {
		logrus.Debugf("evicted %d stale batches, swept %d cache entries", evicted, swept)
	}
	return evicted
}
