package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appanalysis "github.com/codelens-ai/codelens/internal/application/analysis"
	appenrichment "github.com/codelens-ai/codelens/internal/application/enrichment"
	domanalysis "github.com/codelens-ai/codelens/internal/domain/analysis"
	domenrichment "github.com/codelens-ai/codelens/internal/domain/enrichment"
	"github.com/codelens-ai/codelens/internal/infra/filescan"
	"github.com/codelens-ai/codelens/internal/middleware"
)

type Router struct {
	analysisSvc   *appanalysis.Service
	enrichmentSvc *appenrichment.Service
	client        domenrichment.InferenceClient
	scanner       *filescan.Scanner
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimit      int // requests per second per client, 0 disables
	RateBurst      int
}

func NewRouter(analysisSvc *appanalysis.Service, enrichmentSvc *appenrichment.Service, client domenrichment.InferenceClient, opts Options) http.Handler {
	r := &Router{analysisSvc: analysisSvc, enrichmentSvc: enrichmentSvc, client: client, scanner: filescan.NewScanner()}
	mux := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		mux.Use(middleware.RateLimitMiddleware(burst, opts.RateLimit))
	}

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"inference": &middleware.InferenceHealthChecker{Client: client},
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/api/scan-project", r.wrap(r.handleScanProject))
	mux.Post("/api/apply-filters", r.wrap(r.handleApplyFilters))
	mux.Post("/api/filter-config/export", r.wrap(r.handleFilterConfigExport))
	mux.Post("/api/filter-config/import", r.wrap(r.handleFilterConfigImport))

	mux.Route("/api/analysis", func(rt chi.Router) {
		rt.Post("/start", r.wrap(r.handleStart))
		rt.Get("/{id}/status", r.wrap(r.handleStatus))
		rt.Post("/{id}/pause", r.wrap(r.handlePause))
		rt.Post("/{id}/resume", r.wrap(r.handleResume))
		rt.Post("/{id}/cancel", r.wrap(r.handleCancel))
		rt.Get("/{id}/result", r.wrap(r.handleResult))
	})

	mux.Route("/api/ai", func(rt chi.Router) {
		rt.Get("/health", r.wrap(r.handleAIHealth))
		rt.Post("/initialize", r.wrap(r.handleAIInitialize))
		rt.Post("/analyze", r.wrap(r.handleAIAnalyze))
		rt.Get("/queue/{id}/status", r.wrap(r.handleQueueStatus))
		rt.Post("/queue/{id}/cancel", r.wrap(r.handleQueueCancel))
		rt.Get("/result/{resultID}", r.wrap(r.handleAIResult))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var ve *domanalysis.ValidationError
			switch {
			case errors.As(err, &ve):
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":       ve.Error(),
					"recoverable": true,
				})
			case errors.Is(err, domanalysis.ErrRunNotFound),
				errors.Is(err, domenrichment.ErrBatchNotFound),
				errors.Is(err, domenrichment.ErrResultNotFound):
				writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			case errors.Is(err, filescan.ErrPathNotFound):
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
			case errors.Is(err, filescan.ErrPermissionDenied):
				writeJSON(w, http.StatusForbidden, map[string]any{"error": err.Error(), "recoverable": true})
			default:
				logrus.Errorf("request failed: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// urlID extracts a path parameter and rejects anything that is not a
// well-formed id before touching the stores.
func urlID(w http.ResponseWriter, req *http.Request, param string) (string, bool) {
	id := chi.URLParam(req, param)
	if err := middleware.ValidateRunID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
		return "", false
	}
	return id, true
}

// POST /api/scan-project
func (r *Router) handleScanProject(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectPath string `json:"project_path"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	body.ProjectPath = middleware.SanitizeString(body.ProjectPath)
	if err := middleware.ValidateProjectPath(body.ProjectPath); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
		return nil
	}

	tree, err := r.scanner.ScanProject(body.ProjectPath)
	if err != nil {
		return err
	}
	gitignoreRules := r.scanner.ParseGitignore(tree.Path)

	return writeJSONOK(w, map[string]any{
		"file_tree":         tree,
		"detected_language": r.scanner.DetectLanguage(tree.Path),
		"total_files":       tree.CountFiles(),
		"gitignore_found":   len(gitignoreRules) > 0,
	})
}

// POST /api/apply-filters
func (r *Router) handleApplyFilters(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectPath  string                `json:"project_path"`
		FilterConfig filescan.FilterConfig `json:"filter_config"`
	}
	body.FilterConfig.UsePresets = true
	body.FilterConfig.UseGitignore = true
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	body.ProjectPath = middleware.SanitizeString(body.ProjectPath)
	if err := middleware.ValidateProjectPath(body.ProjectPath); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
		return nil
	}

	tree, err := r.scanner.ScanProject(body.ProjectPath)
	if err != nil {
		return err
	}

	cfg := body.FilterConfig
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = tree.Path
	}
	if cfg.UsePresets && len(cfg.Presets) == 0 {
		if preset, ok := filescan.LanguagePreset(r.scanner.DetectLanguage(tree.Path)); ok {
			cfg.Presets = []filescan.FilterPreset{preset}
		}
	}
	if cfg.UseGitignore && len(cfg.GitignoreRules) == 0 {
		cfg.GitignoreRules = r.scanner.ParseGitignore(tree.Path)
	}

	filteredTree, selected := filescan.ApplyFilters(tree, cfg)
	return writeJSONOK(w, map[string]any{
		"filtered_tree":       filteredTree,
		"stats":               filescan.CalculateStats(filteredTree),
		"selected_file_paths": selected,
	})
}

// POST /api/filter-config/export
func (r *Router) handleFilterConfigExport(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		FilterConfig filescan.FilterConfig `json:"filter_config"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	raw, err := json.MarshalIndent(body.FilterConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("encode filter config: %w", err)
	}
	return writeJSONOK(w, map[string]any{
		"config_json": string(raw),
		"exported_at": time.Now().UTC(),
	})
}

// POST /api/filter-config/import
func (r *Router) handleFilterConfigImport(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ConfigJSON string `json:"config_json"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	var cfg filescan.FilterConfig
	if err := json.Unmarshal([]byte(body.ConfigJSON), &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":       fmt.Sprintf("invalid filter config: %v", err),
			"recoverable": true,
		})
		return nil
	}
	return writeJSONOK(w, map[string]any{"filter_config": cfg})
}

// POST /api/analysis/start
func (r *Router) handleStart(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectPath   string   `json:"project_path"`
		SelectedFiles []string `json:"selected_files"`
		Categories    []string `json:"categories"`
		Analyzers     []string `json:"analyzers"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	body.ProjectPath = middleware.SanitizeString(body.ProjectPath)
	if err := middleware.ValidateProjectPath(body.ProjectPath); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
		return nil
	}
	if len(body.SelectedFiles) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "selected_files cannot be empty", "recoverable": true})
		return nil
	}
	for _, f := range body.SelectedFiles {
		if err := middleware.ValidateFilePath(f); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
			return nil
		}
	}
	for _, c := range body.Categories {
		if err := middleware.ValidateCategory(c); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
			return nil
		}
	}
	for _, a := range body.Analyzers {
		if err := middleware.ValidateAnalyzer(a); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "recoverable": true})
			return nil
		}
	}

	categories := make([]domanalysis.Category, 0, len(body.Categories))
	for _, c := range body.Categories {
		categories = append(categories, domanalysis.Category(c))
	}

	id, err := r.analysisSvc.Start(body.ProjectPath, body.SelectedFiles, categories, body.Analyzers)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()

	return writeJSONOK(w, map[string]any{
		"analysis_id": id,
		"status":      "started",
		"total_files": len(body.SelectedFiles),
		"queued_at":   time.Now().UTC(),
	})
}

// GET /api/analysis/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	snap, err := r.analysisSvc.Status(domanalysis.RunID(id))
	if err != nil {
		return err
	}
	return writeJSONOK(w, snap)
}

// POST /api/analysis/{id}/pause
func (r *Router) handlePause(w http.ResponseWriter, req *http.Request) error {
	raw, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	id := domanalysis.RunID(raw)
	if err := r.analysisSvc.Pause(id); err != nil {
		return err
	}
	return writeJSONOK(w, map[string]any{"analysis_id": id, "status": "pause_requested"})
}

// POST /api/analysis/{id}/resume
func (r *Router) handleResume(w http.ResponseWriter, req *http.Request) error {
	raw, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	id := domanalysis.RunID(raw)
	if err := r.analysisSvc.Resume(id); err != nil {
		return err
	}
	return writeJSONOK(w, map[string]any{"analysis_id": id, "status": "resume_requested"})
}

// POST /api/analysis/{id}/cancel
func (r *Router) handleCancel(w http.ResponseWriter, req *http.Request) error {
	raw, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	id := domanalysis.RunID(raw)
	if err := r.analysisSvc.Cancel(id); err != nil {
		return err
	}
	return writeJSONOK(w, map[string]any{"analysis_id": id, "status": "cancel_requested"})
}

// GET /api/analysis/{id}/result
func (r *Router) handleResult(w http.ResponseWriter, req *http.Request) error {
	id, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	snap, err := r.analysisSvc.Result(domanalysis.RunID(id))
	if err != nil {
		return err
	}
	return writeJSONOK(w, snap)
}

// GET /api/ai/health
func (r *Router) handleAIHealth(w http.ResponseWriter, req *http.Request) error {
	h := r.client.HealthCheck(req.Context())
	status := http.StatusOK
	if !h.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status":           h.Status,
		"available_models": h.Models,
		"error":            h.Err,
	})
	return nil
}

// POST /api/ai/initialize
func (r *Router) handleAIInitialize(w http.ResponseWriter, req *http.Request) error {
	h := r.client.HealthCheck(req.Context())
	if !h.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "inference service is not available",
		})
		return nil
	}

	model, ok := r.client.SelectBestModel(req.Context())
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":            "no suitable code model installed",
			"available_models": h.Models,
		})
		return nil
	}

	logrus.Infof("inference model initialized: %s", model)
	return writeJSONOK(w, map[string]any{
		"status": "initialized",
		"model":  model,
	})
}

// POST /api/ai/analyze
func (r *Router) handleAIAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ProjectPath string               `json:"project_path"`
		Issues      []domanalysis.Finding `json:"issues"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if len(body.Issues) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "issues cannot be empty", "recoverable": true})
		return nil
	}

	id := r.enrichmentSvc.CreateBatch(body.ProjectPath, body.Issues)
	middleware.IncrementBatches()

	go func() {
		if err := r.enrichmentSvc.ProcessBatch(id); err != nil {
			logrus.Errorf("enrichment batch %s: %v", id, err)
		}
	}()

	return writeJSONOK(w, map[string]any{
		"queue_id":     id,
		"status":       "pending",
		"total_issues": len(body.Issues),
	})
}

// GET /api/ai/queue/{id}/status
func (r *Router) handleQueueStatus(w http.ResponseWriter, req *http.Request) error {
	id, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	snap, err := r.enrichmentSvc.Status(domenrichment.BatchID(id))
	if err != nil {
		return err
	}
	return writeJSONOK(w, snap)
}

// POST /api/ai/queue/{id}/cancel
func (r *Router) handleQueueCancel(w http.ResponseWriter, req *http.Request) error {
	raw, ok := urlID(w, req, "id")
	if !ok {
		return nil
	}
	id := domenrichment.BatchID(raw)
	cancelled, err := r.enrichmentSvc.Cancel(id)
	if err != nil {
		return err
	}
	return writeJSONOK(w, map[string]any{
		"queue_id":  id,
		"cancelled": cancelled,
	})
}

// GET /api/ai/result/{resultID}
func (r *Router) handleAIResult(w http.ResponseWriter, req *http.Request) error {
	id, ok := urlID(w, req, "resultID")
	if !ok {
		return nil
	}
	res, err := r.enrichmentSvc.ResultByID(id)
	if err != nil {
		return err
	}
	return writeJSONOK(w, res)
}

func writeJSONOK(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
