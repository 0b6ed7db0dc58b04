package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asy251189/HarmonyGuard/pkg/analyzer"
	"github.com/asy251189/HarmonyGuard/pkg/cache"
	"github.com/asy251189/HarmonyGuard/pkg/classifier"
	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/decision"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/ensemble"
	"github.com/asy251189/HarmonyGuard/pkg/lexicon"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
	"github.com/asy251189/HarmonyGuard/pkg/segment"
)

// Global detection service instance
var globalDetectionService *DetectionService

// DetectRequest is one text to score.
type DetectRequest struct {
	Text              string               `json:"text"`
	LanguageHints     []string             `json:"languages,omitempty"`
	Thresholds        *detection.Thresholds `json:"-"`
	IncludeHighlights bool                 `json:"include_highlights"`

	// Context is opaque caller metadata, logged for auditability only.
	Context map[string]string `json:"context,omitempty"`
}

// DetectResponse is the EnsembleResult plus the decision and timing.
type DetectResponse struct {
	detection.EnsembleResult
	Decision         detection.Decision `json:"decision"`
	ProcessingTimeMs float64            `json:"processing_time_ms"`
}

// DetectionService runs the full pipeline: normalize, segment, match,
// context-adjust, combine with the external classifier, decide.
type DetectionService struct {
	cfg        *config.DetectorConfig
	normalizer *normalize.Normalizer
	segmenter  *segment.Segmenter
	store      *lexicon.Store
	analyzer   *analyzer.Analyzer
	combiner   *ensemble.Combiner
	engine     *decision.Engine
	classifier classifier.Classifier // nil when disabled
	cache      cache.Backend
}

// NewDetectionService wires the pipeline from configuration.
func NewDetectionService(cfg *config.DetectorConfig, store *lexicon.Store, clf classifier.Classifier, cacheBackend cache.Backend) (*DetectionService, error) {
	engine, err := decision.NewEngine(detection.Thresholds{
		AllowBelow:     cfg.Thresholds.AllowBelow,
		BlockAtOrAbove: cfg.Thresholds.BlockAtOrAbove,
	})
	if err != nil {
		return nil, err
	}

	service := &DetectionService{
		cfg:        cfg,
		normalizer: normalize.New(cfg.MaxTextLength),
		segmenter:  segment.New(cfg.SupportedLanguages),
		store:      store,
		analyzer:   analyzer.New(cfg.Analyzer),
		combiner:   ensemble.New(cfg.LabelFloor),
		engine:     engine,
		classifier: clf,
		cache:      cacheBackend,
	}
	// Set as global service for API access
	globalDetectionService = service
	return service, nil
}

// GetGlobalDetectionService returns the global detection service instance.
func GetGlobalDetectionService() *DetectionService {
	return globalDetectionService
}

// Store exposes the lexicon store for health reporting and reload endpoints.
func (s *DetectionService) Store() *lexicon.Store { return s.store }

// SupportedLanguages returns the configured language codes.
func (s *DetectionService) SupportedLanguages() []string { return s.cfg.SupportedLanguages }

// Defaults returns the configured decision thresholds.
func (s *DetectionService) Defaults() detection.Thresholds { return s.engine.Defaults() }

// CheckHealth reports component status for the health endpoint.
func (s *DetectionService) CheckHealth(ctx context.Context) map[string]string {
	status := map[string]string{
		"lexicon":    fmt.Sprintf("%d languages", len(s.store.Snapshot().Languages())),
		"classifier": "disabled",
		"cache":      "disabled",
	}
	if s.classifier != nil {
		status["classifier"] = "enabled"
	}
	if s.cache != nil && s.cache.IsEnabled() {
		if err := s.cache.CheckConnection(ctx); err != nil {
			status["cache"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			status["cache"] = "ok"
		}
	}
	return status
}

// pipelineState carries one item's intermediate results between the lexicon
// stages and the classifier/combine stages.
type pipelineState struct {
	norm     *normalize.Result
	segs     []detection.LanguageSegment
	dets     []detection.Detection
	langs    []string
	cached   *cache.Entry
	cacheKey string
}

// Detect scores a single text. Threshold validation happens before any
// detection work.
func (s *DetectionService) Detect(ctx context.Context, req DetectRequest) (*DetectResponse, error) {
	start := time.Now()

	thresholds, err := s.engine.Resolve(req.Thresholds)
	if err != nil {
		return nil, err
	}

	st, err := s.prepare(ctx, req, thresholds)
	if err != nil {
		return nil, err
	}
	if st.cached != nil {
		resp := s.respond(st.cached.Result, st.cached.Decision, start)
		return &resp, nil
	}

	mlScore, mlSpans, mlAvailable, degraded, err := s.classifyOne(ctx, st, req.LanguageHints)
	if err != nil {
		return nil, err
	}

	resp := s.finish(ctx, req, st, thresholds, mlScore, mlSpans, mlAvailable, degraded, start)
	return &resp, nil
}

// DetectBatch scores up to Batch.MaxItems texts, preserving input order. The
// size limit and every item's thresholds are validated before any item is
// processed. Items run in parallel across a bounded worker pool; the
// classifier sees the whole batch as one ordered call.
func (s *DetectionService) DetectBatch(ctx context.Context, reqs []DetectRequest) ([]DetectResponse, error) {
	if len(reqs) > s.cfg.Batch.MaxItems {
		return nil, &detection.BatchTooLargeError{Size: len(reqs), Limit: s.cfg.Batch.MaxItems}
	}
	metrics.BatchSize.Observe(float64(len(reqs)))
	start := time.Now()

	thresholds := make([]detection.Thresholds, len(reqs))
	for i := range reqs {
		th, err := s.engine.Resolve(reqs[i].Thresholds)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		thresholds[i] = th
	}

	states := make([]*pipelineState, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Batch.MaxWorkers)
	for i := range reqs {
		g.Go(func() error {
			st, err := s.prepare(gctx, reqs[i], thresholds[i])
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// One ordered classifier call for every item the cache did not cover.
	var pending []int
	var batch []classifier.Request
	for i, st := range states {
		if st.cached != nil {
			continue
		}
		pending = append(pending, i)
		batch = append(batch, classifier.Request{
			Text:          st.norm.Text(),
			LanguageHints: reqs[i].LanguageHints,
		})
	}

	mlAvailable, degraded := false, false
	var scores []classifier.Score
	if s.classifier != nil && len(batch) > 0 {
		var err error
		scores, err = s.classifier.Classify(ctx, batch)
		switch {
		case err == nil:
			mlAvailable = true
		case classifier.IsTransient(err):
			degraded = true
		default:
			// A fatal classifier error fails the whole batch rather than
			// returning partially scored results.
			return nil, err
		}
	}

	out := make([]DetectResponse, len(reqs))
	for k, i := range pending {
		score := classifier.Score{}
		if mlAvailable {
			score = scores[k]
		}
		out[i] = s.finish(ctx, reqs[i], states[i], thresholds[i], score.Severity, score.Spans, mlAvailable, degraded, start)
	}
	for i, st := range states {
		if st.cached != nil {
			out[i] = s.respond(st.cached.Result, st.cached.Decision, start)
		}
	}
	return out, nil
}

// prepare runs the cache lookup and the lexicon-side stages: normalize,
// segment, match, context-adjust.
func (s *DetectionService) prepare(ctx context.Context, req DetectRequest, thresholds detection.Thresholds) (*pipelineState, error) {
	st := &pipelineState{}

	if s.cache != nil && s.cache.IsEnabled() {
		st.cacheKey = cache.Key(req.Text, req.LanguageHints, thresholds, req.IncludeHighlights)
		if entry, ok, err := s.cache.Get(ctx, st.cacheKey); err == nil && ok {
			st.cached = entry
			return st, nil
		}
	}

	norm, err := s.normalizer.Normalize(req.Text)
	if err != nil {
		return nil, err
	}
	st.norm = norm

	hints := s.filterHints(req.LanguageHints)
	st.segs = s.segmenter.Segment(norm, hints)
	st.langs = segment.DetectedLanguages(st.segs)

	matcher := lexicon.NewMatcher(s.store.Snapshot(), s.cfg.Lexicon.MaxEditDistance, s.cfg.Lexicon.MinFuzzyLength)
	st.dets = matcher.Match(norm, st.segs)
	st.dets = s.analyzer.Apply(norm, st.dets)
	return st, nil
}

// classifyOne wraps a single text in a one-item batch for the external
// scoring service.
func (s *DetectionService) classifyOne(ctx context.Context, st *pipelineState, hints []string) (float64, []classifier.SpanScore, bool, bool, error) {
	if s.classifier == nil {
		return 0, nil, false, false, nil
	}
	scores, err := s.classifier.Classify(ctx, []classifier.Request{{
		Text:          st.norm.Text(),
		LanguageHints: hints,
	}})
	if err != nil {
		if classifier.IsTransient(err) {
			return 0, nil, false, true, nil
		}
		return 0, nil, false, false, err
	}
	return scores[0].Severity, scores[0].Spans, true, false, nil
}

// finish combines all evidence, decides, records metrics and stores the
// result in the cache.
func (s *DetectionService) finish(ctx context.Context, req DetectRequest, st *pipelineState, thresholds detection.Thresholds, mlScore float64, mlSpans []classifier.SpanScore, mlAvailable, degraded bool, start time.Time) DetectResponse {
	result := s.combiner.Combine(ensemble.Input{
		Detections:        st.dets,
		MLScore:           mlScore,
		MLSpans:           mlSpans,
		MLAvailable:       mlAvailable,
		Degraded:          degraded,
		Norm:              st.norm,
		DetectedLanguages: st.langs,
		FlagThreshold:     thresholds.AllowBelow,
		IncludeHighlights: req.IncludeHighlights,
	})
	verdict := s.engine.Decide(result.SeverityScore, thresholds)

	elapsed := time.Since(start)
	metrics.RecordDecision(string(verdict), elapsed.Seconds())
	if len(req.Context) > 0 {
		logging.Debugf("detection decided %s (severity=%.3f) for context %v", verdict, result.SeverityScore, req.Context)
	}

	if s.cache != nil && s.cache.IsEnabled() && st.cacheKey != "" && !degraded {
		entry := &cache.Entry{Result: result, Decision: verdict, CreatedAt: time.Now()}
		if err := s.cache.Set(ctx, st.cacheKey, entry); err != nil {
			logging.Warnf("result cache store failed: %v", err)
		}
	}

	return s.respondWithElapsed(result, verdict, elapsed)
}

func (s *DetectionService) respond(result detection.EnsembleResult, verdict detection.Decision, start time.Time) DetectResponse {
	return s.respondWithElapsed(result, verdict, time.Since(start))
}

func (s *DetectionService) respondWithElapsed(result detection.EnsembleResult, verdict detection.Decision, elapsed time.Duration) DetectResponse {
	return DetectResponse{
		EnsembleResult:   result,
		Decision:         verdict,
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000,
	}
}

// filterHints drops unsupported language hints with a warning instead of
// failing the request.
func (s *DetectionService) filterHints(hints []string) []string {
	if len(hints) == 0 {
		return nil
	}
	supported := map[string]bool{}
	for _, l := range s.cfg.SupportedLanguages {
		supported[l] = true
	}
	var out []string
	for _, h := range hints {
		if supported[h] {
			out = append(out, h)
			continue
		}
		logging.Warnf("ignoring unsupported language hint %q", h)
	}
	return out
}
