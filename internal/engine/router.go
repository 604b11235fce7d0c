package engine

import (
	"context"
	"fmt"
	"sync"

	"docproc-backend/internal/shared/metrics"
	"docproc-backend/internal/shared/telemetry"
)

// Router selects which engine serves each request. Classification cascades
// across engines in preference order; vector operations always go to the
// active engine because each engine owns its own store.
type Router struct {
	registry *Registry

	mu        sync.RWMutex
	preferred string
	order     []string
}

// NewRouter constructs a Router. order lists engine names by priority; the
// preferred engine is tried first regardless of its position in order.
func NewRouter(registry *Registry, preferred string, order []string) *Router {
	return &Router{
		registry:  registry,
		preferred: preferred,
		order:     order,
	}
}

// Preferred returns the currently preferred engine name.
func (r *Router) Preferred() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.preferred
}

// candidates returns engine names with the preferred engine first and the
// rest in priority order.
func (r *Router) candidates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.order))
	if r.preferred != "" {
		out = append(out, r.preferred)
	}
	for _, name := range r.order {
		if name != r.preferred {
			out = append(out, name)
		}
	}
	return out
}

// SwitchEngine changes the preferred engine. The target must be registered
// and currently available.
func (r *Router) SwitchEngine(ctx context.Context, name string) error {
	if !r.registry.Has(name) {
		return fmt.Errorf("unknown engine: %s", name)
	}
	eng, err := r.registry.Get(ctx, name)
	if err != nil {
		return err
	}
	if !eng.Available() {
		return fmt.Errorf("engine %s is not available: %w", name, ErrUnavailable)
	}

	r.mu.Lock()
	r.preferred = name
	r.mu.Unlock()

	telemetry.Info("engine.switched", map[string]any{"engine": name})
	return nil
}

// Active returns the first engine, in preference order, that is available.
func (r *Router) Active(ctx context.Context) (Engine, error) {
	for _, name := range r.candidates() {
		eng, err := r.registry.Get(ctx, name)
		if err != nil {
			continue
		}
		if eng.Available() {
			return eng, nil
		}
	}
	return nil, ErrUnavailable
}

// AvailableEngines returns every registered engine that reports available,
// in preference order. Used by maintenance tasks that must touch each
// engine's store, not just the active one.
func (r *Router) AvailableEngines(ctx context.Context) []Engine {
	var out []Engine
	seen := make(map[string]bool)
	for _, name := range r.candidates() {
		if seen[name] {
			continue
		}
		seen[name] = true
		eng, err := r.registry.Get(ctx, name)
		if err != nil || !eng.Available() {
			continue
		}
		out = append(out, eng)
	}
	return out
}

// Classify runs classification with cascading fallback. Results are tagged
// with the engine that produced them; a result from a non-preferred engine
// carries the reason the preferred one was skipped. When every engine fails
// the result is a well-formed unknown carrying the last failure, never an
// error.
func (r *Router) Classify(ctx context.Context, text string) ClassificationResult {
	var firstReason, lastReason string

	for _, name := range r.candidates() {
		eng, err := r.registry.Get(ctx, name)
		if err != nil {
			r.recordFallback(name, fmt.Sprintf("engine %s failed to initialize", name), &firstReason, &lastReason)
			continue
		}
		if !eng.Available() {
			r.recordFallback(name, fmt.Sprintf("engine %s unavailable", name), &firstReason, &lastReason)
			continue
		}

		result, err := eng.Classify(ctx, text)
		if err != nil {
			r.recordFallback(name, fmt.Sprintf("engine %s error: %v", name, err), &firstReason, &lastReason)
			continue
		}

		result.DocumentType = string(NormalizeDocumentType(result.DocumentType))
		result.Confidence = ClampConfidence(result.Confidence)
		result.EngineUsed = name
		if firstReason != "" && result.FallbackReason == "" {
			result.FallbackReason = firstReason
		}
		return result
	}

	reason := lastReason
	if reason == "" {
		reason = "no_engine_available"
	}
	return ClassificationResult{
		DocumentType:   string(TypeUnknown),
		Confidence:     0,
		AnalysisMethod: "none",
		FallbackReason: reason,
	}
}

// Search delegates to the active engine only; there is no cross-engine
// fallback because each engine owns its own index. No active engine yields
// an empty result set, not an error.
func (r *Router) Search(ctx context.Context, query, userID string, k int) ([]SearchHit, string, error) {
	eng, err := r.Active(ctx)
	if err != nil {
		return []SearchHit{}, "none", nil
	}
	hits, err := eng.Search(ctx, query, userID, k)
	if err != nil {
		return nil, eng.Name(), err
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return hits, eng.Name(), nil
}

// Answer delegates to the active engine only. No active engine yields a
// canonical answer, not an error.
func (r *Router) Answer(ctx context.Context, question, userID string) (AnswerResult, error) {
	eng, err := r.Active(ctx)
	if err != nil {
		return AnswerResult{
			Answer:     "No AI engine is currently available.",
			EngineUsed: "none",
		}, nil
	}
	return eng.Answer(ctx, question, userID)
}

// recordFallback notes the first and last failure reasons and counts the
// fallback. The first tags a downgraded success; the last survives into the
// all-failed result.
func (r *Router) recordFallback(engineName, reason string, first, last *string) {
	if *first == "" {
		*first = reason
	}
	*last = reason
	metrics.IncEngineFallback()
	telemetry.Warn("engine.fallback", map[string]any{
		"engine": engineName,
		"reason": reason,
	})
}

// Infos returns engine descriptions in priority order, marking which one is
// preferred.
func (r *Router) Infos(ctx context.Context) []Info {
	var out []Info
	seen := make(map[string]bool)
	for _, name := range r.candidates() {
		if seen[name] {
			continue
		}
		seen[name] = true
		eng, err := r.registry.Get(ctx, name)
		if err != nil {
			out = append(out, Info{Name: name, Available: false, Description: "failed to initialize"})
			continue
		}
		out = append(out, eng.Info())
	}
	return out
}
