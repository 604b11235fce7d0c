package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeEngine struct {
	name        string
	available   bool
	initErr     error
	classifyErr error
	result      ClassificationResult
	initCalls   int
}

func (f *fakeEngine) Name() string    { return f.name }
func (f *fakeEngine) Available() bool { return f.available }
func (f *fakeEngine) Initialize(ctx context.Context) error {
	f.initCalls++
	return f.initErr
}
func (f *fakeEngine) Classify(ctx context.Context, text string) (ClassificationResult, error) {
	if f.classifyErr != nil {
		return ClassificationResult{}, f.classifyErr
	}
	return f.result, nil
}
func (f *fakeEngine) AddDocument(ctx context.Context, req IndexRequest) error { return nil }
func (f *fakeEngine) RemoveDocument(ctx context.Context, documentID, userID string) error {
	return nil
}
func (f *fakeEngine) ListDocuments(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (f *fakeEngine) Search(ctx context.Context, query, userID string, k int) ([]SearchHit, error) {
	return nil, nil
}
func (f *fakeEngine) Answer(ctx context.Context, question, userID string) (AnswerResult, error) {
	return AnswerResult{}, nil
}
func (f *fakeEngine) Info() Info {
	return Info{Name: f.name, Available: f.available}
}

func newTestRegistry(engines ...*fakeEngine) *Registry {
	reg := NewRegistry()
	for _, e := range engines {
		eng := e
		reg.Register(eng.name, func() (Engine, error) { return eng, nil })
	}
	return reg
}

func TestRegistryCachesInitializedEngines(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEngine{name: "primary", available: true}
	reg := newTestRegistry(fake)

	if _, err := reg.Get(ctx, "primary"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := reg.Get(ctx, "primary"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if fake.initCalls != 1 {
		t.Fatalf("initCalls = %d, want 1", fake.initCalls)
	}
}

func TestRegistryDoesNotCacheFailedInit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEngine{name: "flaky", initErr: errors.New("no credentials")}
	reg := newTestRegistry(fake)

	if _, err := reg.Get(ctx, "flaky"); err == nil {
		t.Fatal("expected init error")
	}

	// A later attempt retries initialization instead of serving a broken
	// cached instance.
	fake.initErr = nil
	if _, err := reg.Get(ctx, "flaky"); err != nil {
		t.Fatalf("retry get: %v", err)
	}
	if fake.initCalls != 2 {
		t.Fatalf("initCalls = %d, want 2", fake.initCalls)
	}
}

func TestRegistryUnknownEngine(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestRouterClassifyPreferredEngine(t *testing.T) {
	primary := &fakeEngine{
		name:      "primary",
		available: true,
		result: ClassificationResult{
			DocumentType:   "Invoice",
			Confidence:     1.4,
			AnalysisMethod: "llm",
		},
	}
	secondary := &fakeEngine{name: "secondary", available: true}
	router := NewRouter(newTestRegistry(primary, secondary), "primary", []string{"primary", "secondary"})

	got := router.Classify(context.Background(), "invoice text")
	if got.EngineUsed != "primary" {
		t.Fatalf("engine used = %s, want primary", got.EngineUsed)
	}
	if got.DocumentType != "invoice" {
		t.Fatalf("document type = %s, want invoice", got.DocumentType)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamped to 1.0", got.Confidence)
	}
	if got.FallbackReason != "" {
		t.Fatalf("unexpected fallback reason %q", got.FallbackReason)
	}
}

func TestRouterClassifyFallsBack(t *testing.T) {
	primary := &fakeEngine{
		name:        "primary",
		available:   true,
		classifyErr: errors.New("rate limited"),
	}
	secondary := &fakeEngine{
		name:      "secondary",
		available: true,
		result: ClassificationResult{
			DocumentType:   "contract",
			Confidence:     0.8,
			AnalysisMethod: "keyword",
		},
	}
	router := NewRouter(newTestRegistry(primary, secondary), "primary", []string{"primary", "secondary"})

	got := router.Classify(context.Background(), "contract text")
	if got.EngineUsed != "secondary" {
		t.Fatalf("engine used = %s, want secondary", got.EngineUsed)
	}
	if got.FallbackReason == "" {
		t.Fatal("expected fallback reason to be set")
	}
}

func TestRouterClassifyNoEngines(t *testing.T) {
	primary := &fakeEngine{name: "primary", available: false}
	router := NewRouter(newTestRegistry(primary), "primary", []string{"primary"})

	got := router.Classify(context.Background(), "text")
	if got.DocumentType != "unknown" {
		t.Fatalf("document type = %s, want unknown", got.DocumentType)
	}
	if got.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Confidence)
	}
	if got.AnalysisMethod != "none" {
		t.Fatalf("analysis method = %s, want none", got.AnalysisMethod)
	}
	if got.FallbackReason != "engine primary unavailable" {
		t.Fatalf("fallback reason = %q", got.FallbackReason)
	}
}

func TestRouterClassifyAllFailedCarriesLastError(t *testing.T) {
	primary := &fakeEngine{name: "primary", available: true, classifyErr: errors.New("rate limited")}
	secondary := &fakeEngine{name: "secondary", available: true, classifyErr: errors.New("model offline")}
	router := NewRouter(newTestRegistry(primary, secondary), "primary", []string{"primary", "secondary"})

	got := router.Classify(context.Background(), "text")
	if got.DocumentType != "unknown" {
		t.Fatalf("document type = %s, want unknown", got.DocumentType)
	}
	if !strings.Contains(got.FallbackReason, "model offline") {
		t.Fatalf("fallback reason = %q, want the last engine error", got.FallbackReason)
	}
}

func TestRouterClassifyEmptyRegistry(t *testing.T) {
	router := NewRouter(NewRegistry(), "", nil)

	got := router.Classify(context.Background(), "text")
	if got.FallbackReason != "no_engine_available" {
		t.Fatalf("fallback reason = %q", got.FallbackReason)
	}
}

func TestRouterSwitchEngine(t *testing.T) {
	primary := &fakeEngine{name: "primary", available: true}
	secondary := &fakeEngine{name: "secondary", available: true}
	offline := &fakeEngine{name: "offline", available: false}
	router := NewRouter(newTestRegistry(primary, secondary, offline), "primary", []string{"primary", "secondary", "offline"})

	if err := router.SwitchEngine(context.Background(), "secondary"); err != nil {
		t.Fatalf("switch to secondary: %v", err)
	}
	if router.Preferred() != "secondary" {
		t.Fatalf("preferred = %s, want secondary", router.Preferred())
	}

	if err := router.SwitchEngine(context.Background(), "offline"); err == nil {
		t.Fatal("expected error switching to unavailable engine")
	}
	if err := router.SwitchEngine(context.Background(), "nope"); err == nil {
		t.Fatal("expected error switching to unknown engine")
	}
	if router.Preferred() != "secondary" {
		t.Fatalf("preferred changed after failed switch: %s", router.Preferred())
	}
}

func TestNormalizeDocumentType(t *testing.T) {
	cases := map[string]DocumentType{
		"invoice":          TypeInvoice,
		"  Invoice  ":      TypeInvoice,
		"CV":               TypeResume,
		"agreement":        TypeContract,
		"purchase order":   TypeUnknown,
		"":                 TypeUnknown,
		"random gibberish": TypeUnknown,
	}
	for label, want := range cases {
		if got := NormalizeDocumentType(label); got != want {
			t.Errorf("NormalizeDocumentType(%q) = %s, want %s", label, got, want)
		}
	}
}

func TestRouterSearchNoEngineReturnsEmpty(t *testing.T) {
	offline := &fakeEngine{name: "offline", available: false}
	router := NewRouter(newTestRegistry(offline), "offline", []string{"offline"})

	hits, engineName, err := router.Search(context.Background(), "anything", "alice", 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %v, want empty", hits)
	}
	if engineName != "none" {
		t.Fatalf("engine = %s, want none", engineName)
	}
}

func TestRouterAnswerNoEngineCanonical(t *testing.T) {
	offline := &fakeEngine{name: "offline", available: false}
	router := NewRouter(newTestRegistry(offline), "offline", []string{"offline"})

	answer, err := router.Answer(context.Background(), "what is this", "alice")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.EngineUsed != "none" {
		t.Fatalf("engine used = %s, want none", answer.EngineUsed)
	}
	if answer.Answer == "" {
		t.Fatal("expected a canonical answer message")
	}
}
