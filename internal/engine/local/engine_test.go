package local

import (
	"context"
	"strings"
	"testing"

	"docproc-backend/internal/engine"
	"docproc-backend/internal/vectorstore/localdisk"
)

const invoiceText = `INVOICE
Invoice Number: INV-2024-0042
Bill To: Acme Corp
Subtotal: $1,200.00
Tax: $96.00
Amount Due: $1,296.00
Payment due 01/15/2024.`

const resumeText = `Jane Doe
Objective: senior software engineer role.
Experience: eight years building distributed systems.
Education: BSc Computer Science.
Skills: Go, Postgres, Kubernetes.
References available on request.`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := localdisk.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	eng := NewEngine(store)
	if err := eng.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return eng
}

func TestClassifyInvoice(t *testing.T) {
	eng := newTestEngine(t)

	got, err := eng.Classify(context.Background(), invoiceText)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.DocumentType != "invoice" {
		t.Fatalf("document type = %s, want invoice", got.DocumentType)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Fatalf("confidence = %v, want in (0, 1]", got.Confidence)
	}
	if got.AnalysisMethod != "keyword" {
		t.Fatalf("analysis method = %s", got.AnalysisMethod)
	}
	if got.KeyInformation == nil {
		t.Fatal("expected key information")
	}
	if _, ok := got.KeyInformation["amounts"]; !ok {
		t.Fatalf("expected amounts in key information, got %v", got.KeyInformation)
	}
	if _, ok := got.KeyInformation["dates"]; !ok {
		t.Fatalf("expected dates in key information, got %v", got.KeyInformation)
	}
}

func TestClassifyExtractsDates(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"iso", "Invoice #123 Total: $50.00, Due 2024-01-01", []string{"2024-01-01"}},
		{"slash", "Payment due 01/15/2024.", []string{"01/15/2024"}},
		{"dash", "Delivered 15-01-24 as agreed.", []string{"15-01-24"}},
		{"mixed", "Issued 2024-01-01, payable by 02/01/2024.", []string{"2024-01-01", "02/01/2024"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.text)
			dates, ok := got.KeyInformation["dates"].([]string)
			if !ok {
				t.Fatalf("dates missing from key information: %v", got.KeyInformation)
			}
			if len(dates) != len(tc.want) {
				t.Fatalf("dates = %v, want %v", dates, tc.want)
			}
			for i := range tc.want {
				if dates[i] != tc.want[i] {
					t.Fatalf("dates[%d] = %q, want %q", i, dates[i], tc.want[i])
				}
			}
		})
	}
}

func TestClassifyResume(t *testing.T) {
	eng := newTestEngine(t)

	got, err := eng.Classify(context.Background(), resumeText)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.DocumentType != "resume" {
		t.Fatalf("document type = %s, want resume", got.DocumentType)
	}
}

func TestClassifyGibberish(t *testing.T) {
	eng := newTestEngine(t)

	got, err := eng.Classify(context.Background(), "zzz qqq xxx")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.DocumentType != "unknown" {
		t.Fatalf("document type = %s, want unknown", got.DocumentType)
	}
	if got.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", got.Confidence)
	}
}

func TestAddSearchAnswer(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	err := eng.AddDocument(ctx, engine.IndexRequest{
		DocumentID: "doc-1",
		UserID:     "alice",
		Text:       "The quarterly revenue grew by twelve percent. Operating costs remained flat. The board approved a new hiring plan.",
	})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}

	hits, err := eng.Search(ctx, "revenue growth", "alice", 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].DocumentID != "doc-1" {
		t.Fatalf("hit document = %s", hits[0].DocumentID)
	}

	ans, err := eng.Answer(ctx, "what happened to revenue?", "alice")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(strings.ToLower(ans.Answer), "revenue") {
		t.Fatalf("answer does not mention revenue: %q", ans.Answer)
	}
	if ans.EngineUsed != "local" {
		t.Fatalf("engine used = %s", ans.EngineUsed)
	}
	if len(ans.Sources) == 0 {
		t.Fatal("expected sources")
	}
}

func TestAnswerWithNoDocuments(t *testing.T) {
	eng := newTestEngine(t)

	ans, err := eng.Answer(context.Background(), "anything?", "nobody")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !strings.Contains(ans.Answer, "No documents") {
		t.Fatalf("answer = %q", ans.Answer)
	}
}

func TestReindexReplacesChunks(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	req := engine.IndexRequest{DocumentID: "doc-1", UserID: "alice", Text: "first version of the text"}
	if err := eng.AddDocument(ctx, req); err != nil {
		t.Fatalf("first add: %v", err)
	}
	req.Text = "second version of the text"
	if err := eng.AddDocument(ctx, req); err != nil {
		t.Fatalf("second add: %v", err)
	}

	hits, err := eng.Search(ctx, "version text", "alice", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, hit := range hits {
		if strings.Contains(hit.Content, "first version") {
			t.Fatalf("stale chunk survived re-index: %q", hit.Content)
		}
	}
}

func TestEmbedDeterministic(t *testing.T) {
	a := embed("the invoice total is due")
	b := embed("the invoice total is due")
	if len(a) != embedDim || len(b) != embedDim {
		t.Fatalf("dims = %d, %d, want %d", len(a), len(b), embedDim)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d", i)
		}
	}
}
