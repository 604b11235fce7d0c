package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docproc-backend/internal/documents"
)

func fakeMethod(name, text string, err error) Method {
	return Method{
		Name: name,
		Run: func(ctx context.Context, filePath string) (string, error) {
			return text, err
		},
	}
}

func TestExtractPDFUsesFirstSuccessfulMethod(t *testing.T) {
	e := &Extractor{
		PDFMethods: []Method{
			fakeMethod("first", "invoice number 12345", nil),
			fakeMethod("second", "should not run", nil),
		},
	}

	res := e.Extract(context.Background(), "/tmp/doc.pdf", documents.FileTypePDF)
	if !res.Ok {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Method != "first" {
		t.Fatalf("method = %s, want first", res.Method)
	}
	if res.Text != "invoice number 12345" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtractPDFFallsThroughChain(t *testing.T) {
	e := &Extractor{
		PDFMethods: []Method{
			fakeMethod("ocr", "", errors.New("render failed")),
			fakeMethod("textlayer", "ab", nil), // too short
			fakeMethod("convert", "recovered contract text", nil),
		},
	}

	res := e.Extract(context.Background(), "/tmp/doc.pdf", documents.FileTypePDF)
	if !res.Ok {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Method != "convert" {
		t.Fatalf("method = %s, want convert", res.Method)
	}
}

func TestExtractPDFAllMethodsFail(t *testing.T) {
	e := &Extractor{
		PDFMethods: []Method{
			fakeMethod("ocr", "", errors.New("render failed")),
			fakeMethod("textlayer", "", errors.New("no text layer")),
			fakeMethod("convert", "", errors.New("tool missing")),
		},
	}

	res := e.Extract(context.Background(), "/tmp/doc.pdf", documents.FileTypePDF)
	if res.Ok {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Method != "failed" {
		t.Fatalf("method = %s, want failed", res.Method)
	}
	if !strings.HasPrefix(res.Text, "Error processing PDF:") {
		t.Fatalf("placeholder missing prefix: %q", res.Text)
	}
	for _, want := range []string{"render failed", "no text layer", "tool missing"} {
		if !strings.Contains(res.Text, want) {
			t.Fatalf("placeholder missing %q: %q", want, res.Text)
		}
	}
}

func TestExtractImageFailurePlaceholder(t *testing.T) {
	e := &Extractor{
		ImageMethods: []Method{
			fakeMethod("ocr", "", errors.New("no text recognized")),
		},
	}

	res := e.Extract(context.Background(), "/tmp/scan.png", documents.FileTypePNG)
	if res.Ok {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !strings.HasPrefix(res.Text, "OCR failed to extract text:") {
		t.Fatalf("placeholder = %q", res.Text)
	}
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("  plain text contents\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	e := New()
	res := e.Extract(context.Background(), path, documents.FileTypeTXT)
	if !res.Ok {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Text != "plain text contents" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Method != "plain_text" {
		t.Fatalf("method = %s", res.Method)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := New()
	res := e.Extract(context.Background(), "/tmp/archive.zip", documents.FileTypeNotSpecified)
	if res.Ok {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.Text != "Unsupported file type: not_specified" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Method != "unsupported" {
		t.Fatalf("method = %s", res.Method)
	}
}

func TestReadTextLayerAnnotatesFailedPages(t *testing.T) {
	got, err := readTextLayer(context.Background(), 3, func(i int) (string, bool, error) {
		switch i {
		case 1:
			return "page one text", true, nil
		case 2:
			return "", true, errors.New("malformed content stream")
		default:
			return "page three text", true, nil
		}
	})
	if err != nil {
		t.Fatalf("read text layer: %v", err)
	}
	if !strings.Contains(got, "page one text") || !strings.Contains(got, "page three text") {
		t.Fatalf("readable pages missing: %q", got)
	}
	if !strings.Contains(got, "[Error reading page 2: malformed content stream]") {
		t.Fatalf("failed page not annotated: %q", got)
	}
}

func TestReadTextLayerSkipsNullPages(t *testing.T) {
	got, err := readTextLayer(context.Background(), 2, func(i int) (string, bool, error) {
		if i == 1 {
			return "", false, nil
		}
		return "only page", true, nil
	})
	if err != nil {
		t.Fatalf("read text layer: %v", err)
	}
	if strings.Contains(got, "Error reading") {
		t.Fatalf("null page annotated as error: %q", got)
	}
	if !strings.Contains(got, "only page") {
		t.Fatalf("page text missing: %q", got)
	}
}

func TestExtractHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	e := &Extractor{
		PDFMethods: []Method{
			{Name: "ocr", Run: func(ctx context.Context, filePath string) (string, error) {
				called = true
				return "text", nil
			}},
		},
	}

	res := e.Extract(ctx, "/tmp/doc.pdf", documents.FileTypePDF)
	if res.Ok {
		t.Fatalf("expected failure with cancelled context, got %+v", res)
	}
	if called {
		t.Fatal("method ran despite cancelled context")
	}
}
