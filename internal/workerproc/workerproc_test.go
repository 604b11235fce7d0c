package workerproc

import (
	"context"
	"errors"
	"testing"

	"docproc-backend/internal/queue"
)

type stubProcessor struct {
	calls []string
	err   error
}

func (s *stubProcessor) Process(ctx context.Context, documentID, userID string) error {
	s.calls = append(s.calls, documentID+"/"+userID)
	return s.err
}

func validBody(t *testing.T) string {
	t.Helper()
	payload, err := queue.EncodeMessage(queue.Message{
		DocumentID: "doc-1",
		UserID:     "alice",
		RequestID:  "req-1",
		Version:    1,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(payload)
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("got %T, want ErrEmptyBody", err)
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("got %T, want ErrDecode", err)
	}
	if meta.BodyLen != len("{not json") {
		t.Fatalf("body len = %d", meta.BodyLen)
	}
	if meta.BodySHA == "" {
		t.Fatal("expected body hash")
	}
}

func TestParseMessageMissingFields(t *testing.T) {
	payload, _ := queue.EncodeMessage(queue.Message{RequestID: "req-1"})
	_, _, err := ParseMessage(string(payload))
	var missingErr ErrMissingFields
	if !errors.As(err, &missingErr) {
		t.Fatalf("got %T, want ErrMissingFields", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("request id = %s", missingErr.RequestID)
	}
}

func TestHandleMessageProcesses(t *testing.T) {
	proc := &stubProcessor{}
	if err := HandleMessage(context.Background(), proc, validBody(t)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(proc.calls) != 1 || proc.calls[0] != "doc-1/alice" {
		t.Fatalf("calls = %v", proc.calls)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	cause := errors.New("db down")
	proc := &stubProcessor{err: cause}

	err := HandleMessage(context.Background(), proc, validBody(t))
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("got %T, want ErrProcess", err)
	}
	if procErr.DocumentID != "doc-1" || procErr.UserID != "alice" {
		t.Fatalf("identity = %s/%s", procErr.DocumentID, procErr.UserID)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
}
