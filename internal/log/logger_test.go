package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentProxy, Output: &buf})

	l.Info("hello", FieldTable, "account")
	out := buf.String()
	if !strings.Contains(out, "component=proxy") || !strings.Contains(out, "table=account") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.With(FieldRequestID, "r1").WithComponent(ComponentHTTP).Warn("moved")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Fatalf("component should be replaced, got: %s", out)
	}
	if !strings.Contains(out, "request_id=r1") {
		t.Fatalf("parent attributes should be kept, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentWorker)
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Fatal("FromContext should return the stored logger")
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("fallback component = %q", got.Component())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithStatement("SELECT 1", 0).
		WithRecord("goal", 4).
		WithError(errors.New("boom")).
		WithOperation(OpSelect)
	if f[FieldSQL] != "SELECT 1" || f[FieldID] != int64(4) || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
	if _, ok := NewFields().WithError(nil)[FieldError]; ok {
		t.Fatal("nil error must not be recorded")
	}
}
