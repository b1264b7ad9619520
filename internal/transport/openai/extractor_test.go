package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/voltlab/designdex/internal/domain/attribute"
)

func minimalTable(t *testing.T) *attribute.Table {
	t.Helper()
	tol, err := attribute.RelativeTolerance(0.05)
	if err != nil {
		t.Fatalf("RelativeTolerance: %v", err)
	}
	spec, err := attribute.NewSpec("rating_kva", attribute.Numeric, 1.0, tol, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	table, err := attribute.NewTable([]attribute.Spec{spec})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return table
}

func TestExtractParametersProviderTimeout(t *testing.T) {
	// The provider never answers; the handler returns only once the
	// client gives up and the request context is cancelled.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server cancels the request context on client disconnect
		// only after the body has been consumed.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ext := NewExtractor(&Config{
		BaseURL: srv.URL + "/v1",
		Model:   "test-model",
		Timeout: 50 * time.Millisecond,
		Table:   minimalTable(t),
		Logger:  zap.NewNop(),
	})

	start := time.Now()
	params, err := ext.ExtractParameters(context.Background(), "transformer 2500 kVA")
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("call not bounded by the configured timeout, took %v", elapsed)
	}
	if err != nil {
		t.Fatalf("expected rule-based fallback, got error: %v", err)
	}
	if params["rating_kva"] != 2500.0 {
		t.Errorf("expected rating_kva=2500 from rules, got %v", params["rating_kva"])
	}
}

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantLen int
	}{
		{"bare object", `{"rating_kva": 1000}`, 1},
		{"code fence", "```json\n{\"rating_kva\": 1000, \"vector_group\": \"Dyn11\"}\n```", 2},
		{"prose around", "Sure! Here you go: {\"rating_kva\": 630} Hope that helps.", 1},
		{"empty object", "{}", 0},
		{"no json", "I could not find any parameters.", -1},
		{"broken json", `{"rating_kva": `, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseJSONResponse(tt.content)
			if tt.wantLen < 0 {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil || len(got) != tt.wantLen {
				t.Errorf("parseJSONResponse = %v, want %d keys", got, tt.wantLen)
			}
		})
	}
}
