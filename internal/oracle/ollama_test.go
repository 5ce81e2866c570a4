package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(generateResponse{Response: "  hello there \n", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL)
	got, err := c.Generate(context.Background(), "test-model", "say hello")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello there" {
		t.Fatalf("expected trimmed response, got %q", got)
	}
	if gotReq.Model != "test-model" || gotReq.Prompt != "say hello" {
		t.Fatalf("request not forwarded: %+v", gotReq)
	}
	if gotReq.Stream {
		t.Fatal("streaming must be disabled")
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL)
	if _, err := c.Generate(context.Background(), "missing", "hi"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestGenerateRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect
		// and cancel r.Context when the test's deadline fires.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewOllamaClient(srv.URL)
	start := time.Now()
	if _, err := c.Generate(ctx, "slow", "hi"); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("call did not respect context deadline")
	}
}
