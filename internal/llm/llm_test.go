package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func tagsServer(t *testing.T, models ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		type tag struct {
			Name string `json:"name"`
		}
		var tags []tag
		for _, m := range models {
			tags = append(tags, tag{Name: m})
		}
		json.NewEncoder(w).Encode(map[string]any{"models": tags})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectOllamaPicksPreferredModel(t *testing.T) {
	srv := tagsServer(t, "mistral:latest", "llama3:8b", "phi3:mini")

	avail := DetectOllama(srv.URL, "llama3")
	if !avail.Available {
		t.Fatal("daemon with models should be available")
	}
	if avail.Model != "llama3:8b" {
		t.Errorf("model = %q, want the preferred family", avail.Model)
	}
	if avail.Provider != "ollama" {
		t.Errorf("provider = %q", avail.Provider)
	}
}

func TestDetectOllamaFallsBackToFirstModel(t *testing.T) {
	srv := tagsServer(t, "mistral:latest", "phi3:mini")

	avail := DetectOllama(srv.URL, "llama3")
	if !avail.Available || avail.Model != "mistral:latest" {
		t.Errorf("avail = %+v, want first installed model", avail)
	}
}

func TestDetectOllamaUnavailable(t *testing.T) {
	// No daemon listening here.
	if avail := DetectOllama("http://127.0.0.1:1", "llama3"); avail.Available {
		t.Error("unreachable daemon should not be available")
	}

	// Daemon up but no models pulled.
	srv := tagsServer(t)
	if avail := DetectOllama(srv.URL, "llama3"); avail.Available {
		t.Error("daemon with no models should not be available")
	}
}

func TestDetect(t *testing.T) {
	srv := tagsServer(t, "llama3:8b")

	p, avail, err := Detect("ollama", srv.URL, "llama3", "")
	if err != nil || p == nil || !avail.Available {
		t.Errorf("ollama detect: p=%v avail=%+v err=%v", p, avail, err)
	}

	p, avail, err = Detect("openai", "", "gpt-4o-mini", "sk-test")
	if err != nil || p == nil || !avail.Available || avail.Model != "gpt-4o-mini" {
		t.Errorf("openai detect: avail=%+v err=%v", avail, err)
	}

	p, avail, err = Detect("openai", "", "gpt-4o-mini", "")
	if err != nil || p != nil || avail.Available {
		t.Errorf("openai without key should be unavailable, got %+v", avail)
	}

	p, avail, err = Detect("none", "", "", "")
	if err != nil || p != nil || avail.Available {
		t.Errorf("provider none: avail=%+v err=%v", avail, err)
	}

	if _, _, err = Detect("bard", "", "", ""); err == nil {
		t.Error("unsupported provider should error")
	}
}

// countingProvider records Complete calls.
type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	p.calls++
	return &CompletionResponse{Content: "ok"}, nil
}

func TestRateLimitedProviderPassesThroughUnderBudget(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, 10)

	for i := 0; i < 3; i++ {
		if _, err := p.Complete(context.Background(), CompletionRequest{}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 3 {
		t.Errorf("inner provider saw %d calls, want 3", inner.calls)
	}
	if p.Name() != "counting" {
		t.Errorf("Name() = %q, want the wrapped provider's", p.Name())
	}
}

func TestRateLimitedProviderBlocksWhenExhausted(t *testing.T) {
	inner := &countingProvider{}
	p := NewRateLimitedProvider(inner, 1)

	if _, err := p.Complete(context.Background(), CompletionRequest{}); err != nil {
		t.Fatal(err)
	}

	// The bucket is empty and refills at 1/minute, so the second call can
	// only end via its context.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Complete(ctx, CompletionRequest{}); err == nil {
		t.Fatal("expected a context error once the budget is spent")
	}
	if inner.calls != 1 {
		t.Errorf("inner provider saw %d calls, want 1", inner.calls)
	}
}

func TestDetectOpenAIWrapsWithRateLimiter(t *testing.T) {
	p, _, err := Detect("openai", "", "gpt-4o-mini", "sk-test")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*RateLimitedProvider); !ok {
		t.Errorf("openai provider is %T, want it wrapped in a rate limiter", p)
	}
}

func TestOllamaProviderComplete(t *testing.T) {
	var gotReq ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Error(err)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"{\"intent\":\"grades\"}"},"model":"llama3:8b"}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3:8b")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "classify"},
			{Role: RoleUser, Content: "how are my grades"},
		},
		JSONMode: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Content != `{"intent":"grades"}` {
		t.Errorf("content = %q", resp.Content)
	}
	if gotReq.Model != "llama3:8b" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("streaming should be disabled")
	}
	if gotReq.Format != "json" {
		t.Errorf("format = %q, want json for JSON mode", gotReq.Format)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestOllamaProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing-model")
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected an error for a 404")
	}
}
