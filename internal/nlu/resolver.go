// Package nlu resolves message intent through a language model, with a
// contract built for failure: any transport error, timeout, or malformed
// reply defers to the deterministic keyword classifier instead of
// surfacing to the user.
package nlu

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/mtgibbs/carl/internal/intent"
	"github.com/mtgibbs/carl/internal/llm"
	"github.com/mtgibbs/carl/internal/temporal"
)

// DefaultTimeout bounds one resolution call when the caller doesn't
// configure one.
const DefaultTimeout = 30 * time.Second

// Resolver asks a chat model to classify a message into the closed intent
// vocabulary.
type Resolver struct {
	provider llm.Provider
	model    string
	timeout  time.Duration

	now func() time.Time
}

// New creates a Resolver on the given provider. A non-positive timeout
// falls back to DefaultTimeout.
func New(provider llm.Provider, model string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		provider: provider,
		model:    model,
		timeout:  timeout,
		now:      time.Now,
	}
}

// reply mirrors the JSON shape the system prompt demands.
type reply struct {
	Intent     string `json:"intent"`
	Course     string `json:"course"`
	DateFilter string `json:"dateFilter"`
	Analysis   *struct {
		Type     string `json:"type"`
		Question string `json:"question"`
	} `json:"analysis"`
	Response string `json:"response"`
}

// Resolve classifies text. The second return value follows the comma-ok
// convention: false means deferred — the model was unreachable, timed out,
// produced unparseable output, or genuinely answered "unknown" — and the
// caller should run the keyword classifier instead. Resolve never returns
// an error to surface; failures here are invisible to the user.
func (r *Resolver) Resolve(ctx context.Context, text string) (*intent.Intent, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		MaxTokens:   512,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("nlu: completion failed, deferring: %v", err)
		return nil, false
	}

	var parsed reply
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &parsed); err != nil {
		log.Printf("nlu: unparseable reply, deferring: %v", err)
		return nil, false
	}

	typ := intent.Type(parsed.Intent)
	if !typ.Valid() || typ == intent.TypeUnknown {
		return nil, false
	}

	it := &intent.Intent{
		Type:     typ,
		Course:   parsed.Course,
		Response: parsed.Response,
	}
	if parsed.DateFilter != "" {
		// The date filter is a free-text hint, re-parsed locally.
		it.Dates = temporal.Extract(parsed.DateFilter, r.now())
	}
	if typ == intent.TypeAnalysis {
		a := &intent.AnalysisRequest{Type: intent.AnalysisSummary, Question: text}
		if parsed.Analysis != nil {
			switch t := intent.AnalysisType(parsed.Analysis.Type); t {
			case intent.AnalysisPercentage, intent.AnalysisComparison,
				intent.AnalysisSummary, intent.AnalysisCount:
				a.Type = t
			}
			if parsed.Analysis.Question != "" {
				a.Question = parsed.Analysis.Question
			}
		}
		it.Analysis = a
	}
	return it, true
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
