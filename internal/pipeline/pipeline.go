// Package pipeline sequences every incoming chat message through the same
// fixed gauntlet: lockout check, homework safety gate, language-model
// resolution when available, keyword fallback, and finally dispatch to the
// coursework service. No step is ever skipped and no failure past the
// input check escapes as an error — the worst outcome for a request is a
// generic "can't connect" reply.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/mtgibbs/carl/internal/canvas"
	"github.com/mtgibbs/carl/internal/coursework"
	"github.com/mtgibbs/carl/internal/guardrail"
	"github.com/mtgibbs/carl/internal/intent"
	"github.com/mtgibbs/carl/internal/llm"
)

// Resolver classifies a message through a language model. The comma-ok
// result means "resolved"; false defers to the keyword classifier.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*intent.Intent, bool)
}

// Coursework is the read-only data collaborator the dispatch step pulls
// from. *coursework.Service implements it; tests use a stub.
type Coursework interface {
	CourseGrades(ctx context.Context) ([]coursework.CourseGrade, error)
	MissingAssignments(ctx context.Context) ([]canvas.Assignment, error)
	OverdueAssignments(ctx context.Context) ([]canvas.Assignment, error)
	DueBetween(ctx context.Context, from, to time.Time) ([]canvas.Assignment, error)
	ZeroGraded(ctx context.Context) ([]canvas.Assignment, error)
	AllAssignments(ctx context.Context) ([]canvas.Assignment, error)
}

// Response is the chat reply sent back to the user.
type Response struct {
	Message   string   `json:"message"`
	Data      *Payload `json:"data,omitempty"`
	LockedOut bool     `json:"lockedOut,omitempty"`
	Error     bool     `json:"error,omitempty"`
}

// Payload carries structured items alongside the text reply so clients
// can render lists.
type Payload struct {
	Type  string `json:"type"` // "courses", "assignments", or "todo"
	Items any    `json:"items"`
}

// Pipeline wires the stages together. Resolver and Summarizer may be nil:
// the pipeline then runs keyword-only, with identical external behavior
// for any query the classifier can resolve.
type Pipeline struct {
	tracker  *guardrail.Tracker
	resolver Resolver
	svc      Coursework

	// summarizer answers free-form analysis questions; nil falls back to
	// a deterministic digest.
	summarizer llm.Provider
	model      string

	now func() time.Time
}

// Option adjusts a Pipeline at construction.
type Option func(*Pipeline)

// WithResolver attaches a language-model intent resolver.
func WithResolver(r Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

// WithSummarizer attaches a chat backend for free-form analysis answers.
func WithSummarizer(provider llm.Provider, model string) Option {
	return func(p *Pipeline) {
		p.summarizer = provider
		p.model = model
	}
}

// WithClock overrides the pipeline's clock; tests pin it.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a Pipeline over the given escalation tracker and coursework
// service.
func New(tracker *guardrail.Tracker, svc Coursework, opts ...Option) *Pipeline {
	p := &Pipeline{
		tracker: tracker,
		svc:     svc,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tracker exposes the escalation tracker so the server can run sweeps.
func (p *Pipeline) Tracker() *guardrail.Tracker { return p.tracker }

// Handle runs one message through the full pipeline and always returns a
// response. Safe for concurrent calls, including from the same user.
func (p *Pipeline) Handle(ctx context.Context, userID, message string) Response {
	// 1. A locked-out user gets nothing, legitimate question or not.
	if locked, remaining := p.tracker.IsLockedOut(userID); locked {
		secs := int(remaining.Round(time.Second).Seconds())
		return Response{
			Message:   fmt.Sprintf("You're still locked out for %d more seconds. Maybe start on that assignment in the meantime?", secs),
			LockedOut: true,
		}
	}

	// 2. The safety gate runs on the raw message before anything else.
	if guardrail.IsHomeworkRequest(message) {
		return p.refuse(userID)
	}

	// 3. Language-model resolution, when a model is up.
	if p.resolver != nil {
		if it, ok := p.resolver.Resolve(ctx, message); ok {
			if it.Type == intent.TypeBlocked {
				return p.refuse(userID)
			}
			return p.dispatch(ctx, message, it)
		}
	}

	// 4. Keyword fallback.
	return p.dispatch(ctx, message, intent.Classify(message))
}

func (p *Pipeline) refuse(userID string) Response {
	ref := p.tracker.HandleViolation(userID)
	return Response{Message: ref.Message, LockedOut: ref.LockedOut}
}
