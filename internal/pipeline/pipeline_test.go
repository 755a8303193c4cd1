package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mtgibbs/carl/internal/canvas"
	"github.com/mtgibbs/carl/internal/coursework"
	"github.com/mtgibbs/carl/internal/guardrail"
	"github.com/mtgibbs/carl/internal/intent"
	"github.com/mtgibbs/carl/internal/temporal"
)

var testNow = time.Date(2026, time.March, 11, 15, 0, 0, 0, time.Local)

func ptr(f float64) *float64 { return &f }

// stubCoursework serves canned data and records whether dispatch reached
// it.
type stubCoursework struct {
	grades  []coursework.CourseGrade
	missing []canvas.Assignment
	overdue []canvas.Assignment
	due     []canvas.Assignment
	zeros   []canvas.Assignment
	all     []canvas.Assignment
	err     error

	calls        int
	overdueCalls int
	lastFrom     time.Time
	lastTo       time.Time
}

func (s *stubCoursework) CourseGrades(context.Context) ([]coursework.CourseGrade, error) {
	s.calls++
	return s.grades, s.err
}

func (s *stubCoursework) MissingAssignments(context.Context) ([]canvas.Assignment, error) {
	s.calls++
	return s.missing, s.err
}

func (s *stubCoursework) OverdueAssignments(context.Context) ([]canvas.Assignment, error) {
	s.calls++
	s.overdueCalls++
	return s.overdue, s.err
}

func (s *stubCoursework) DueBetween(_ context.Context, from, to time.Time) ([]canvas.Assignment, error) {
	s.calls++
	s.lastFrom, s.lastTo = from, to
	return s.due, s.err
}

func (s *stubCoursework) ZeroGraded(context.Context) ([]canvas.Assignment, error) {
	s.calls++
	return s.zeros, s.err
}

func (s *stubCoursework) AllAssignments(context.Context) ([]canvas.Assignment, error) {
	s.calls++
	return s.all, s.err
}

// erroringResolver fails on every call, as if the model were down.
type erroringResolver struct{ calls int }

func (r *erroringResolver) Resolve(context.Context, string) (*intent.Intent, bool) {
	r.calls++
	return nil, false
}

// fixedResolver returns one canned intent.
type fixedResolver struct{ it *intent.Intent }

func (r *fixedResolver) Resolve(context.Context, string) (*intent.Intent, bool) {
	return r.it, true
}

func newTestPipeline(svc Coursework, opts ...Option) *Pipeline {
	opts = append(opts, WithClock(func() time.Time { return testNow }))
	return New(guardrail.NewTracker(), svc, opts...)
}

func TestHomeworkRequestNeverReachesDispatch(t *testing.T) {
	svc := &stubCoursework{}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "write my essay about the civil war")
	if resp.Error {
		t.Error("refusal is not an error")
	}
	if resp.Data != nil {
		t.Error("refusal should carry no data payload")
	}
	if svc.calls != 0 {
		t.Errorf("coursework was called %d times for a blocked request", svc.calls)
	}
}

func TestEscalationAcrossFourViolations(t *testing.T) {
	svc := &stubCoursework{}
	p := newTestPipeline(svc)

	seen := map[string]bool{}
	var lockedAt int
	for i := 1; i <= 4; i++ {
		resp := p.Handle(context.Background(), "kid", "do my homework")
		if seen[resp.Message] {
			t.Errorf("violation %d repeated an earlier tier message", i)
		}
		seen[resp.Message] = true
		if resp.LockedOut {
			lockedAt = i
		}
	}
	if lockedAt != 4 {
		t.Errorf("locked out at violation %d, want 4", lockedAt)
	}
}

func TestLockedOutUserBlockedFromLegitimateQueries(t *testing.T) {
	svc := &stubCoursework{}
	p := newTestPipeline(svc)

	for i := 0; i < 4; i++ {
		p.Handle(context.Background(), "kid", "do my homework")
	}

	resp := p.Handle(context.Background(), "kid", "what's due this week?")
	if !resp.LockedOut {
		t.Error("legitimate query during lockout should still be refused")
	}
	if svc.calls != 0 {
		t.Error("locked-out query reached the coursework service")
	}
}

func TestFallbackMatchesKeywordPathWhenResolverFails(t *testing.T) {
	due := []canvas.Assignment{{Name: "Lab report", CourseName: "Biology", DueAt: &testNow}}

	resolver := &erroringResolver{}
	withNLU := newTestPipeline(&stubCoursework{due: due}, WithResolver(resolver))
	withoutNLU := newTestPipeline(&stubCoursework{due: due})

	a := withNLU.Handle(context.Background(), "kid", "what's due this week?")
	b := withoutNLU.Handle(context.Background(), "kid", "what's due this week?")

	if resolver.calls != 1 {
		t.Errorf("resolver called %d times, want 1", resolver.calls)
	}
	if a.Message != b.Message {
		t.Errorf("degraded path diverged:\n  with NLU: %q\n  without:  %q", a.Message, b.Message)
	}
	if a.Error || b.Error {
		t.Error("resolver failure must not surface as an error")
	}
}

func TestNLUBlockedIntentTriggersEscalation(t *testing.T) {
	svc := &stubCoursework{}
	resolver := &fixedResolver{it: &intent.Intent{Type: intent.TypeBlocked}}
	p := newTestPipeline(svc, WithResolver(resolver))

	resp := p.Handle(context.Background(), "kid", "subtle homework request")
	if resp.Message == "" {
		t.Fatal("expected a refusal message")
	}
	if svc.calls != 0 {
		t.Error("blocked intent reached dispatch")
	}

	// Three more and the user is locked.
	for i := 0; i < 3; i++ {
		p.Handle(context.Background(), "kid", "subtle homework request")
	}
	if locked, _ := p.Tracker().IsLockedOut("kid"); !locked {
		t.Error("NLU blocked hits should escalate to lockout")
	}
}

func TestNLUDateRangeTakesPrecedence(t *testing.T) {
	svc := &stubCoursework{}
	nluRange := &temporal.DateRange{
		Start:       time.Date(2026, time.April, 1, 0, 0, 0, 0, time.Local),
		End:         time.Date(2026, time.April, 30, 23, 59, 59, 0, time.Local),
		Description: "April 2026",
	}
	resolver := &fixedResolver{it: &intent.Intent{Type: intent.TypeDueSoon, Dates: nluRange}}
	p := newTestPipeline(svc, WithResolver(resolver))

	// The raw message says "today", but the resolver's range wins.
	p.Handle(context.Background(), "kid", "what's due today?")
	if !svc.lastFrom.Equal(nluRange.Start) || !svc.lastTo.Equal(nluRange.End) {
		t.Errorf("dispatch used %v..%v, want the resolver's range", svc.lastFrom, svc.lastTo)
	}
}

func TestOrchestratorDateFallbackWhenNLUOmitsRange(t *testing.T) {
	svc := &stubCoursework{}
	resolver := &fixedResolver{it: &intent.Intent{Type: intent.TypeDueSoon}}
	p := newTestPipeline(svc, WithResolver(resolver))

	p.Handle(context.Background(), "kid", "what's due tomorrow?")
	if svc.lastFrom.Day() != 12 || svc.lastTo.Day() != 12 {
		t.Errorf("dispatch used %v..%v, want tomorrow's day range", svc.lastFrom, svc.lastTo)
	}
}

func TestDispatchErrorBecomesConnectivityMessage(t *testing.T) {
	svc := &stubCoursework{err: errors.New("canvas returned status 503")}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "how are my grades?")
	if !resp.Error {
		t.Error("collaborator failure should set the error flag")
	}
	if resp.Message != connectivityMessage {
		t.Errorf("message = %q, want the generic connectivity reply", resp.Message)
	}
}

func TestMissingDispatchIncludesPastDueUnsubmitted(t *testing.T) {
	missing := []canvas.Assignment{{ID: 1, Name: "Worksheet 4", CourseName: "Algebra I"}}
	overdue := []canvas.Assignment{
		// Flagged missing by Canvas too; must not be double counted.
		{ID: 1, Name: "Worksheet 4", CourseName: "Algebra I"},
		// Past due and unsubmitted but never flagged by the teacher.
		{ID: 2, Name: "Lab report", CourseName: "Biology"},
	}

	for _, text := range []string{"anything overdue?", "what's past due?", "do I have late work"} {
		svc := &stubCoursework{missing: missing, overdue: overdue}
		p := newTestPipeline(svc)

		resp := p.Handle(context.Background(), "kid", text)
		if svc.overdueCalls == 0 {
			t.Errorf("Handle(%q) never consulted past-due work", text)
			continue
		}
		if !strings.Contains(resp.Message, "2 missing assignments") {
			t.Errorf("Handle(%q) = %q, want the union of both lists (2 items)", text, resp.Message)
		}
		if !strings.Contains(resp.Message, "Lab report") {
			t.Errorf("Handle(%q) = %q, want the unflagged past-due item included", text, resp.Message)
		}
	}
}

func TestGradesDispatch(t *testing.T) {
	svc := &stubCoursework{grades: []coursework.CourseGrade{
		{CourseID: 1, Name: "Algebra I", Score: ptr(91.2), Grade: "A-"},
		{CourseID: 2, Name: "Biology", Score: ptr(77.5), Grade: "C+"},
	}}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "how are my grades?")
	if !strings.Contains(resp.Message, "Algebra I") || !strings.Contains(resp.Message, "91.2") {
		t.Errorf("message %q should list courses with scores", resp.Message)
	}
	if resp.Data == nil || resp.Data.Type != "courses" {
		t.Errorf("payload = %+v, want courses", resp.Data)
	}
}

func TestCourseFilteredGrades(t *testing.T) {
	svc := &stubCoursework{grades: []coursework.CourseGrade{
		{CourseID: 1, Name: "Algebra I", Score: ptr(91.2), Grade: "A-"},
		{CourseID: 2, Name: "Biology", Score: ptr(77.5), Grade: "C+"},
	}}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "how am I doing in math?")
	if !strings.Contains(resp.Message, "91.2") {
		t.Errorf("message %q should carry the algebra score", resp.Message)
	}
	if strings.Contains(resp.Message, "Biology") {
		t.Errorf("message %q leaked the unfiltered course list", resp.Message)
	}
}

func TestPercentageAnalysis(t *testing.T) {
	missing := []canvas.Assignment{{Name: "Worksheet 4", CourseName: "Algebra I"}}
	all := make([]canvas.Assignment, 10)
	svc := &stubCoursework{missing: missing, all: all}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "what percentage of my work is missing?")
	if resp.Error {
		t.Fatalf("unexpected error response: %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "10%") && !strings.Contains(resp.Message, "1 of your 10") {
		t.Errorf("message %q should report 1 of 10 (10%%)", resp.Message)
	}
}

func TestComparisonAnalysisWithUnorderedGrades(t *testing.T) {
	// Deliberately not sorted by score; the comparison must find the
	// extremes itself.
	svc := &stubCoursework{grades: []coursework.CourseGrade{
		{CourseID: 1, Name: "Biology", Score: ptr(77.5)},
		{CourseID: 2, Name: "Algebra I", Score: ptr(91.2)},
		{CourseID: 3, Name: "Art", Score: ptr(62.0)},
		{CourseID: 4, Name: "PE"},
	}}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "am I failing any classes?")
	if !strings.Contains(resp.Message, "Algebra I") || !strings.Contains(resp.Message, "91.2") {
		t.Errorf("message %q should name the strongest class", resp.Message)
	}
	if !strings.Contains(resp.Message, "Art") || !strings.Contains(resp.Message, "62.0") {
		t.Errorf("message %q should name the weakest class", resp.Message)
	}
	if !strings.Contains(resp.Message, "below 70") {
		t.Errorf("message %q should flag the below-70 course", resp.Message)
	}
}

func TestGreetingShortCircuit(t *testing.T) {
	svc := &stubCoursework{}
	p := newTestPipeline(svc)

	resp := p.Handle(context.Background(), "kid", "hey carl")
	if resp.Message == "" || resp.Error {
		t.Errorf("greeting response missing: %+v", resp)
	}
	if svc.calls != 0 {
		t.Error("greeting should not hit the coursework service")
	}
}

func TestUnknownIntentSuggestsHelp(t *testing.T) {
	p := newTestPipeline(&stubCoursework{})
	resp := p.Handle(context.Background(), "kid", "tell me about turtles")
	if !strings.Contains(resp.Message, "help") {
		t.Errorf("unknown reply %q should point at help", resp.Message)
	}
}

func TestDueSoonDefaultWindow(t *testing.T) {
	svc := &stubCoursework{}
	p := newTestPipeline(svc)

	p.Handle(context.Background(), "kid", "anything coming up?")
	want := testNow.AddDate(0, 0, defaultDueWindowDays)
	if !svc.lastFrom.Equal(testNow) || !svc.lastTo.Equal(want) {
		t.Errorf("default window = %v..%v, want now..+%dd", svc.lastFrom, svc.lastTo, defaultDueWindowDays)
	}
}
