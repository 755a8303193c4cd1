package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mtgibbs/carl/internal/coursework"
	"github.com/mtgibbs/carl/internal/intent"
	"github.com/mtgibbs/carl/internal/llm"
	"github.com/mtgibbs/carl/internal/temporal"
)

const analysisSystemPrompt = `You are Carl, a coursework assistant for a student. Answer the student's
question using only the coursework snapshot provided. Be concrete and
brief. Encourage, don't lecture. Never offer to do any of the work.`

// analyze handles the analysis intents. Percentage, count, and comparison
// are computed directly from the data; summary goes to the language model
// with a snapshot of the student's coursework, or to a deterministic
// digest when no model is up.
func (p *Pipeline) analyze(ctx context.Context, req *intent.AnalysisRequest, subject string, dates *temporal.DateRange) Response {
	switch req.Type {
	case intent.AnalysisPercentage:
		return p.analyzePercentage(ctx, subject)
	case intent.AnalysisCount:
		return p.analyzeCount(ctx, req.Question, subject, dates)
	case intent.AnalysisComparison:
		return p.analyzeComparison(ctx)
	default:
		return p.analyzeSummary(ctx, req.Question)
	}
}

func (p *Pipeline) analyzePercentage(ctx context.Context, subject string) Response {
	missing, err := p.svc.MissingAssignments(ctx)
	if err != nil {
		return p.connectivityFailure(err)
	}
	all, err := p.svc.AllAssignments(ctx)
	if err != nil {
		return p.connectivityFailure(err)
	}
	missing = coursework.FilterBySubject(missing, subject)
	all = coursework.FilterBySubject(all, subject)

	if len(all) == 0 {
		return Response{Message: "I couldn't find any assignments to count, so there's nothing to take a percentage of."}
	}
	pct := float64(len(missing)) / float64(len(all)) * 100
	var msg string
	switch {
	case len(missing) == 0:
		msg = fmt.Sprintf("Zero percent! None of your %d assignments are missing. Keep it up.", len(all))
	case pct < 10:
		msg = fmt.Sprintf("%d of your %d assignments are missing — about %.0f%%. Very manageable.", len(missing), len(all), pct)
	default:
		msg = fmt.Sprintf("%d of your %d assignments are missing — about %.0f%%. Worth chipping away at.", len(missing), len(all), pct)
	}
	return Response{
		Message: msg,
		Data:    &Payload{Type: "assignments", Items: missing},
	}
}

func (p *Pipeline) analyzeCount(ctx context.Context, question, subject string, dates *temporal.DateRange) Response {
	lower := strings.ToLower(question)
	switch {
	case strings.Contains(lower, "missing") || strings.Contains(lower, "late") || strings.Contains(lower, "overdue"):
		missing, err := p.svc.MissingAssignments(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		missing = coursework.FilterBySubject(missing, subject)
		return Response{
			Message: fmt.Sprintf("You have %s right now.", plural(len(missing), "missing assignment")),
			Data:    &Payload{Type: "assignments", Items: missing},
		}

	case strings.Contains(lower, "zero"):
		zeros, err := p.svc.ZeroGraded(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		zeros = coursework.FilterBySubject(zeros, subject)
		return Response{
			Message: fmt.Sprintf("You have %s.", plural(len(zeros), "zero")),
			Data:    &Payload{Type: "assignments", Items: zeros},
		}

	case strings.Contains(lower, "due"):
		if dates == nil {
			now := p.now()
			dates = &temporal.DateRange{Start: now, End: now.AddDate(0, 0, defaultDueWindowDays), Description: "the next few days"}
		}
		due, err := p.svc.DueBetween(ctx, dates.Start, dates.End)
		if err != nil {
			return p.connectivityFailure(err)
		}
		due = coursework.FilterBySubject(due, subject)
		return Response{
			Message: fmt.Sprintf("You have %s due %s.", plural(len(due), "assignment"), dates.Description),
			Data:    &Payload{Type: "todo", Items: due},
		}

	default:
		all, err := p.svc.AllAssignments(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		all = coursework.FilterBySubject(all, subject)
		return Response{
			Message: fmt.Sprintf("I count %s across your active courses.", plural(len(all), "assignment")),
		}
	}
}

func (p *Pipeline) analyzeComparison(ctx context.Context) Response {
	grades, err := p.svc.CourseGrades(ctx)
	if err != nil {
		return p.connectivityFailure(err)
	}
	var scored []coursework.CourseGrade
	for _, g := range grades {
		if g.Score != nil {
			scored = append(scored, g)
		}
	}
	if len(scored) == 0 {
		return Response{Message: "None of your courses have published scores yet, so there's nothing to compare."}
	}

	// Scan rather than trust any ordering from the collaborator.
	best, worst := scored[0], scored[0]
	for _, g := range scored[1:] {
		if *g.Score > *best.Score {
			best = g
		}
		if *g.Score < *worst.Score {
			worst = g
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your strongest class is %s at %.1f%%", best.Name, *best.Score)
	if best.CourseID != worst.CourseID {
		fmt.Fprintf(&b, ", and the one that needs the most attention is %s at %.1f%%", worst.Name, *worst.Score)
	}
	b.WriteString(".")
	if *worst.Score < 70 {
		fmt.Fprintf(&b, " %s is below 70 — want to see what's missing there?", worst.Name)
	}
	return Response{
		Message: b.String(),
		Data:    &Payload{Type: "courses", Items: grades},
	}
}

// analyzeSummary answers "what should I work on" style questions. With a
// model available the coursework snapshot plus the question goes out as
// opaque natural-language text; otherwise a deterministic digest covers
// the basics.
func (p *Pipeline) analyzeSummary(ctx context.Context, question string) Response {
	now := p.now()
	missing, err := p.svc.MissingAssignments(ctx)
	if err != nil {
		return p.connectivityFailure(err)
	}
	due, err := p.svc.DueBetween(ctx, now, now.AddDate(0, 0, defaultDueWindowDays))
	if err != nil {
		return p.connectivityFailure(err)
	}
	grades, err := p.svc.CourseGrades(ctx)
	if err != nil {
		return p.connectivityFailure(err)
	}

	if p.summarizer != nil {
		snapshot := buildSnapshot(grades, missing, due)
		resp, err := p.summarizer.Complete(ctx, llm.CompletionRequest{
			Model: p.model,
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: analysisSystemPrompt},
				{Role: llm.RoleUser, Content: snapshot + "\n\nQuestion: " + question},
			},
			MaxTokens:   512,
			Temperature: 0.4,
		})
		if err != nil {
			log.Printf("pipeline: summary completion failed, using digest: %v", err)
		} else if strings.TrimSpace(resp.Content) != "" {
			return Response{Message: strings.TrimSpace(resp.Content)}
		}
	}

	return Response{Message: digest(missing, due)}
}
