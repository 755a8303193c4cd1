package pipeline

import (
	"context"
	"log"
	"sort"

	"github.com/mtgibbs/carl/internal/canvas"
	"github.com/mtgibbs/carl/internal/coursework"
	"github.com/mtgibbs/carl/internal/intent"
	"github.com/mtgibbs/carl/internal/temporal"
)

const connectivityMessage = "I'm having trouble reaching Canvas right now. Give it a minute and try again."

const unknownMessage = "I'm not sure what you're asking. Try \"what's due this week?\", \"how are my grades?\", or say \"help\" to see what I can do."

// defaultDueWindowDays scopes "what's due?" when no time expression is
// given.
const defaultDueWindowDays = 7

// dispatch fetches the data a resolved intent needs and formats the reply.
// Any collaborator failure is logged and collapsed into the generic
// connectivity response; dispatch never propagates an error.
func (p *Pipeline) dispatch(ctx context.Context, message string, it *intent.Intent) Response {
	// The resolver's own range wins; otherwise run our own temporal pass
	// over the raw message.
	dates := it.Dates
	if dates == nil {
		dates = temporal.Extract(message, p.now())
	}

	switch it.Type {
	case intent.TypeGreeting, intent.TypeHelp:
		msg := it.Response
		if msg == "" {
			msg = intent.DefaultResponse(it.Type)
		}
		return Response{Message: msg}

	case intent.TypeGrades:
		grades, err := p.svc.CourseGrades(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		grades = coursework.FilterGradesBySubject(grades, it.Course)
		return Response{
			Message: formatGrades(grades, it.Course),
			Data:    &Payload{Type: "courses", Items: grades},
		}

	case intent.TypeMissing:
		// Canvas only flags an assignment missing once the teacher or a
		// policy does; union in anything past due with nothing turned in
		// so "what am I missing" never under-reports.
		missing, err := p.svc.MissingAssignments(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		overdue, err := p.svc.OverdueAssignments(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		missing = mergeAssignments(missing, overdue)
		missing = coursework.FilterBySubject(missing, it.Course)
		return Response{
			Message: formatMissing(missing),
			Data:    &Payload{Type: "assignments", Items: missing},
		}

	case intent.TypeZeros:
		zeros, err := p.svc.ZeroGraded(ctx)
		if err != nil {
			return p.connectivityFailure(err)
		}
		zeros = coursework.FilterBySubject(zeros, it.Course)
		return Response{
			Message: formatZeros(zeros),
			Data:    &Payload{Type: "assignments", Items: zeros},
		}

	case intent.TypeDueSoon:
		if dates == nil {
			now := p.now()
			dates = &temporal.DateRange{
				Start:       now,
				End:         now.AddDate(0, 0, defaultDueWindowDays),
				Description: "the next few days",
			}
		}
		due, err := p.svc.DueBetween(ctx, dates.Start, dates.End)
		if err != nil {
			return p.connectivityFailure(err)
		}
		due = coursework.FilterBySubject(due, it.Course)
		return Response{
			Message: formatDue(due, dates.Description),
			Data:    &Payload{Type: "todo", Items: due},
		}

	case intent.TypeAnalysis:
		req := it.Analysis
		if req == nil {
			req = &intent.AnalysisRequest{Type: intent.AnalysisSummary, Question: message}
		}
		return p.analyze(ctx, req, it.Course, dates)

	default:
		return Response{Message: unknownMessage}
	}
}

// mergeAssignments unions two lists by assignment ID, re-sorted soonest
// due date first (undated items last).
func mergeAssignments(a, b []canvas.Assignment) []canvas.Assignment {
	seen := make(map[int]bool, len(a))
	out := make([]canvas.Assignment, 0, len(a)+len(b))
	for _, x := range a {
		seen[x.ID] = true
		out = append(out, x)
	}
	for _, x := range b {
		if !seen[x.ID] {
			seen[x.ID] = true
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DueAt, out[j].DueAt
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.Before(*dj)
	})
	return out
}

func (p *Pipeline) connectivityFailure(err error) Response {
	log.Printf("pipeline: dispatch failed: %v", err)
	return Response{Message: connectivityMessage, Error: true}
}
