// Package coursework composes the raw Canvas endpoints into the read
// operations the chat pipeline dispatches on: grades, missing work,
// overdue work, upcoming deadlines, and zero-graded assignments.
package coursework

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mtgibbs/carl/internal/canvas"
)

// nearZeroFraction: a graded score at or below this share of the points
// possible counts as "a zero" for the student's purposes.
const nearZeroFraction = 0.05

// CanvasAPI is the slice of the Canvas client the service needs. Tests
// substitute a stub.
type CanvasAPI interface {
	ActiveCourses(ctx context.Context) ([]canvas.Course, error)
	MissingSubmissions(ctx context.Context) ([]canvas.Assignment, error)
	Todo(ctx context.Context) ([]canvas.TodoItem, error)
	CourseAssignments(ctx context.Context, courseID int) ([]canvas.Assignment, error)
}

// CourseGrade is one course with its current standing.
type CourseGrade struct {
	CourseID int      `json:"course_id"`
	Name     string   `json:"name"`
	Code     string   `json:"code"`
	Score    *float64 `json:"score,omitempty"`
	Grade    string   `json:"grade,omitempty"`
}

// Service answers coursework questions against a Canvas backend.
type Service struct {
	api CanvasAPI
	now func() time.Time
}

// New creates a Service over the given Canvas API.
func New(api CanvasAPI) *Service {
	return &Service{api: api, now: time.Now}
}

// CourseGrades returns every active course with its current score, highest
// first; courses without a published score sort last.
func (s *Service) CourseGrades(ctx context.Context) ([]CourseGrade, error) {
	courses, err := s.api.ActiveCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching courses: %w", err)
	}

	grades := make([]CourseGrade, 0, len(courses))
	for _, c := range courses {
		g := CourseGrade{CourseID: c.ID, Name: c.Name, Code: c.CourseCode}
		for _, e := range c.Enrollments {
			if e.ComputedCurrentScore != nil {
				g.Score = e.ComputedCurrentScore
				g.Grade = e.ComputedCurrentGrade
				break
			}
		}
		grades = append(grades, g)
	}

	sort.SliceStable(grades, func(i, j int) bool {
		gi, gj := grades[i].Score, grades[j].Score
		if gi == nil {
			return false
		}
		if gj == nil {
			return true
		}
		return *gi > *gj
	})
	return grades, nil
}

// MissingAssignments returns work Canvas has flagged missing, soonest due
// date first.
func (s *Service) MissingAssignments(ctx context.Context) ([]canvas.Assignment, error) {
	missing, err := s.api.MissingSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching missing submissions: %w", err)
	}
	if err := s.annotateCourseNames(ctx, missing); err != nil {
		return nil, err
	}
	sortByDueDate(missing)
	return missing, nil
}

// OverdueAssignments scans every course for assignments past their due
// date with nothing turned in. This is broader than the missing flag:
// Canvas only marks an assignment missing once the teacher or a policy
// does, while an unsubmitted past-due item is overdue immediately.
func (s *Service) OverdueAssignments(ctx context.Context) ([]canvas.Assignment, error) {
	all, err := s.AllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var overdue []canvas.Assignment
	for _, a := range all {
		if a.DueAt != nil && a.DueAt.Before(now) && !a.Submitted() {
			overdue = append(overdue, a)
		}
	}
	sortByDueDate(overdue)
	return overdue, nil
}

// DueBetween returns todo items due within [from, to], soonest first.
func (s *Service) DueBetween(ctx context.Context, from, to time.Time) ([]canvas.Assignment, error) {
	items, err := s.api.Todo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching todo items: %w", err)
	}

	var due []canvas.Assignment
	for _, item := range items {
		if item.Assignment == nil || item.Assignment.DueAt == nil {
			continue
		}
		d := *item.Assignment.DueAt
		if d.Before(from) || d.After(to) {
			continue
		}
		a := *item.Assignment
		if a.CourseName == "" {
			a.CourseName = item.ContextName
		}
		due = append(due, a)
	}
	sortByDueDate(due)
	return due, nil
}

// ZeroGraded returns graded assignments scored at or near zero.
func (s *Service) ZeroGraded(ctx context.Context) ([]canvas.Assignment, error) {
	all, err := s.AllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	var zeros []canvas.Assignment
	for _, a := range all {
		sub := a.Submission
		if sub == nil || sub.Score == nil || a.PointsPossible <= 0 {
			continue
		}
		if *sub.Score == 0 || *sub.Score/a.PointsPossible <= nearZeroFraction {
			zeros = append(zeros, a)
		}
	}
	sortByDueDate(zeros)
	return zeros, nil
}

// AllAssignments returns every assignment across active courses with the
// course name filled in.
func (s *Service) AllAssignments(ctx context.Context) ([]canvas.Assignment, error) {
	courses, err := s.api.ActiveCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching courses: %w", err)
	}

	var all []canvas.Assignment
	for _, c := range courses {
		assignments, err := s.api.CourseAssignments(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching assignments for %s: %w", c.Name, err)
		}
		for _, a := range assignments {
			a.CourseName = c.Name
			all = append(all, a)
		}
	}
	return all, nil
}

// subjectKeywords expands a canonical subject tag into the course-name
// fragments schools actually use. "math" has to find "Algebra I".
var subjectKeywords = map[string][]string{
	"math":     {"math", "algebra", "geometry", "calculus", "statistics"},
	"science":  {"science", "biology", "chemistry", "physics"},
	"english":  {"english", "language arts", "literature", "ela"},
	"history":  {"history", "social studies", "civics", "government"},
	"spanish":  {"spanish"},
	"french":   {"french"},
	"art":      {"art"},
	"music":    {"music", "band", "orchestra", "choir"},
	"pe":       {"pe", "physical education", "gym", "health"},
	"computer": {"computer", "coding", "programming", "tech"},
}

func matchesSubject(courseName, subject string) bool {
	name := strings.ToLower(courseName)
	keywords, ok := subjectKeywords[subject]
	if !ok {
		return strings.Contains(name, strings.ToLower(subject))
	}
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// FilterBySubject keeps assignments whose course matches the given
// canonical subject tag. An empty subject keeps everything.
func FilterBySubject(assignments []canvas.Assignment, subject string) []canvas.Assignment {
	if subject == "" {
		return assignments
	}
	var out []canvas.Assignment
	for _, a := range assignments {
		if matchesSubject(a.CourseName, subject) {
			out = append(out, a)
		}
	}
	return out
}

// FilterGradesBySubject keeps courses matching the subject tag.
func FilterGradesBySubject(grades []CourseGrade, subject string) []CourseGrade {
	if subject == "" {
		return grades
	}
	var out []CourseGrade
	for _, g := range grades {
		if matchesSubject(g.Name+" "+g.Code, subject) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Service) annotateCourseNames(ctx context.Context, assignments []canvas.Assignment) error {
	needed := false
	for _, a := range assignments {
		if a.CourseName == "" {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	courses, err := s.api.ActiveCourses(ctx)
	if err != nil {
		return fmt.Errorf("fetching courses: %w", err)
	}
	names := make(map[int]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	for i := range assignments {
		if assignments[i].CourseName == "" {
			assignments[i].CourseName = names[assignments[i].CourseID]
		}
	}
	return nil
}

func sortByDueDate(assignments []canvas.Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		di, dj := assignments[i].DueAt, assignments[j].DueAt
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.Before(*dj)
	})
}
