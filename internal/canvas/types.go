package canvas

import "time"

// Enrollment carries the computed score Canvas attaches to a course when
// total_scores are requested.
type Enrollment struct {
	Type                 string   `json:"type"`
	ComputedCurrentScore *float64 `json:"computed_current_score"`
	ComputedCurrentGrade string   `json:"computed_current_grade"`
}

// Course is an active course enrollment.
type Course struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	CourseCode  string       `json:"course_code"`
	Enrollments []Enrollment `json:"enrollments"`
}

// CurrentScore returns the student's computed score for the course, or
// false when Canvas hasn't published one.
func (c Course) CurrentScore() (float64, bool) {
	for _, e := range c.Enrollments {
		if e.ComputedCurrentScore != nil {
			return *e.ComputedCurrentScore, true
		}
	}
	return 0, false
}

// Submission is the student's submission state for an assignment.
type Submission struct {
	Score         *float64 `json:"score"`
	WorkflowState string   `json:"workflow_state"`
	Missing       bool     `json:"missing"`
	Late          bool     `json:"late"`
}

// Assignment is one gradeable item.
type Assignment struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	CourseID       int         `json:"course_id"`
	DueAt          *time.Time  `json:"due_at"`
	PointsPossible float64     `json:"points_possible"`
	HTMLURL        string      `json:"html_url"`
	Submission     *Submission `json:"submission,omitempty"`
	// CourseName is filled in locally; Canvas doesn't return it inline.
	CourseName string `json:"course_name,omitempty"`
}

// Submitted reports whether the assignment has a turned-in submission.
func (a Assignment) Submitted() bool {
	if a.Submission == nil {
		return false
	}
	switch a.Submission.WorkflowState {
	case "submitted", "graded", "pending_review":
		return true
	}
	return false
}

// TodoItem is one entry from the user's todo feed.
type TodoItem struct {
	Type        string      `json:"type"`
	ContextName string      `json:"context_name"`
	Assignment  *Assignment `json:"assignment"`
}
