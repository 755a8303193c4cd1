package pipeline

import (
	"fmt"
	"strings"

	"github.com/mtgibbs/carl/internal/canvas"
	"github.com/mtgibbs/carl/internal/coursework"
)

// listLimit caps how many items get spelled out in the text reply; the
// full set still travels in the structured payload.
const listLimit = 10

func formatGrades(grades []coursework.CourseGrade, subject string) string {
	if len(grades) == 0 {
		if subject != "" {
			return fmt.Sprintf("I couldn't find a %s course in your active enrollments.", subject)
		}
		return "I couldn't find any active courses with grades yet."
	}

	var b strings.Builder
	if subject != "" && len(grades) == 1 {
		g := grades[0]
		if g.Score == nil {
			return fmt.Sprintf("%s doesn't have a published grade yet.", g.Name)
		}
		fmt.Fprintf(&b, "You're at %.1f%%", *g.Score)
		if g.Grade != "" {
			fmt.Fprintf(&b, " (%s)", g.Grade)
		}
		fmt.Fprintf(&b, " in %s.", g.Name)
		return b.String()
	}

	b.WriteString("Here's where you stand:\n")
	for _, g := range grades {
		if g.Score == nil {
			fmt.Fprintf(&b, "- %s: no grade posted yet\n", g.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s: %.1f%%", g.Name, *g.Score)
		if g.Grade != "" {
			fmt.Fprintf(&b, " (%s)", g.Grade)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMissing(missing []canvas.Assignment) string {
	if len(missing) == 0 {
		return "Nothing is marked missing — you're all caught up!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %s:\n", plural(len(missing), "missing assignment"))
	writeAssignmentList(&b, missing)
	return strings.TrimRight(b.String(), "\n")
}

func formatZeros(zeros []canvas.Assignment) string {
	if len(zeros) == 0 {
		return "No zeros on the books. Nice."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %s graded at or near zero:\n", plural(len(zeros), "assignment"))
	writeAssignmentList(&b, zeros)
	b.WriteString("Turning even one of these in usually moves a grade a lot.")
	return b.String()
}

func formatDue(due []canvas.Assignment, window string) string {
	if len(due) == 0 {
		return fmt.Sprintf("Nothing is due %s. Enjoy the breathing room!", window)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what's due %s:\n", window)
	writeAssignmentList(&b, due)
	return strings.TrimRight(b.String(), "\n")
}

func writeAssignmentList(b *strings.Builder, assignments []canvas.Assignment) {
	for i, a := range assignments {
		if i == listLimit {
			fmt.Fprintf(b, "...and %d more\n", len(assignments)-listLimit)
			return
		}
		b.WriteString("- ")
		b.WriteString(a.Name)
		if a.CourseName != "" {
			fmt.Fprintf(b, " (%s)", a.CourseName)
		}
		if a.DueAt != nil {
			fmt.Fprintf(b, " — due %s", a.DueAt.Local().Format("Mon, Jan 2"))
		}
		b.WriteString("\n")
	}
}

// digest is the no-model stand-in for a free-form summary.
func digest(missing, due []canvas.Assignment) string {
	var b strings.Builder
	switch {
	case len(missing) == 0 && len(due) == 0:
		return "You're caught up and nothing is due in the next few days. Good spot to be in."
	case len(missing) > 0:
		fmt.Fprintf(&b, "Start with your missing work — %s", plural(len(missing), "assignment"))
		if first := missing[0]; first.Name != "" {
			fmt.Fprintf(&b, ", beginning with %q", first.Name)
			if first.CourseName != "" {
				fmt.Fprintf(&b, " in %s", first.CourseName)
			}
		}
		b.WriteString(". ")
	}
	if len(due) > 0 {
		fmt.Fprintf(&b, "After that, %s coming due soon", plural(len(due), "assignment"))
		if first := due[0]; first.DueAt != nil {
			fmt.Fprintf(&b, ", the first on %s", first.DueAt.Local().Format("Mon, Jan 2"))
		}
		b.WriteString(".")
	}
	return strings.TrimSpace(b.String())
}

func buildSnapshot(grades []coursework.CourseGrade, missing, due []canvas.Assignment) string {
	var b strings.Builder
	b.WriteString("Current grades:\n")
	for _, g := range grades {
		if g.Score != nil {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", g.Name, *g.Score)
		} else {
			fmt.Fprintf(&b, "- %s: not posted\n", g.Name)
		}
	}
	b.WriteString("\nMissing assignments:\n")
	if len(missing) == 0 {
		b.WriteString("- none\n")
	}
	writeAssignmentList(&b, missing)
	b.WriteString("\nDue in the next week:\n")
	if len(due) == 0 {
		b.WriteString("- none\n")
	}
	writeAssignmentList(&b, due)
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
