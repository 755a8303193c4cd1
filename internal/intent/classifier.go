package intent

import (
	"regexp"
	"strings"
)

const helpResponse = `Here's what you can ask me:
- "how are my grades?" or "how am I doing in math?"
- "what am I missing?" or "do I have any late work?"
- "do I have any zeros?"
- "what's due this week?" (or tomorrow, next month, in March...)
- "what percentage of my work is missing?"
- "what should I work on first?"

One thing I won't do is your homework — that part's on you.`

const greetingResponse = "Hey! I'm Carl, your coursework assistant. Ask me about your grades, missing work, or what's due — or say \"help\" to see everything I can do."

var greetingPattern = regexp.MustCompile(`^\s*(hi|hello|hey|yo|sup|howdy|good\s+(morning|afternoon|evening))\b`)

// DefaultResponse returns the canned reply for the short-circuit intents,
// used when a resolver names the intent but leaves the response blank.
func DefaultResponse(t Type) string {
	switch t {
	case TypeHelp:
		return helpResponse
	case TypeGreeting:
		return greetingResponse
	}
	return ""
}

// Classify maps text to exactly one intent via ordered keyword tests.
// The order is a deliberate disambiguation policy: earlier rules win, so
// "what percentage of my work is missing" resolves to a percentage
// analysis rather than a missing-work lookup. Date extraction happens
// separately; Classify never sets Dates.
func Classify(text string) *Intent {
	lower := strings.ToLower(text)
	subject := ExtractSubject(text)

	switch {
	case containsAny(lower, "percent", "%"):
		return &Intent{
			Type:     TypeAnalysis,
			Course:   subject,
			Analysis: &AnalysisRequest{Type: AnalysisPercentage, Question: text},
		}

	case strings.Contains(lower, "how many"):
		return &Intent{
			Type:     TypeAnalysis,
			Course:   subject,
			Analysis: &AnalysisRequest{Type: AnalysisCount, Question: text},
		}

	case subject != "" && containsAny(lower, "grade", "how", "doing", "score"):
		return &Intent{Type: TypeGrades, Course: subject}

	case containsAny(lower, "grade", "gpa", "report card", "score"):
		return &Intent{Type: TypeGrades}

	case containsAny(lower, "missing", "overdue", "late", "past due", "didn't turn in", "haven't turned in"):
		return &Intent{Type: TypeMissing, Course: subject}

	case containsAny(lower, "zero", "zeros", "zeroes", "low grade"):
		return &Intent{Type: TypeZeros, Course: subject}

	case containsAny(lower, "priority", "work on", "start with", "do first", "focus on"):
		return &Intent{
			Type:     TypeAnalysis,
			Course:   subject,
			Analysis: &AnalysisRequest{Type: AnalysisSummary, Question: text},
		}

	case containsAny(lower, "risk", "failing", "in danger", "worst class"):
		return &Intent{
			Type:     TypeAnalysis,
			Course:   subject,
			Analysis: &AnalysisRequest{Type: AnalysisComparison, Question: text},
		}

	case containsAny(lower, "due", "upcoming", "this week", "today", "tomorrow", "coming up"):
		return &Intent{Type: TypeDueSoon, Course: subject}

	case containsAny(lower, "help", "what can you do", "how do you work"):
		return &Intent{Type: TypeHelp, Response: helpResponse}

	case greetingPattern.MatchString(lower):
		return &Intent{Type: TypeGreeting, Response: greetingResponse}

	default:
		return &Intent{Type: TypeUnknown}
	}
}

func containsAny(lower string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
