// Package intent defines the closed set of things a user can ask for and
// the keyword-based classifier used when no language model is available
// (or when it comes back empty-handed).
package intent

import "github.com/mtgibbs/carl/internal/temporal"

// Type classifies what a message is asking for.
type Type string

const (
	TypeGrades   Type = "grades"
	TypeMissing  Type = "missing"
	TypeZeros    Type = "zeros"
	TypeDueSoon  Type = "due_soon"
	TypeAnalysis Type = "analysis"
	TypeHelp     Type = "help"
	TypeGreeting Type = "greeting"
	TypeBlocked  Type = "blocked"
	TypeUnknown  Type = "unknown"
)

// Valid reports whether t is one of the closed intent values.
func (t Type) Valid() bool {
	switch t {
	case TypeGrades, TypeMissing, TypeZeros, TypeDueSoon, TypeAnalysis,
		TypeHelp, TypeGreeting, TypeBlocked, TypeUnknown:
		return true
	}
	return false
}

// AnalysisType narrows an analysis intent to a computation shape.
type AnalysisType string

const (
	AnalysisPercentage AnalysisType = "percentage"
	AnalysisComparison AnalysisType = "comparison"
	AnalysisSummary    AnalysisType = "summary"
	AnalysisCount      AnalysisType = "count"
)

// AnalysisRequest carries the analysis shape plus the original question,
// which free-form summarization passes through to the language model.
type AnalysisRequest struct {
	Type     AnalysisType `json:"type"`
	Question string       `json:"question"`
}

// Intent is the resolved classification of one message. Created fresh per
// message, never persisted.
type Intent struct {
	Type     Type
	Course   string // canonical subject tag, empty when no course filter
	Dates    *temporal.DateRange
	Analysis *AnalysisRequest
	Response string // pre-formed reply, set only for greeting/help/blocked
}
