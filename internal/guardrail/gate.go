// Package guardrail blocks homework-completion requests and tracks
// repeat offenders through an escalating refusal ladder with a timed
// lockout.
package guardrail

import "regexp"

// homeworkPatterns are the disallowed request shapes, tested in order.
// The set deliberately over-blocks: a false positive costs the user a
// rephrase, a false negative does someone's homework.
var homeworkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(write|compose|draft)\b.{0,40}\b(essay|paper|paragraph|report|story|poem|article)\b`),
	regexp.MustCompile(`(?i)\b(solve|calculate|answer)\b.{0,40}\b(problem|equation|question|quiz|worksheet|test)\b`),
	regexp.MustCompile(`(?i)\bhow\s+(do\s+(i|you)|to)\s+(solve|answer|write)\b`),
	regexp.MustCompile(`(?i)\bdo\s+my\s+(homework|assignment|work)\b`),
	regexp.MustCompile(`(?i)\bessay\s+(about|on)\b`),
}

// IsHomeworkRequest reports whether text asks the assistant to complete
// schoolwork. It must run on the raw message before any other intent
// resolution: it is the sole gatekeeper deciding whether a violation is
// recorded.
func IsHomeworkRequest(text string) bool {
	for _, p := range homeworkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
