package intent

import "strings"

// subjectAliases maps spoken course names to a canonical subject tag.
// Multi-word aliases are listed so "language arts" normalizes before the
// single-word scan would miss it.
var subjectAliases = []struct {
	alias   string
	subject string
}{
	{"language arts", "english"},
	{"social studies", "history"},
	{"computer science", "computer"},
	{"physical education", "pe"},
	{"mathematics", "math"},
	{"math", "math"},
	{"algebra", "math"},
	{"geometry", "math"},
	{"calculus", "math"},
	{"science", "science"},
	{"biology", "science"},
	{"chemistry", "science"},
	{"physics", "science"},
	{"english", "english"},
	{"literature", "english"},
	{"ela", "english"},
	{"history", "history"},
	{"spanish", "spanish"},
	{"french", "french"},
	{"art", "art"},
	{"music", "music"},
	{"band", "music"},
	{"gym", "pe"},
	{"pe", "pe"},
	{"computer", "computer"},
	{"coding", "computer"},
	{"programming", "computer"},
}

// ExtractSubject scans text for a known course alias and returns its
// canonical subject tag, or "" when no subject is mentioned.
func ExtractSubject(text string) string {
	lower := strings.ToLower(text)
	words := tokenSet(lower)
	for _, entry := range subjectAliases {
		if strings.Contains(entry.alias, " ") {
			if strings.Contains(lower, entry.alias) {
				return entry.subject
			}
			continue
		}
		if words[entry.alias] {
			return entry.subject
		}
	}
	return ""
}

// tokenSet splits on non-letter runes so short aliases like "pe" and "art"
// only match as whole words.
func tokenSet(lower string) map[string]bool {
	set := make(map[string]bool)
	word := strings.Builder{}
	flush := func() {
		if word.Len() > 0 {
			set[word.String()] = true
			word.Reset()
		}
	}
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return set
}
