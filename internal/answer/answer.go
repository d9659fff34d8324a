// Package answer classifies free-text student answers against the set of
// acceptable correct options for a question. Matching is a local heuristic:
// an exact pass over the correct options followed by a partial pass that
// counts significant words of the option appearing inside the student text.
package answer

import "strings"

// Label is the three-way correctness classification.
type Label string

const (
	LabelCorrect          Label = "correct"
	LabelIncorrect        Label = "incorrect"
	LabelPartiallyCorrect Label = "partially_correct"
)

// Evaluation is the verdict for one submitted answer.
type Evaluation struct {
	IsCorrect bool  `json:"is_correct"`
	Label     Label `json:"label"`
}

// significantLen is the minimum token length (exclusive) for a word to
// anchor partial-credit matching. Shorter tokens behave like stopwords.
const significantLen = 3

// Evaluate classifies studentText against the options at correctIndices.
//
// The student text is trimmed and lowercased. An exact match with any
// correct option is Correct. Otherwise each correct option is tokenized
// and the answer is PartiallyCorrect when at least half (rounded up) of
// the option's significant tokens occur as substrings of the student
// text; the first option satisfying this wins. Anything else, including
// empty input, is Incorrect.
//
// An option whose tokens are all short has no significant tokens and can
// never partially match. That is intentional: such options ("d", "4")
// only count when matched exactly.
func Evaluate(studentText string, options []string, correctIndices []int) Evaluation {
	t := normalize(studentText)
	if t == "" {
		return Evaluation{IsCorrect: false, Label: LabelIncorrect}
	}

	for _, idx := range correctIndices {
		if idx < 0 || idx >= len(options) {
			continue
		}
		if normalize(options[idx]) == t {
			return Evaluation{IsCorrect: true, Label: LabelCorrect}
		}
	}

	for _, idx := range correctIndices {
		if idx < 0 || idx >= len(options) {
			continue
		}
		significant := significantTokens(normalize(options[idx]))
		if len(significant) == 0 {
			continue
		}
		hits := 0
		for _, word := range significant {
			if strings.Contains(t, word) {
				hits++
			}
		}
		// ceil(n/2) without floats.
		if hits >= (len(significant)+1)/2 {
			return Evaluation{IsCorrect: false, Label: LabelPartiallyCorrect}
		}
	}

	return Evaluation{IsCorrect: false, Label: LabelIncorrect}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// significantTokens splits s into words and keeps those longer than
// significantLen runes. Word characters are ASCII letters, digits, and
// the extended Latin letters of the source locale.
func significantTokens(s string) []string {
	words := strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) })
	var significant []string
	for _, w := range words {
		if len([]rune(w)) > significantLen {
			significant = append(significant, w)
		}
	}
	return significant
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case 'ç', 'ğ', 'ı', 'ö', 'ş', 'ü', 'Ç', 'Ğ', 'İ', 'Ö', 'Ş', 'Ü':
		return true
	}
	return false
}
