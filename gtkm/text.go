package gtkm

import (
	"regexp"
	"strings"
)

const (
	questionMarker = "QUESTION:"
	reminderMarker = "REMINDER:"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_'-]+`)

// CountWords estimates the number of words in text. Runs of letters, digits,
// underscores, apostrophes and hyphens count as one word each.
func CountWords(text string) int {
	return len(wordRe.FindAllStringIndex(text, -1))
}

// ExtractQuestions returns the text following each QUESTION: marker up to the
// next marker or the end of raw. Whitespace is left for the caller to trim.
// Text before the first marker is discarded; no marker yields nil.
func ExtractQuestions(raw string) []string {
	parts := strings.Split(raw, questionMarker)
	if len(parts) < 2 {
		return nil
	}
	return parts[1:]
}

// FilterResponses pairs questions with their answers, dropping pairs whose
// answer is blank once everything from REMINDER: onwards is cut. The kept
// answers are trimmed; order is preserved.
func FilterResponses(questions, answers []string) []Turn {
	n := min(len(questions), len(answers))
	turns := make([]Turn, 0, n)
	for i := 0; i < n; i++ {
		answer, _, _ := strings.Cut(answers[i], reminderMarker)
		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}
		turns = append(turns, Turn{Question: questions[i], Answer: answer})
	}
	return turns
}
