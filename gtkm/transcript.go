package gtkm

import (
	"strings"
)

// Assemble packs turns into a training example. The last turn is held out:
// its question closes the instruction as an unanswered prompt and its answer
// becomes the response. Earlier turns are added oldest first while the running
// word count, which starts at the preamble's, stays within maxWords; the first
// turn that would overflow ends the selection.
func Assemble(preamble string, turns []Turn, maxWords int) (Example, error) {
	if len(turns) == 0 {
		return Example{}, ErrNoTurns
	}
	last := turns[len(turns)-1]

	words := CountWords(preamble)
	lines := make([]string, 0, len(turns))
	for _, t := range turns[:len(turns)-1] {
		cost := CountWords(t.Question) + CountWords(t.Answer)
		if words+cost > maxWords {
			break
		}
		lines = append(lines, renderTurn(t.Question, t.Answer))
		words += cost
	}
	lines = append(lines, renderTurn(last.Question, ""))

	return Example{
		Category:             Category,
		Instruction:          strings.TrimSpace(preamble) + "\n" + strings.Join(lines, "\n"),
		Response:             strings.TrimSpace(last.Answer),
		SkipPromptFormatting: true,
	}, nil
}

func renderTurn(question, answer string) string {
	return "USER: " + strings.TrimSpace(question) + "\nASSISTANT: " + strings.TrimSpace(answer)
}
