package generator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MockLLM is an offline stand-in that never calls a model.
// Plain prompts are answered with a QUESTION: batch, prompts carrying a system
// message with an in-character reply, so the whole pipeline runs offline.
type MockLLM struct {
	// Questions is used when the prompt does not say how many questions it wants.
	Questions int
}

var (
	mockCountRe = regexp.MustCompile(`(\d+)\s+(?:\w+\s+){0,3}questions`)
	mockNameRe  = regexp.MustCompile(`(?m)^You are to take on the role of:\s*(.+)$`)
)

var mockQuestionBank = []string{
	"What does a perfect morning look like for you?",
	"Who taught you the most important lesson of your life?",
	"What is something people often get wrong about you?",
	"Which place do you miss the most, and why?",
	"What would you never compromise on?",
	"How do you handle being wrong?",
	"What is the strangest thing you have ever eaten?",
	"What are you secretly proud of?",
}

func (m MockLLM) Complete(_ context.Context, prompt Prompt, _ Params) (string, error) {
	if prompt.System == "" {
		return m.questions(prompt.User), nil
	}
	name := "myself"
	if match := mockNameRe.FindStringSubmatch(prompt.System); len(match) == 2 {
		name = strings.TrimSpace(match[1])
	}
	q := strings.TrimSpace(prompt.User)
	return fmt.Sprintf("Speaking as %s: that is a fair thing to ask. %q is something I think about often, and my answer has changed over the years.", name, q), nil
}

func (m MockLLM) questions(user string) string {
	n := m.Questions
	if match := mockCountRe.FindStringSubmatch(user); len(match) == 2 {
		if v, err := strconv.Atoi(match[1]); err == nil {
			n = v
		}
	}
	if n <= 0 {
		n = 5
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("QUESTION: ")
		sb.WriteString(mockQuestionBank[i%len(mockQuestionBank)])
		sb.WriteString("\n")
	}
	return sb.String()
}
