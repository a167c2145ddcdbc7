// Package gtkm synthesizes "get to know me" training conversations: a persona
// is interviewed by the model, answers in character to every question
// concurrently, and the surviving turns are packed into one word-budgeted
// instruction/response pair whose response is the held-out final answer.
package gtkm

import "errors"

// Category tags every example produced by this package.
const Category = "gtkm"

// Example is one training record.
type Example struct {
	Category    string `json:"category"`
	Instruction string `json:"instruction"`
	Response    string `json:"response"`
	// SkipPromptFormatting tells downstream tooling to use Instruction verbatim.
	SkipPromptFormatting bool `json:"skip_prompt_formatting"`
	// Persona is the card the example was generated from.
	Persona string `json:"persona,omitempty"`
}

// Turn is a question paired with its usable answer.
type Turn struct {
	Question string
	Answer   string
}

// State is the bookkeeping of one generation run.
type State struct {
	Emitted int // examples yielded so far
	Index   int // next persona to use
	Cycles  int // cycles started, emitted or not
	Skipped int // cycles abandoned without an example
}

// ErrNoTurns is returned by Assemble when there is nothing to hold out.
var ErrNoTurns = errors.New("gtkm: at least one turn is required")
