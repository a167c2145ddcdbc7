// Package persona holds the character cards the generator speaks as, and the
// directory-backed source they are loaded from.
package persona

import (
	"strings"
)

// Persona is one character card. Cards are read-only once loaded.
type Persona struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	StayInCharacter string `json:"stay_in_character"`
}

// Preamble is the system text placed at the top of every training instruction.
func (p Persona) Preamble() string {
	return strings.Join([]string{
		"You are to take on the role of: " + p.Name,
		p.Description,
		p.StayInCharacter,
	}, "\n")
}

// SystemContext is the preamble followed by the behavioral rules; answer
// requests carry it as their system message.
func (p Persona) SystemContext(rules string) string {
	if rules == "" {
		return p.Preamble()
	}
	return p.Preamble() + "\n" + rules
}

// Rules keeps answers in character and gives the model a place to put
// out-of-character notes, which are cut from the answer afterwards.
const Rules = `Rules:
- Stay fully in character for the entire response; never mention being an AI, a language model, or an assistant.
- Answer the user's question directly, in first person, using the voice, vocabulary, and attitude of the character.
- Do not narrate actions in asterisks unless the character would naturally do so.
- Do not repeat the question back, and do not add a preamble or a summary.
- Keep the answer to a natural conversational length, usually one to three paragraphs.
- If you need to remind yourself of anything about these rules, put it at the very end after "REMINDER:"; that text is discarded.`
