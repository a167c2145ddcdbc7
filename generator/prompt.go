package generator

// Prompt is a single completion request. An empty System sends User as a
// plain prompt; otherwise the request is a system message followed by the
// User turn.
type Prompt struct {
	System string
	User   string
}

// IsPlain reports whether the prompt carries no system context.
func (p Prompt) IsPlain() bool {
	return p.System == ""
}
