package publisher

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"

	"gtkm_synth/gtkm"
)

// ReportPublisher collects examples as Markdown and renders them to a single
// HTML page on Close, for eyeballing a run before training on it.
type ReportPublisher struct {
	mu    sync.Mutex
	path  string
	title string
	md    strings.Builder
	n     int
}

// NewReport creates a report that will be written to path.
func NewReport(path, title string) *ReportPublisher {
	if title == "" {
		title = "gtkm examples"
	}
	return &ReportPublisher{path: path, title: title}
}

func (r *ReportPublisher) Publish(_ context.Context, ex gtkm.Example) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	name := ex.Persona
	if name == "" {
		name = "unknown persona"
	}
	fmt.Fprintf(&r.md, "## %d. %s\n\n", r.n, name)
	fmt.Fprintf(&r.md, "%d words in the instruction, %d in the response.\n\n", gtkm.CountWords(ex.Instruction), gtkm.CountWords(ex.Response))
	r.md.WriteString("### Instruction\n\n")
	writeFenced(&r.md, ex.Instruction)
	r.md.WriteString("### Response\n\n")
	writeFenced(&r.md, ex.Response)
	return nil
}

// Markdown returns the report body collected so far.
func (r *ReportPublisher) Markdown() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.md.String()
}

func (r *ReportPublisher) Close() error {
	body, err := mdToHTML(r.Markdown())
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	page := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n"+
		"<style>body{max-width:960px;margin:auto;font-family:sans-serif}pre{white-space:pre-wrap;background:#f6f6f6;padding:8px}</style>\n"+
		"</head>\n<body>\n<h1>%s</h1>\n%s</body>\n</html>\n",
		html.EscapeString(r.title), html.EscapeString(r.title), body)
	return os.WriteFile(r.path, []byte(page), 0644)
}

// writeFenced wraps text in a code fence long enough that backticks inside
// the text cannot close it.
func writeFenced(sb *strings.Builder, text string) {
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	sb.WriteString(fence + "text\n")
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(fence + "\n\n")
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
