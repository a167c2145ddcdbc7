package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type vars struct {
	Name          string
	Description   string
	QuestionCount int
}

func TestRenderEmbeddedDefault(t *testing.T) {
	out, err := NewRenderer("").Render("gtkm.txt", vars{Name: "Merlin", Description: "A wizard.", QuestionCount: 20})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Merlin", "A wizard.", "exactly 20 questions", "QUESTION: "} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}
}

func TestRenderPrefersOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gtkm.txt"), []byte("ask {{.Name}} {{.QuestionCount}} things"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := NewRenderer(dir).Render("gtkm.txt", vars{Name: "Nimue", QuestionCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	if out != "ask Nimue 3 things" {
		t.Fatalf("Render() = %q", out)
	}
}

func TestRenderFallsBackToEmbedded(t *testing.T) {
	out, err := NewRenderer(t.TempDir()).Render("gtkm.txt", vars{Name: "Kay", QuestionCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Kay") {
		t.Fatalf("fallback render missing name: %q", out)
	}
}

func TestRenderErrors(t *testing.T) {
	r := NewRenderer("")
	if _, err := r.Render("missing.txt", nil); err == nil {
		t.Fatal("expected an error for an unknown template")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("{{.Name"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRenderer(dir).Render("broken.txt", vars{}); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestRenderMapVars(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "list.txt"), []byte(`{{join .Names ", "}}`), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := NewRenderer(dir).Render("list.txt", map[string]any{"Names": []string{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	if out != "a, b" {
		t.Fatalf("Render() = %q", out)
	}
}
