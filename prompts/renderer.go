// Package prompts renders the instruction templates sent to the model.
// Templates are looked up in an optional override directory first and fall
// back to the copies embedded in the binary.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var embedded embed.FS

// Renderer executes named text/template files.
type Renderer struct {
	dir string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewRenderer returns a Renderer that prefers templates found in dir.
// An empty dir uses only the embedded templates.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, cache: make(map[string]*template.Template)}
}

// Render executes the template called name with vars.
func (r *Renderer) Render(name string, vars any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	text, err := r.read(name)
	if err != nil {
		return nil, err
	}
	funcMap := template.FuncMap{
		"join": strings.Join,
	}
	tmpl, err := template.New(name).Funcs(funcMap).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	r.cache[name] = tmpl
	return tmpl, nil
}

func (r *Renderer) read(name string) (string, error) {
	if r.dir != "" {
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("could not read template %s: %w", name, err)
		}
	}
	data, err := embedded.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("template %s not found: %w", name, err)
	}
	return string(data), nil
}
