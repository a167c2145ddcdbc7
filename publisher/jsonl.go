package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gtkm_synth/gtkm"
)

// JSONLPublisher writes one JSON object per line.
type JSONLPublisher struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	name   string
}

// NewJSONL writes to w; the caller keeps ownership of w.
func NewJSONL(w io.Writer, name string) *JSONLPublisher {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLPublisher{enc: enc, name: name}
}

// OpenJSONL opens path for appending, creating parent directories as needed.
// The path "-" writes to stdout.
func OpenJSONL(path string) (*JSONLPublisher, error) {
	if path == "-" {
		return NewJSONL(os.Stdout, "stdout"), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p := NewJSONL(f, path)
	p.closer = f
	return p, nil
}

func (p *JSONLPublisher) Publish(_ context.Context, ex gtkm.Example) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(ex); err != nil {
		return fmt.Errorf("write %s: %w", p.name, err)
	}
	return nil
}

func (p *JSONLPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
