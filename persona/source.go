package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// DirSource loads every *.json card in Dir, ordered by file name.
type DirSource struct {
	Dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Load returns the cards in Dir. A missing directory is created and yields no cards.
func (s *DirSource) Load() ([]Persona, error) {
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create persona dir: %w", err)
		}
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list persona cards: %w", err)
	}
	slices.Sort(paths)

	cards := make([]Persona, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read persona card %s: %w", path, err)
		}
		var p Persona
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse persona card %s: %w", path, err)
		}
		cards = append(cards, p)
	}
	return cards, nil
}

// StaticSource serves a fixed set of cards, mostly for tests and embedding callers.
type StaticSource []Persona

func (s StaticSource) Load() ([]Persona, error) {
	return slices.Clone([]Persona(s)), nil
}
