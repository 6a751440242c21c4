package pricing

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Entry contains the per-1k-token prices for a single model.
type Entry struct {
	// InputPricePer1K is the USD price per 1000 input tokens.
	InputPricePer1K float64 `yaml:"input_price_per_1k"`

	// OutputPricePer1K is the USD price per 1000 output tokens.
	OutputPricePer1K float64 `yaml:"output_price_per_1k"`
}

// UnknownModelError indicates a model with no price entry. Cost computation
// for such an event must fail loudly rather than assume zero cost.
type UnknownModelError struct {
	Model string
}

// Error implements the error interface.
func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("no price entry for model %q", e.Model)
}

// NewUnknownModelError creates a new UnknownModelError.
func NewUnknownModelError(model string) *UnknownModelError {
	return &UnknownModelError{Model: model}
}

// tableFile is the on-disk YAML shape of the price table.
type tableFile struct {
	Models  map[string]Entry  `yaml:"models"`
	Aliases map[string]string `yaml:"aliases"`
}

// Table is a thread-safe model price table with hot-reload support.
type Table struct {
	mu      sync.RWMutex
	path    string
	models  map[string]Entry
	aliases map[string]string
}

// NewTable creates a table from an in-memory model map. Aliases may be nil.
func NewTable(models map[string]Entry, aliases map[string]string) *Table {
	if models == nil {
		models = make(map[string]Entry)
	}
	if aliases == nil {
		aliases = make(map[string]string)
	}
	return &Table{models: models, aliases: aliases}
}

// LoadFile loads the price table from a YAML file. Every entry must carry
// both prices; a missing or non-positive price fails the load so type errors
// surface here instead of inside cost arithmetic.
func LoadFile(path string) (*Table, error) {
	models, aliases, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Table{path: path, models: models, aliases: aliases}, nil
}

func readFile(path string) (map[string]Entry, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read price table %q: %w", path, err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse price table %q: %w", path, err)
	}

	if len(f.Models) == 0 {
		return nil, nil, fmt.Errorf("price table %q contains no models", path)
	}
	for model, entry := range f.Models {
		if entry.InputPricePer1K <= 0 {
			return nil, nil, fmt.Errorf("price table %q: model %q has invalid input_price_per_1k", path, model)
		}
		if entry.OutputPricePer1K <= 0 {
			return nil, nil, fmt.Errorf("price table %q: model %q has invalid output_price_per_1k", path, model)
		}
	}
	for alias, canonical := range f.Aliases {
		if _, ok := f.Models[canonical]; !ok {
			return nil, nil, fmt.Errorf("price table %q: alias %q points to unknown model %q", path, alias, canonical)
		}
	}

	if f.Aliases == nil {
		f.Aliases = make(map[string]string)
	}
	return f.Models, f.Aliases, nil
}

// Reload re-reads the price table from its source file. The table is only
// swapped when the new file parses and validates; on error the previous
// table stays in effect.
func (t *Table) Reload() error {
	if t.path == "" {
		return fmt.Errorf("price table has no source file")
	}

	models, aliases, err := readFile(t.path)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.models = models
	t.aliases = aliases
	return nil
}

// Normalize resolves a model alias to its canonical identifier. Unknown
// names pass through unchanged.
func (t *Table) Normalize(model string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if canonical, ok := t.aliases[model]; ok {
		return canonical
	}
	return model
}

// Lookup returns the price entry for a model, resolving aliases first.
// Returns *UnknownModelError if the model has no entry.
func (t *Table) Lookup(model string) (Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	name := model
	if canonical, ok := t.aliases[name]; ok {
		name = canonical
	}

	entry, ok := t.models[name]
	if !ok {
		return Entry{}, NewUnknownModelError(model)
	}
	return entry, nil
}

// Models returns the canonical model identifiers in sorted order.
func (t *Table) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
