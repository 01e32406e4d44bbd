package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robert-malhotra/vi-mosaic/internal/quality"
)

// ProductConfig is one product's capability entry: which grid scheme it
// tiles on, whether the archive already delivers one observation per
// period or daily observations that need temporal compositing, and the
// QA bit semantics used to screen its pixels. Per-product behavior is
// data here, never branching in the engine.
type ProductConfig struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// GridID names the tiling scheme in the grid registry.
	GridID string `json:"grid"`

	// Synthesis is true when the archive delivers daily observations
	// that must be composited into the requested period.
	Synthesis bool `json:"synthesis"`

	// PeriodDays is the native period length for periodic products, or
	// the default compositing window length for synthesis products.
	PeriodDays int `json:"period_days"`

	// QARules screen pixels against the product's QA band. An empty
	// list means only nodata screening applies.
	QARules []quality.BitRule `json:"qa_rules,omitempty"`
}

// ProductRegistry holds product capability entries indexed by ID.
type ProductRegistry struct {
	products map[string]*ProductConfig
}

// NewProductRegistry creates a registry preloaded with the built-in
// product table.
func NewProductRegistry() *ProductRegistry {
	r := &ProductRegistry{products: make(map[string]*ProductConfig)}
	for _, p := range DefaultProducts() {
		r.products[p.ID] = p
	}
	return r
}

// Add registers a product entry, replacing any existing entry with the
// same ID.
func (r *ProductRegistry) Add(p *ProductConfig) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	r.products[p.ID] = p
	return nil
}

// Get returns the entry for the given product ID.
func (r *ProductRegistry) Get(id string) (*ProductConfig, bool) {
	p, ok := r.products[id]
	return p, ok
}

// Has reports whether the product is known.
func (r *ProductRegistry) Has(id string) bool {
	_, ok := r.products[id]
	return ok
}

// Count returns the number of registered products.
func (r *ProductRegistry) Count() int {
	return len(r.products)
}

// All returns the entries sorted by product ID.
func (r *ProductRegistry) All() []*ProductConfig {
	out := make([]*ProductConfig, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadProducts merges product entries from JSON files in the given
// directory into the registry. Only .json files are processed; entries
// with IDs matching built-ins override them, which is how QA tables get
// corrected without a rebuild.
func (r *ProductRegistry) LoadProducts(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access products directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("products path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read products directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read product file %q: %w", path, err)
		}

		var p ProductConfig
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to parse product file %q: %w", path, err)
		}

		if err := r.Add(&p); err != nil {
			return fmt.Errorf("invalid product in %q: %w", path, err)
		}
	}

	return nil
}

func validateProduct(p *ProductConfig) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if p.ID == "" {
		return fmt.Errorf("product ID is required")
	}
	if p.GridID == "" {
		return fmt.Errorf("product %q: grid is required", p.ID)
	}
	if p.PeriodDays < 1 {
		return fmt.Errorf("product %q: period_days must be at least 1, got %d", p.ID, p.PeriodDays)
	}
	for _, rule := range p.QARules {
		if rule.Mask == 0 {
			return fmt.Errorf("product %q: QA rule %q has a zero mask", p.ID, rule.Name)
		}
		if len(rule.Allowed) == 0 {
			return fmt.Errorf("product %q: QA rule %q allows no values", p.ID, rule.Name)
		}
	}
	return nil
}
