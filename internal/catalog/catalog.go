// Package catalog serves the IOL family database: per-family lens constants
// and the discrete toric cylinder powers available for each family.
package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/selector"
)

// ErrFamilyNotFound is returned for an unknown family identifier.
var ErrFamilyNotFound = errors.New("iol family not found")

// ToricModel is one orderable toric SKU. CornealCyl is the manufacturer's
// corneal-plane equivalent of the labeled IOL-plane cylinder.
type ToricModel struct {
	SKU        string  `json:"sku" db:"sku"`
	IOLCyl     float64 `json:"iol_cyl" db:"iol_cyl"`
	CornealCyl float64 `json:"corneal_cyl" db:"corneal_cyl"`
}

// HaigisConstants are the optimized a0/a1/a2 triplet for a family.
type HaigisConstants struct {
	A0 float64 `json:"a0" db:"haigis_a0"`
	A1 float64 `json:"a1" db:"haigis_a1"`
	A2 float64 `json:"a2" db:"haigis_a2"`
}

// Family is one IOL platform. Toric is empty for spherical-only platforms.
type Family struct {
	ID        string           `json:"id" db:"id"`
	Brand     string           `json:"brand" db:"brand"`
	Name      string           `json:"name" db:"name"`
	AConstant float64          `json:"a_constant" db:"a_constant"`
	Haigis    *HaigisConstants `json:"haigis,omitempty"`
	Toric     []ToricModel     `json:"toric,omitempty"`
}

// ToricCapable reports whether the family offers at least one toric model.
func (f Family) ToricCapable() bool {
	return len(f.Toric) > 0
}

// Service is the catalog contract the recommendation layers consume. An
// empty ToricPowers result is a valid response, not an error.
type Service interface {
	Families(ctx context.Context) ([]Family, error)
	ToricFamilies(ctx context.Context) ([]Family, error)
	Family(ctx context.Context, id string) (Family, error)
	ToricPowers(ctx context.Context, familyID string) ([]selector.Option, error)
	Constants(ctx context.Context, familyID string) (formulas.Constants, error)
}

// SuggestFamilies returns the families suitable for a recommendation: when a
// toric lens is on the table only toric-capable families qualify, otherwise
// every family does (they all carry non-toric models).
func SuggestFamilies(ctx context.Context, s Service, recommendToric bool) ([]Family, error) {
	if recommendToric {
		return s.ToricFamilies(ctx)
	}
	return s.Families(ctx)
}

//go:embed families.json
var seedFS embed.FS

// Memory is the embedded catalog snapshot. The zero value is unusable; use
// NewMemory.
type Memory struct {
	families map[string]Family
	order    []string
}

// NewMemory loads the embedded family database.
func NewMemory() (*Memory, error) {
	data, err := seedFS.ReadFile("families.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	var families []Family
	if err := json.Unmarshal(data, &families); err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}

	m := &Memory{families: make(map[string]Family, len(families))}
	for _, f := range families {
		if f.ID == "" {
			return nil, errors.New("catalog: family with empty id")
		}
		m.families[f.ID] = f
		m.order = append(m.order, f.ID)
	}
	sort.Strings(m.order)
	return m, nil
}

// Families returns every family sorted by ID.
func (m *Memory) Families(_ context.Context) ([]Family, error) {
	out := make([]Family, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.families[id])
	}
	return out, nil
}

// ToricFamilies returns the families with at least one toric model, sorted
// by ID.
func (m *Memory) ToricFamilies(ctx context.Context) ([]Family, error) {
	all, err := m.Families(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, f := range all {
		if f.ToricCapable() {
			out = append(out, f)
		}
	}
	return out, nil
}

// Family returns one family by ID.
func (m *Memory) Family(_ context.Context, id string) (Family, error) {
	f, ok := m.families[id]
	if !ok {
		return Family{}, fmt.Errorf("%w: %s", ErrFamilyNotFound, id)
	}
	return f, nil
}

// ToricPowers returns the family's toric options as corneal-plane selector
// inputs, ascending by cylinder.
func (m *Memory) ToricPowers(ctx context.Context, familyID string) ([]selector.Option, error) {
	f, err := m.Family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return optionsFor(f), nil
}

// Constants returns the family's lens constants for the spherical formulas.
func (m *Memory) Constants(ctx context.Context, familyID string) (formulas.Constants, error) {
	f, err := m.Family(ctx, familyID)
	if err != nil {
		return formulas.Constants{}, err
	}
	return constantsFor(f), nil
}

func optionsFor(f Family) []selector.Option {
	opts := make([]selector.Option, 0, len(f.Toric))
	for _, t := range f.Toric {
		opts = append(opts, selector.Option{FamilyID: f.ID, SKU: t.SKU, Cyl: t.CornealCyl})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Cyl < opts[j].Cyl })
	return opts
}

func constantsFor(f Family) formulas.Constants {
	c := formulas.Constants{AConstant: f.AConstant}
	if f.Haigis != nil {
		c.HaigisA0 = f.Haigis.A0
		c.HaigisA1 = f.Haigis.A1
		c.HaigisA2 = f.Haigis.A2
	}
	return c
}
