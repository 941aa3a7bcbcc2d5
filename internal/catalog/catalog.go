// Package catalog holds the institution/cutoff/seat reference dataset.
// The catalog is loaded once at startup and never mutated afterwards, so
// it is shared by reference across all workers without locking.
package catalog

import (
	"fmt"

	"counseling-workers/internal/models"
)

// TierMedical partitions the catalog for NEET; every other tier (IIT,
// NIT, ...) belongs to the JEE partition.
const TierMedical = "Medical"

// SeatMatrix is one program's published seat counts. Per-category counts
// are independent published figures; they are not reconciled against
// Total because reservation pools may overlap in the source data.
type SeatMatrix struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

// Program is one program offered by an institution, with its per-category
// cutoff ranks and optionally its seat matrix.
type Program struct {
	Name    string         `json:"name"`
	Cutoffs map[string]int `json:"cutoffs"`
	Seats   *SeatMatrix    `json:"seats,omitempty"`
}

// Cutoff returns the cutoff rank for a category.
func (p *Program) Cutoff(category models.Category) (int, bool) {
	c, ok := p.Cutoffs[string(category)]
	return c, ok
}

// Institution is one catalog entry: identity, tier, and programs in
// publication order.
type Institution struct {
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Tier     string    `json:"tier"`
	Programs []Program `json:"programs"`
}

// Catalog is the full read-only dataset, scan order preserved from the
// source file so result ordering is deterministic.
type Catalog struct {
	institutions []Institution
	byCode       map[string]*Institution
}

// New builds a catalog from a list of institutions, indexing by code.
func New(institutions []Institution) (*Catalog, error) {
	byCode := make(map[string]*Institution, len(institutions))
	for i := range institutions {
		inst := &institutions[i]
		if inst.Code == "" {
			return nil, fmt.Errorf("institution %q has no code", inst.Name)
		}
		if _, exists := byCode[inst.Code]; exists {
			return nil, fmt.Errorf("duplicate institution code %q", inst.Code)
		}
		byCode[inst.Code] = inst
	}
	return &Catalog{institutions: institutions, byCode: byCode}, nil
}

// Institutions returns all entries in catalog order.
func (c *Catalog) Institutions() []Institution {
	return c.institutions
}

// Institution looks up an entry by its short code.
func (c *Catalog) Institution(code string) (*Institution, bool) {
	inst, ok := c.byCode[code]
	return inst, ok
}

// Partition returns the entries relevant to an exam: NEET selects only
// Medical-tier institutions, JEE selects everything else.
func (c *Catalog) Partition(exam models.ExamType) []*Institution {
	var out []*Institution
	for i := range c.institutions {
		inst := &c.institutions[i]
		medical := inst.Tier == TierMedical
		if (exam == models.ExamNEET) == medical {
			out = append(out, inst)
		}
	}
	return out
}

// Len returns the number of institutions.
func (c *Catalog) Len() int {
	return len(c.institutions)
}
