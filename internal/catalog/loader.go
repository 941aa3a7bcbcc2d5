package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"counseling-workers/internal/models"
)

type catalogFile struct {
	Institutions []Institution `json:"institutions"`
}

// Load reads and validates the catalog dataset from a JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	if len(file.Institutions) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no institutions", path)
	}

	for _, inst := range file.Institutions {
		if err := validateInstitution(inst); err != nil {
			return nil, fmt.Errorf("catalog file %s: %w", path, err)
		}
	}

	return New(file.Institutions)
}

func validateInstitution(inst Institution) error {
	if inst.Name == "" {
		return fmt.Errorf("institution %q has no name", inst.Code)
	}
	if inst.Tier == "" {
		return fmt.Errorf("institution %q has no tier", inst.Code)
	}
	if len(inst.Programs) == 0 {
		return fmt.Errorf("institution %q has no programs", inst.Code)
	}
	for _, prog := range inst.Programs {
		if prog.Name == "" {
			return fmt.Errorf("institution %q has an unnamed program", inst.Code)
		}
		if len(prog.Cutoffs) == 0 {
			return fmt.Errorf("program %q at %q has no cutoffs", prog.Name, inst.Code)
		}
		for cat, cutoff := range prog.Cutoffs {
			if !models.Category(cat).Valid() {
				return fmt.Errorf("program %q at %q has unknown category %q", prog.Name, inst.Code, cat)
			}
			if cutoff <= 0 {
				return fmt.Errorf("program %q at %q has non-positive cutoff for %q", prog.Name, inst.Code, cat)
			}
		}
		if prog.Seats != nil && prog.Seats.Total <= 0 {
			return fmt.Errorf("program %q at %q has non-positive seat total", prog.Name, inst.Code)
		}
	}
	return nil
}
