// internal/workers/admission/seat-matrix/models.go
package seatmatrix

import "counseling-workers/internal/catalog"

type Input struct {
	InstitutionCode string `json:"collegeCode,omitempty"`
	Program         string `json:"branch,omitempty"`
}

// ProgramSeats is one program's seat matrix within an institution.
type ProgramSeats struct {
	Program string             `json:"branch"`
	Seats   catalog.SeatMatrix `json:"seats"`
}

// InstitutionSeats is the full seat listing of one institution.
type InstitutionSeats struct {
	InstitutionCode string         `json:"collegeCode"`
	Programs        []ProgramSeats `json:"branches"`
}

// Output takes one of three shapes depending on the filters supplied:
// a single program's seats, one institution's listing, or the complete
// matrix. Unused fields stay empty.
type Output struct {
	InstitutionCode string              `json:"collegeCode,omitempty"`
	Program         string              `json:"branch,omitempty"`
	Seats           *catalog.SeatMatrix `json:"seats,omitempty"`
	Programs        []ProgramSeats      `json:"branches,omitempty"`
	Institutions    []InstitutionSeats  `json:"institutions,omitempty"`
}
