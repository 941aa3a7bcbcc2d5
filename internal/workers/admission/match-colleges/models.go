// internal/workers/admission/match-colleges/models.go
package matchcolleges

import "counseling-workers/internal/models"

type Preferences struct {
	Program         string `json:"program,omitempty"`
	InstitutionTier string `json:"institutionTier,omitempty"`
}

type Input struct {
	ExamType    models.ExamType `json:"examType"`
	Rank        int             `json:"rank"`
	Category    models.Category `json:"category"`
	Preferences *Preferences    `json:"preferences,omitempty"`
}

// ChanceTier is a coarse admission-likelihood classification.
type ChanceTier string

const (
	ChanceHigh   ChanceTier = "High"
	ChanceMedium ChanceTier = "Medium"
	ChanceLow    ChanceTier = "Low"
)

// Option is one eligible (institution, program) pair. Never mutated
// after the option list is assembled.
type Option struct {
	Institution     string     `json:"college"`
	InstitutionCode string     `json:"collegeCode"`
	Program         string     `json:"branch"`
	CutoffRank      int        `json:"cutoff"`
	ChanceTier      ChanceTier `json:"chanceOfAdmission"`
}

type Output struct {
	ExamType models.ExamType `json:"examType"`
	Rank     int             `json:"rank"`
	Category models.Category `json:"category"`
	Options  []Option        `json:"eligibleOptions"`
	Total    int             `json:"totalOptions"`
}
