// internal/models/exam.go
package models

// ExamType identifies the entrance exam a student appeared for. It fixes
// the score scale and the catalog partition used for eligibility matching.
type ExamType string

const (
	ExamJEE  ExamType = "jee"
	ExamNEET ExamType = "neet"
)

// Valid reports whether the exam type is one of the supported exams.
func (e ExamType) Valid() bool {
	return e == ExamJEE || e == ExamNEET
}

// MaxScore returns the maximum attainable score for the exam.
func (e ExamType) MaxScore() float64 {
	switch e {
	case ExamJEE:
		return 360
	case ExamNEET:
		return 720
	}
	return 0
}

// RankPool returns the size of the rank pool used for rank prediction.
func (e ExamType) RankPool() float64 {
	switch e {
	case ExamJEE:
		return 1000000
	case ExamNEET:
		return 1500000
	}
	return 0
}

// Category is the reservation category a cutoff or seat count applies to.
// It is always an input, never derived.
type Category string

const (
	CategoryGeneral Category = "general"
	CategorySC      Category = "sc"
	CategoryST      Category = "st"
	CategoryOBC     Category = "obc"
)

// Valid reports whether the category is a member of the enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategorySC, CategoryST, CategoryOBC:
		return true
	}
	return false
}

// Reserved reports whether the category receives rank compression
// during prediction.
func (c Category) Reserved() bool {
	return c.Valid() && c != CategoryGeneral
}
