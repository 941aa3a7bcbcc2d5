// internal/models/plan.go
package models

// Plan identifies a counseling subscription tier.
type Plan string

const (
	PlanBasic    Plan = "basic"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// PlanDetails binds a plan to its base price and feature list.
type PlanDetails struct {
	Price    int      `json:"price"`
	Features []string `json:"features"`
}

// planTable is the fixed price/feature catalog. Price ordering
// basic < standard < premium is relied on by the upgrade path.
var planTable = map[Plan]PlanDetails{
	PlanBasic: {
		Price: 6990,
		Features: []string{
			"Personalized mentoring for choice filling",
			"JoSAA or AIQ counseling (for JEE/NEET)",
			"OR State Govt. counseling only",
			"Basic rank and college prediction",
			"Email support",
		},
	},
	PlanStandard: {
		Price: 9490,
		Features: []string{
			"All Basic Plan features",
			"JoSAA/AIQ + State Govt. counseling",
			"Advanced rank and college prediction",
			"Priority email support",
			"One video consultation session",
		},
	},
	PlanPremium: {
		Price: 14990,
		Features: []string{
			"All Standard Plan features",
			"JoSAA/AIQ + State + Private colleges",
			"Dedicated mentor support",
			"Unlimited video consultations",
			"Document verification assistance",
			"24/7 priority support",
		},
	},
}

// Valid reports whether the plan exists in the plan table.
func (p Plan) Valid() bool {
	_, ok := planTable[p]
	return ok
}

// Price returns the plan's base price. Zero for unknown plans.
func (p Plan) Price() int {
	return planTable[p].Price
}

// Features returns the plan's feature list.
func (p Plan) Features() []string {
	return planTable[p].Features
}
