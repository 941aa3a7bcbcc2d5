// internal/models/referral.go
package models

import "time"

const (
	ReferralPending   = "pending"
	ReferralCompleted = "completed"
)

// ReferralRecord captures a settled referral between two accounts.
// ReferrerID never equals RefereeID, and at most one record exists per
// (referrer, referee) pair; the record store enforces both.
type ReferralRecord struct {
	ID               string    `json:"referralId"`
	ReferrerID       string    `json:"referrerId"`
	RefereeID        string    `json:"refereeId"`
	ReferrerCode     string    `json:"referrerCode"`
	SubscriptionID   string    `json:"subscriptionId"`
	ReferrerDiscount int       `json:"referrerDiscount"`
	RefereeDiscount  int       `json:"refereeDiscount"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
