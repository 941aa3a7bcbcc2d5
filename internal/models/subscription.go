// internal/models/subscription.go
package models

import "time"

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
)

// SubscriptionRecord is one purchased counseling subscription. An account
// has at most one active record at a time; an upgrade deactivates the
// prior record and links the new one through PreviousSubscriptionID.
type SubscriptionRecord struct {
	ID                     string    `json:"subscriptionId"`
	AccountID              string    `json:"accountId"`
	Plan                   Plan      `json:"plan"`
	Price                  int       `json:"price"`
	DiscountApplied        bool      `json:"discountApplied"`
	ReferralCode           string    `json:"referralCode,omitempty"`
	Status                 string    `json:"status"`
	StartDate              time.Time `json:"startDate"`
	PreviousSubscriptionID string    `json:"previousSubscriptionId,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}
