// internal/workers/commerce/price-subscription/models.go
package pricesubscription

import "counseling-workers/internal/models"

type Input struct {
	AccountID    string      `json:"accountId"`
	Plan         models.Plan `json:"plan"`
	ReferralCode string      `json:"referralCode,omitempty"`
}

type Output struct {
	SubscriptionID  string      `json:"subscriptionId"`
	Plan            models.Plan `json:"plan"`
	Price           int         `json:"price"`
	DiscountApplied bool        `json:"discountApplied"`
	Features        []string    `json:"features"`
}
