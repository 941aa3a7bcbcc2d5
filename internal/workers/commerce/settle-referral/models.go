// internal/workers/commerce/settle-referral/models.go
package settlereferral

type Input struct {
	ReferrerCode     string `json:"referrerCode"`
	RefereeAccountID string `json:"refereeId"`
	SubscriptionID   string `json:"subscriptionId"`
}

type Output struct {
	ReferralID       string `json:"referralId"`
	ReferrerDiscount int    `json:"referrerDiscount"`
	RefereeDiscount  int    `json:"refereeDiscount"`
}
