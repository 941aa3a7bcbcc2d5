// internal/models/account.go
package models

// Account is the directory view of a platform account. Registration and
// authentication live outside this service; only the fields the commerce
// engine reads are modeled here.
type Account struct {
	ID           string `json:"accountId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	ReferralCode string `json:"referralCode"`
	// ReferredBy is the account id of the referrer, set when a referral
	// is settled.
	ReferredBy string `json:"referredBy,omitempty"`
}
