// Package store provides the persistence collaborators the commerce
// workers depend on: the account directory and the subscription/referral
// record store.
package store

import (
	"context"

	"counseling-workers/internal/models"
)

// AccountDirectory resolves accounts and referral codes. Lookups are
// read-only except for SetReferredBy, which links a referee to the code
// that referred them.
type AccountDirectory interface {
	// GetAccount returns the account with the given id, or a NOT_FOUND
	// error when no such account exists.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// ResolveReferralCode returns the account owning the code, or a
	// NOT_FOUND error when the code does not resolve.
	ResolveReferralCode(ctx context.Context, code string) (*models.Account, error)

	// SetReferredBy records the referrer account that brought in an
	// account.
	SetReferredBy(ctx context.Context, accountID, referrerID string) error
}

// RecordStore persists subscription and referral records. CreateReferral
// returns a CONFLICT error when a record for the same (referrer, referee)
// pair already exists.
type RecordStore interface {
	CreateSubscription(ctx context.Context, sub *models.SubscriptionRecord) error
	GetSubscription(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error)

	// ActiveSubscription returns the account's single active record, or
	// a NOT_FOUND error when the account has none.
	ActiveSubscription(ctx context.Context, accountID string) (*models.SubscriptionRecord, error)

	DeactivateSubscription(ctx context.Context, subscriptionID string) error
	CreateReferral(ctx context.Context, ref *models.ReferralRecord) error
}
