// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/models"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation; it carries the referral pair uniqueness invariant.
const uniqueViolation = "23505"

// PostgresStore implements AccountDirectory and RecordStore on top of
// PostgreSQL, with a Redis cache in front of account lookups.
type PostgresStore struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewPostgresStore(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// ==========================
// AccountDirectory
// ==========================

func (s *PostgresStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	cacheKey := "account:" + accountID
	if acct := s.cachedAccount(ctx, cacheKey); acct != nil {
		return acct, nil
	}

	query := `SELECT id, name, email, phone, referral_code, referred_by FROM accounts WHERE id = $1`
	acct, err := s.scanAccount(s.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("account", "accountId="+accountID)
		}
		return nil, s.readFailure("get account", err)
	}

	s.cacheAccount(ctx, cacheKey, acct)
	return acct, nil
}

func (s *PostgresStore) ResolveReferralCode(ctx context.Context, code string) (*models.Account, error) {
	cacheKey := "refcode:" + code
	if acct := s.cachedAccount(ctx, cacheKey); acct != nil {
		return acct, nil
	}

	query := `SELECT id, name, email, phone, referral_code, referred_by FROM accounts WHERE referral_code = $1`
	acct, err := s.scanAccount(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("referral code", "referralCode="+code)
		}
		return nil, s.readFailure("resolve referral code", err)
	}

	s.cacheAccount(ctx, cacheKey, acct)
	return acct, nil
}

func (s *PostgresStore) SetReferredBy(ctx context.Context, accountID, referrerID string) error {
	query := `UPDATE accounts SET referred_by = $2, updated_at = NOW() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, accountID, referrerID)
	if err != nil {
		return s.writeFailure(ctx, "set referred-by", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFound("account", "accountId="+accountID)
	}

	s.invalidate(ctx, "account:"+accountID)
	return nil
}

func (s *PostgresStore) cachedAccount(ctx context.Context, key string) *models.Account {
	if s.cache == nil {
		return nil
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var acct models.Account
	if err := json.Unmarshal([]byte(val), &acct); err != nil {
		return nil
	}
	return &acct
}

func (s *PostgresStore) cacheAccount(ctx context.Context, key string, acct *models.Account) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return
	}
	// Cache write failures are not surfaced; the next lookup hits Postgres.
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("account cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *PostgresStore) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Debug("cache invalidation failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func (s *PostgresStore) scanAccount(row *sql.Row) (*models.Account, error) {
	var acct models.Account
	var phone, referredBy sql.NullString
	if err := row.Scan(&acct.ID, &acct.Name, &acct.Email, &phone, &acct.ReferralCode, &referredBy); err != nil {
		return nil, err
	}
	acct.Phone = phone.String
	acct.ReferredBy = referredBy.String
	return &acct, nil
}

// ==========================
// RecordStore
// ==========================

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *models.SubscriptionRecord) error {
	query := `INSERT INTO subscriptions
		(id, account_id, plan, price, discount_applied, referral_code, status, start_date, previous_subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.AccountID, string(sub.Plan), sub.Price, sub.DiscountApplied,
		nullable(sub.ReferralCode), sub.Status, sub.StartDate,
		nullable(sub.PreviousSubscriptionID), sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return s.writeFailure(ctx, "create subscription", err)
	}
	return nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error) {
	query := subscriptionColumns + ` WHERE id = $1`
	sub, err := s.scanSubscription(s.db.QueryRowContext(ctx, query, subscriptionID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("subscription", "subscriptionId="+subscriptionID)
		}
		return nil, s.readFailure("get subscription", err)
	}
	return sub, nil
}

func (s *PostgresStore) ActiveSubscription(ctx context.Context, accountID string) (*models.SubscriptionRecord, error) {
	query := subscriptionColumns + ` WHERE account_id = $1 AND status = 'active' ORDER BY start_date DESC LIMIT 1`
	sub, err := s.scanSubscription(s.db.QueryRowContext(ctx, query, accountID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("active subscription", "accountId="+accountID)
		}
		return nil, s.readFailure("get active subscription", err)
	}
	return sub, nil
}

func (s *PostgresStore) DeactivateSubscription(ctx context.Context, subscriptionID string) error {
	query := `UPDATE subscriptions SET status = 'inactive', updated_at = NOW() WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, subscriptionID)
	if err != nil {
		return s.writeFailure(ctx, "deactivate subscription", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFound("subscription", "subscriptionId="+subscriptionID)
	}
	return nil
}

func (s *PostgresStore) CreateReferral(ctx context.Context, ref *models.ReferralRecord) error {
	query := `INSERT INTO referrals
		(id, referrer_id, referee_id, referrer_code, subscription_id, referrer_discount, referee_discount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		ref.ID, ref.ReferrerID, ref.RefereeID, ref.ReferrerCode, ref.SubscriptionID,
		ref.ReferrerDiscount, ref.RefereeDiscount, ref.Status, ref.CreatedAt, ref.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return errors.NewConflict("referral already settled for this pair",
				"referrerId="+ref.ReferrerID+" refereeId="+ref.RefereeID)
		}
		return s.writeFailure(ctx, "create referral", err)
	}
	return nil
}

const subscriptionColumns = `SELECT id, account_id, plan, price, discount_applied, referral_code, status, start_date, previous_subscription_id, created_at, updated_at FROM subscriptions`

func (s *PostgresStore) scanSubscription(row *sql.Row) (*models.SubscriptionRecord, error) {
	var sub models.SubscriptionRecord
	var plan string
	var referralCode, previousID sql.NullString
	if err := row.Scan(
		&sub.ID, &sub.AccountID, &plan, &sub.Price, &sub.DiscountApplied,
		&referralCode, &sub.Status, &sub.StartDate, &previousID,
		&sub.CreatedAt, &sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sub.Plan = models.Plan(plan)
	sub.ReferralCode = referralCode.String
	sub.PreviousSubscriptionID = previousID.String
	return &sub, nil
}

// readFailure wraps a failed read. Reads are side-effect free but the
// engine has no retriable failure class, so the outcome is reported as
// unknown and retry policy stays with the workflow.
func (s *PostgresStore) readFailure(operation string, err error) error {
	return errors.Wrap(errors.ErrCodeIndeterminate, operation+" failed", err)
}

// writeFailure wraps a failed write. When the context expired the write
// may or may not have landed, so the outcome is reported as unknown.
func (s *PostgresStore) writeFailure(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil {
		return errors.FromContextErr(operation, err)
	}
	return errors.Wrap(errors.ErrCodeIndeterminate, operation+" failed", err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
