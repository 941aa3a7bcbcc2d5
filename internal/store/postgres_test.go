// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"counseling-workers/internal/common/errors"
	"counseling-workers/internal/common/logger"
	"counseling-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountQuery = `SELECT id, name, email, phone, referral_code, referred_by FROM accounts WHERE id = \$1`
const referralCodeQuery = `SELECT id, name, email, phone, referral_code, referred_by FROM accounts WHERE referral_code = \$1`

func createTestStore(t *testing.T, db *sql.DB, cache *redis.Client) *PostgresStore {
	return NewPostgresStore(db, cache, 5*time.Minute, logger.NewTestLogger(t))
}

func accountRows(acct *models.Account) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "referral_code", "referred_by"}).
		AddRow(acct.ID, acct.Name, acct.Email, acct.Phone, acct.ReferralCode, acct.ReferredBy)
}

func createTestAccount(id, code string) *models.Account {
	return &models.Account{
		ID:           id,
		Name:         "Test Student",
		Email:        id + "@example.com",
		ReferralCode: code,
	}
}

func TestGetAccount(t *testing.T) {
	t.Run("cache miss hits database and populates cache", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cache, cacheMock := redismock.NewClientMock()
		ctx := context.Background()

		acct := createTestAccount("acct-1", "CODE1")
		cacheMock.ExpectGet("account:acct-1").RedisNil()
		mock.ExpectQuery(accountQuery).WithArgs("acct-1").WillReturnRows(accountRows(acct))
		cachedData, _ := json.Marshal(acct)
		cacheMock.ExpectSet("account:acct-1", cachedData, 5*time.Minute).SetVal("OK")

		s := createTestStore(t, db, cache)
		got, err := s.GetAccount(ctx, "acct-1")

		require.NoError(t, err)
		assert.Equal(t, acct, got)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, cacheMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cache, cacheMock := redismock.NewClientMock()

		acct := createTestAccount("acct-2", "CODE2")
		cachedData, _ := json.Marshal(acct)
		cacheMock.ExpectGet("account:acct-2").SetVal(string(cachedData))

		s := createTestStore(t, db, cache)
		got, err := s.GetAccount(context.Background(), "acct-2")

		require.NoError(t, err)
		assert.Equal(t, acct.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account maps to NOT_FOUND", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cache, cacheMock := redismock.NewClientMock()
		cacheMock.ExpectGet("account:missing").RedisNil()
		mock.ExpectQuery(accountQuery).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		s := createTestStore(t, db, cache)
		got, err := s.GetAccount(context.Background(), "missing")

		assert.Nil(t, got)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})

	t.Run("nil cache reads straight from database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		acct := createTestAccount("acct-3", "CODE3")
		mock.ExpectQuery(accountQuery).WithArgs("acct-3").WillReturnRows(accountRows(acct))

		s := createTestStore(t, db, nil)
		got, err := s.GetAccount(context.Background(), "acct-3")

		require.NoError(t, err)
		assert.Equal(t, "acct-3", got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResolveReferralCode(t *testing.T) {
	t.Run("resolves owner of code", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		acct := createTestAccount("referrer-1", "FRIEND10")
		mock.ExpectQuery(referralCodeQuery).WithArgs("FRIEND10").WillReturnRows(accountRows(acct))

		s := createTestStore(t, db, nil)
		got, err := s.ResolveReferralCode(context.Background(), "FRIEND10")

		require.NoError(t, err)
		assert.Equal(t, "referrer-1", got.ID)
	})

	t.Run("unresolvable code maps to NOT_FOUND", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(referralCodeQuery).WithArgs("NOPE").WillReturnError(sql.ErrNoRows)

		s := createTestStore(t, db, nil)
		got, err := s.ResolveReferralCode(context.Background(), "NOPE")

		assert.Nil(t, got)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})
}

func TestSetReferredBy(t *testing.T) {
	t.Run("updates and invalidates cache", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cache, cacheMock := redismock.NewClientMock()
		mock.ExpectExec(`UPDATE accounts SET referred_by = \$2, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("acct-1", "referrer-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		cacheMock.ExpectDel("account:acct-1").SetVal(1)

		s := createTestStore(t, db, cache)
		err = s.SetReferredBy(context.Background(), "acct-1", "referrer-1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, cacheMock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to NOT_FOUND", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE accounts SET referred_by = \$2, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("ghost", "referrer-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		s := createTestStore(t, db, nil)
		err = s.SetReferredBy(context.Background(), "ghost", "referrer-1")

		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})
}

func TestCreateSubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	sub := &models.SubscriptionRecord{
		ID:        "sub-1",
		AccountID: "acct-1",
		Plan:      models.PlanStandard,
		Price:     9395,
		Status:    models.SubscriptionActive,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(sub.ID, sub.AccountID, "standard", sub.Price, false,
			sql.NullString{}, models.SubscriptionActive, now, sql.NullString{}, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := createTestStore(t, db, nil)
	err = s.CreateSubscription(context.Background(), sub)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveSubscription(t *testing.T) {
	subRows := func(sub *models.SubscriptionRecord) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "account_id", "plan", "price", "discount_applied", "referral_code",
			"status", "start_date", "previous_subscription_id", "created_at", "updated_at",
		}).AddRow(sub.ID, sub.AccountID, string(sub.Plan), sub.Price, sub.DiscountApplied,
			sub.ReferralCode, sub.Status, sub.StartDate, sub.PreviousSubscriptionID,
			sub.CreatedAt, sub.UpdatedAt)
	}

	t.Run("returns the active record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now().UTC()
		sub := &models.SubscriptionRecord{
			ID: "sub-1", AccountID: "acct-1", Plan: models.PlanBasic, Price: 6990,
			Status: models.SubscriptionActive, StartDate: now, CreatedAt: now, UpdatedAt: now,
		}
		mock.ExpectQuery(`SELECT .+ FROM subscriptions WHERE account_id = \$1 AND status = 'active'`).
			WithArgs("acct-1").
			WillReturnRows(subRows(sub))

		s := createTestStore(t, db, nil)
		got, err := s.ActiveSubscription(context.Background(), "acct-1")

		require.NoError(t, err)
		assert.Equal(t, models.PlanBasic, got.Plan)
		assert.Equal(t, 6990, got.Price)
	})

	t.Run("no active record maps to NOT_FOUND", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM subscriptions WHERE account_id = \$1 AND status = 'active'`).
			WithArgs("acct-none").
			WillReturnError(sql.ErrNoRows)

		s := createTestStore(t, db, nil)
		got, err := s.ActiveSubscription(context.Background(), "acct-none")

		assert.Nil(t, got)
		assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	})
}

func TestDeactivateSubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE subscriptions SET status = 'inactive'`).
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := createTestStore(t, db, nil)
	assert.NoError(t, s.DeactivateSubscription(context.Background(), "sub-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReferral(t *testing.T) {
	now := time.Now().UTC()
	ref := &models.ReferralRecord{
		ID:               "ref-1",
		ReferrerID:       "referrer-1",
		RefereeID:        "referee-1",
		ReferrerCode:     "FRIEND10",
		SubscriptionID:   "sub-1",
		ReferrerDiscount: 940,
		RefereeDiscount:  94,
		Status:           models.ReferralCompleted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	t.Run("inserts the record", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO referrals`).
			WithArgs(ref.ID, ref.ReferrerID, ref.RefereeID, ref.ReferrerCode, ref.SubscriptionID,
				ref.ReferrerDiscount, ref.RefereeDiscount, ref.Status, now, now).
			WillReturnResult(sqlmock.NewResult(1, 1))

		s := createTestStore(t, db, nil)
		assert.NoError(t, s.CreateReferral(context.Background(), ref))
	})

	t.Run("unique violation maps to CONFLICT", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO referrals`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "referrals_pair_key"})

		s := createTestStore(t, db, nil)
		err = s.CreateReferral(context.Background(), ref)

		assert.True(t, errors.Is(err, errors.ErrCodeConflict))
	})

	t.Run("expired context on write maps to INDETERMINATE", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`INSERT INTO referrals`).
			WillDelayFor(20 * time.Millisecond).
			WillReturnResult(sqlmock.NewResult(1, 1))

		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		s := createTestStore(t, db, nil)
		err = s.CreateReferral(ctx, ref)

		assert.True(t, errors.Is(err, errors.ErrCodeIndeterminate))
	})
}
