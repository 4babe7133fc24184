package credit

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
)

const (
	ensureSQL = `
		INSERT INTO profiles (id, credit_count, is_subscribed, created_at, updated_at)
		VALUES (?, ?, 0, NOW(), NOW())
		ON DUPLICATE KEY UPDATE id = id
	`
	getSQL = `
		SELECT id, credit_count, is_subscribed, subscription_ref, billing_customer_ref, created_at, updated_at
		  FROM profiles
		 WHERE id = ? LIMIT 1
	`
	deductSQL = `
		UPDATE profiles
		   SET credit_count = credit_count - 1, updated_at = NOW()
		 WHERE id = ? AND credit_count > 0
	`
)

func newTestLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "mysql")
	return NewLedger(repository.NewProfilesRepository(db)), mock
}

func profileColumns() []string {
	return []string{"id", "credit_count", "is_subscribed", "subscription_ref", "billing_customer_ref", "created_at", "updated_at"}
}

func expectEnsure(mock sqlmock.Sqlmock, userID string) {
	mock.ExpectExec(regexp.QuoteMeta(ensureSQL)).
		WithArgs(userID, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectGet(mock sqlmock.Sqlmock, userID string, credits int, subscribed bool) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(getSQL)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileColumns()).
			AddRow(userID, credits, subscribed, nil, nil, now, now))
}

func TestCheckCreditsCreatesProfileWithDefaults(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 3, false)

	st, err := ledger.CheckCredits(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, st.HasCredits)
	assert.Equal(t, 3, st.Credits)
	assert.False(t, st.IsSubscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCreditsSubscribedReportsUnlimited(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 0, true)

	st, err := ledger.CheckCredits(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, st.HasCredits)
	assert.Equal(t, UnlimitedCredits, st.Credits)
	assert.True(t, st.IsSubscribed)
}

func TestCheckCreditsExhausted(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 0, false)

	st, err := ledger.CheckCredits(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, st.HasCredits)
	assert.Equal(t, 0, st.Credits)
}

func TestDeductCreditDecrementsOnce(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 1, false)
	mock.ExpectExec(regexp.QuoteMeta(deductSQL)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := ledger.DeductCredit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductCreditLosesRace(t *testing.T) {
	ledger, mock := newTestLedger(t)

	// The profile still shows one credit but another request spends it
	// before our UPDATE lands; the conditional WHERE matches no rows.
	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 1, false)
	mock.ExpectExec(regexp.QuoteMeta(deductSQL)).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := ledger.DeductCredit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeductCreditSubscribedSkipsMutation(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	expectGet(mock, "user-1", 0, true)
	// no UPDATE expected

	ok, err := ledger.DeductCredit(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetSubscriptionStatusWritesRef(t *testing.T) {
	ledger, mock := newTestLedger(t)

	expectEnsure(mock, "user-1")
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE profiles
		   SET is_subscribed = ?, subscription_ref = ?, updated_at = NOW()
		 WHERE id = ?
	`)).
		WithArgs(true, "sub_123", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ledger.SetSubscriptionStatus(context.Background(), "user-1", true, "sub_123")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserIDForBillingCustomerUnknown(t *testing.T) {
	ledger, mock := newTestLedger(t)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, credit_count, is_subscribed, subscription_ref, billing_customer_ref, created_at, updated_at
		  FROM profiles
		 WHERE billing_customer_ref = ? LIMIT 1
	`)).
		WithArgs("cus_unknown").
		WillReturnRows(sqlmock.NewRows(profileColumns()))

	userID, err := ledger.UserIDForBillingCustomer(context.Background(), "cus_unknown")
	require.NoError(t, err)
	assert.Empty(t, userID)
}
