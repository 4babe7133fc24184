package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

type fakeVerifier struct {
	status    stripe.SubscriptionStatus
	statusErr error

	foundID     string
	foundStatus stripe.SubscriptionStatus
	findErr     error

	statusCalls int
	findCalls   int
}

func (f *fakeVerifier) SubscriptionStatus(context.Context, string) (stripe.SubscriptionStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeVerifier) FindActiveSubscription(context.Context, string) (string, stripe.SubscriptionStatus, error) {
	f.findCalls++
	return f.foundID, f.foundStatus, f.findErr
}

func subscribedProfileRow(subscribed bool, subscriptionRef, customerRef any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "credit_count", "is_subscribed", "subscription_ref", "billing_customer_ref", "created_at", "updated_at",
	}).AddRow("user-1", 0, subscribed, subscriptionRef, customerRef, now, now)
}

func getSubscription(ledger *credit.Ledger, verifier subscriptionVerifier, identity *model.Identity) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/user/subscription", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != nil {
		c.Set("identity", identity)
	}
	_ = subscriptionHandler(ledger, verifier)(c)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubscriptionSyncRepairsDrift(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(false, "sub_1", "cus_1"))
	// drift repair: ensure then flag+ref update
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE profiles").
		WithArgs(true, "sub_1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	verifier := &fakeVerifier{status: stripe.SubscriptionStatusActive}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isSubscribed"])
	assert.Equal(t, "active", body["subscriptionStatus"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionSyncNoDriftSkipsWrite(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(true, "sub_1", "cus_1"))
	// no UPDATE expected

	verifier := &fakeVerifier{status: stripe.SubscriptionStatusTrialing}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isSubscribed"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionSyncClearsStaleFlag(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(true, "sub_1", "cus_1"))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE profiles").
		WithArgs(false, "sub_1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	verifier := &fakeVerifier{status: stripe.SubscriptionStatusCanceled}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isSubscribed"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionSyncNoBillingCustomer(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(false, nil, nil))

	verifier := &fakeVerifier{}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isSubscribed"])
	assert.Equal(t, 0, verifier.statusCalls)
	assert.Equal(t, 0, verifier.findCalls)
}

func TestSubscriptionSyncProviderErrorReportsUnsubscribed(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(true, "sub_1", "cus_1"))
	// local flag must not be touched on provider failure

	verifier := &fakeVerifier{statusErr: errors.New("provider down")}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isSubscribed"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionSyncAdoptsActiveSubscription(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(false, nil, "cus_1"))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE profiles").
		WithArgs(true, "sub_9", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	verifier := &fakeVerifier{foundID: "sub_9", foundStatus: stripe.SubscriptionStatusActive}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isSubscribed"])
	assert.Equal(t, 0, verifier.statusCalls)
	assert.Equal(t, 1, verifier.findCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionSyncNoActiveSubscriptionFound(t *testing.T) {
	ledger, mock := newLedgerWithMock(t)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM profiles").
		WillReturnRows(subscribedProfileRow(false, nil, "cus_1"))

	verifier := &fakeVerifier{}
	rec := getSubscription(ledger, verifier, &model.Identity{ID: "user-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["isSubscribed"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionWithoutIdentityIs401(t *testing.T) {
	ledger, _ := newLedgerWithMock(t)

	rec := getSubscription(ledger, &fakeVerifier{}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscriptionUnconfiguredBillingIs503(t *testing.T) {
	ledger, _ := newLedgerWithMock(t)

	rec := getSubscription(ledger, nil, &model.Identity{ID: "user-1"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
