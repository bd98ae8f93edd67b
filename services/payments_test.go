package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/models"
	"github.com/ecodepin/ecodepin-api/testutil"
)

func TestCreateCheckoutSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		planID       string
		amount       float64
		origin       string
		expectedKind apperrors.Kind
	}{
		{name: "Unknown Plan", planID: "nope", amount: 1000, origin: "https://app.example", expectedKind: apperrors.KindNotFound},
		{name: "Amount Out Of Range", planID: "dc-starter", amount: 99.99, origin: "https://app.example", expectedKind: apperrors.KindInvalidInput},
		{name: "Missing Origin", planID: "dc-starter", amount: 1000, origin: "", expectedKind: apperrors.KindInvalidInput},
		{name: "Valid Request", planID: "dc-starter", amount: 1000, origin: "https://app.example/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, profiles(nil))
			user := testutil.CreateUser(t, f.db, "ada@example.com")

			session, err := f.payments.CreateCheckoutSession(ctx, user.ID, tt.planID, tt.amount, tt.origin)
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				var count int64
				f.db.Model(&models.PaymentTransaction{}).Count(&count)
				assert.Zero(t, count)
				return
			}

			require.NoError(t, err)
			assert.Regexp(t, `^txn_[0-9a-f]{12}$`, session.SessionID)
			assert.Equal(t, "https://app.example/payment/success?session_id="+session.SessionID, session.URL)
			assert.Equal(t, "https://app.example/payment/cancel", session.CancelURL)

			var txn models.PaymentTransaction
			require.NoError(t, f.db.First(&txn, "id = ?", session.SessionID).Error)
			assert.Equal(t, models.PaymentPending, txn.Status)
			assert.Equal(t, models.PaymentMethodStripe, txn.PaymentMethod)
			assert.Equal(t, "usd", txn.Currency)
			assert.Equal(t, 1000.0, txn.Amount)
			assert.Equal(t, "dc-starter", txn.PlanID())
			require.NotNil(t, txn.SessionID)
			assert.Equal(t, txn.ID, *txn.SessionID)
		})
	}
}

func TestGetPaymentStatusSettlesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, profiles(nil))
	user := testutil.CreateUser(t, f.db, "ada@example.com")

	session, err := f.payments.CreateCheckoutSession(ctx, user.ID, "dc-starter", 1000, "https://app.example")
	require.NoError(t, err)

	first, err := f.payments.GetPaymentStatus(ctx, user.ID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, &PaymentStatusResult{
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   100000,
		Currency:      "usd",
		TransactionID: session.SessionID,
	}, first)

	second, err := f.payments.GetPaymentStatus(ctx, user.ID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var investments []models.Investment
	require.NoError(t, f.db.Find(&investments).Error)
	require.Len(t, investments, 1)
	assert.Equal(t, user.ID, investments[0].UserID)
	assert.Equal(t, "dc-starter", investments[0].PlanID)
	assert.Equal(t, 1000.0, investments[0].Amount)
	require.NotNil(t, investments[0].PaymentTransactionID)
	assert.Equal(t, session.SessionID, *investments[0].PaymentTransactionID)

	var txn models.PaymentTransaction
	require.NoError(t, f.db.First(&txn, "id = ?", session.SessionID).Error)
	assert.Equal(t, models.PaymentCompleted, txn.Status)
}

func TestSettleWithStaleRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, profiles(nil))
	user := testutil.CreateUser(t, f.db, "ada@example.com")

	session, err := f.payments.CreateCheckoutSession(ctx, user.ID, "bs-basic", 300, "https://app.example")
	require.NoError(t, err)

	var stale models.PaymentTransaction
	require.NoError(t, f.db.First(&stale, "id = ?", session.SessionID).Error)

	for i := 0; i < 3; i++ {
		txn, err := f.payments.Settle(ctx, &stale)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, txn.Status)
	}

	var count int64
	f.db.Model(&models.Investment{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetPaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Foreign Transaction", func(t *testing.T) {
		f := newFixture(t, profiles(nil))
		owner := testutil.CreateUser(t, f.db, "ada@example.com")
		other := testutil.CreateUser(t, f.db, "grace@example.com")

		session, err := f.payments.CreateCheckoutSession(ctx, owner.ID, "dc-starter", 1000, "https://app.example")
		require.NoError(t, err)

		_, err = f.payments.GetPaymentStatus(ctx, other.ID, session.SessionID)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

		var txn models.PaymentTransaction
		require.NoError(t, f.db.First(&txn, "id = ?", session.SessionID).Error)
		assert.Equal(t, models.PaymentPending, txn.Status)
	})

	t.Run("Unknown ID", func(t *testing.T) {
		f := newFixture(t, profiles(nil))
		user := testutil.CreateUser(t, f.db, "ada@example.com")

		_, err := f.payments.GetPaymentStatus(ctx, user.ID, "txn_missing")
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("Lookup By Provider Session ID", func(t *testing.T) {
		f := newFixture(t, profiles(nil))
		user := testutil.CreateUser(t, f.db, "ada@example.com")
		providerSession := "cs_test_123"
		txn := models.PaymentTransaction{
			UserID:        user.ID,
			Amount:        19.99,
			PaymentMethod: models.PaymentMethodStripe,
			SessionID:     &providerSession,
			Status:        models.PaymentFailed,
		}
		require.NoError(t, f.db.Create(&txn).Error)

		res, err := f.payments.GetPaymentStatus(ctx, user.ID, providerSession)
		require.NoError(t, err)
		assert.Equal(t, "failed", res.Status)
		assert.Equal(t, "unpaid", res.PaymentStatus)
		assert.Equal(t, int64(1999), res.AmountTotal)
		assert.Equal(t, txn.ID, res.TransactionID)
	})

	t.Run("Plan No Longer Exists", func(t *testing.T) {
		f := newFixture(t, profiles(nil))
		user := testutil.CreateUser(t, f.db, "ada@example.com")
		txn := models.PaymentTransaction{
			UserID:        user.ID,
			Amount:        500,
			PaymentMethod: models.PaymentMethodStripe,
			Metadata:      datatypes.JSONMap{"plan_id": "retired-plan"},
		}
		require.NoError(t, f.db.Create(&txn).Error)

		res, err := f.payments.GetPaymentStatus(ctx, user.ID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "complete", res.Status)

		var count int64
		f.db.Model(&models.Investment{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestGetPaymentHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, profiles(nil))
	user := testutil.CreateUser(t, f.db, "ada@example.com")
	other := testutil.CreateUser(t, f.db, "grace@example.com")

	var last string
	for i := 0; i < PaymentHistoryLimit+5; i++ {
		session, err := f.payments.CreateCheckoutSession(ctx, user.ID, "dc-starter", float64(100+i), "https://app.example")
		require.NoError(t, err)
		last = session.SessionID
		f.clock.Advance(time.Second)
	}
	_, err := f.payments.CreateCheckoutSession(ctx, other.ID, "dc-starter", 100, "https://app.example")
	require.NoError(t, err)

	history, err := f.payments.GetPaymentHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, PaymentHistoryLimit)
	assert.Equal(t, last, history[0].ID)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.After(history[i-1].CreatedAt), fmt.Sprintf("row %d out of order", i))
		assert.Equal(t, user.ID, history[i].UserID)
	}
}

func TestRecordWebhook(t *testing.T) {
	f := newFixture(t, profiles(nil))

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_123"}}}`)
	event := f.payments.RecordWebhook(payload, "t=1,v1=abc")
	assert.Equal(t, WebhookEvent{ID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_123", Signed: true}, event)

	event = f.payments.RecordWebhook([]byte(`not json`), "")
	assert.Equal(t, WebhookEvent{}, event)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(100000), ToCents(1000))
	assert.Equal(t, int64(1999), ToCents(19.99))
	assert.Equal(t, int64(1001), ToCents(10.005))
	assert.Equal(t, int64(0), ToCents(0))
}
