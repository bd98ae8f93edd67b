package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/catalog"
	"github.com/ecodepin/ecodepin-api/models"
)

const PaymentHistoryLimit = 50

type CheckoutSession struct {
	URL       string `json:"url"`
	CancelURL string `json:"cancel_url"`
	SessionID string `json:"session_id"`
}

type PaymentStatusResult struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

type WebhookEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Signed    bool   `json:"signed"`
}

// PaymentService runs the checkout flow. No real payment processor is
// contacted: checkout returns the platform's own success page and a pending
// transaction settles the first time its status is read.
type PaymentService struct {
	db          *gorm.DB
	catalog     *catalog.Catalog
	investments *InvestmentService
	log         *zap.Logger
	now         func() time.Time
}

func NewPaymentService(db *gorm.DB, c *catalog.Catalog, investments *InvestmentService, log *zap.Logger) *PaymentService {
	return &PaymentService{db: db, catalog: c, investments: investments, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID, planID string, amount float64, originURL string) (*CheckoutSession, error) {
	plan, err := s.catalog.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.Accepts(amount) {
		return nil, amountOutOfRange(plan)
	}
	originURL = strings.TrimRight(strings.TrimSpace(originURL), "/")
	if originURL == "" {
		return nil, apperrors.InvalidInput("origin_url required")
	}

	txn := models.PaymentTransaction{
		CreatedAt:     s.now().UTC(),
		UserID:        userID,
		Amount:        amount,
		Currency:      "usd",
		PaymentMethod: models.PaymentMethodStripe,
		Status:        models.PaymentPending,
		Metadata:      datatypes.JSONMap{"plan_id": plan.ID},
	}
	db := s.db.WithContext(ctx)
	if err := db.Create(&txn).Error; err != nil {
		return nil, apperrors.FromStorage(err, "Payment not found")
	}

	// The transaction doubles as its own checkout session.
	txn.SessionID = &txn.ID
	if err := db.Model(&txn).Update("session_id", txn.ID).Error; err != nil {
		return nil, apperrors.FromStorage(err, "Payment not found")
	}

	s.log.Info("checkout session created",
		zap.String("transaction_id", txn.ID),
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.Float64("amount", amount))

	return &CheckoutSession{
		URL:       fmt.Sprintf("%s/payment/success?session_id=%s", originURL, txn.ID),
		CancelURL: originURL + "/payment/cancel",
		SessionID: txn.ID,
	}, nil
}

// GetPaymentStatus reads a transaction by transaction or session id, settling it
// if it is still pending.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID, id string) (*PaymentStatusResult, error) {
	txn, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if txn.Status == models.PaymentPending {
		if txn, err = s.Settle(ctx, txn); err != nil {
			return nil, err
		}
	}

	return statusResult(txn), nil
}

func (s *PaymentService) find(ctx context.Context, userID, id string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND (id = ? OR session_id = ?)", userID, id, id).
		First(&txn).Error
	if err != nil {
		return nil, apperrors.FromStorage(err, "Payment not found")
	}
	return &txn, nil
}

// Settle moves a pending transaction to completed with a single conditional
// update and books the matching investment. Only the caller whose update
// flips the row books; everyone else re-reads the settled row.
func (s *PaymentService) Settle(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", txn.ID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentCompleted,
			"updated_at": s.now().UTC(),
		})
	if res.Error != nil {
		return nil, apperrors.FromStorage(res.Error, "Payment not found")
	}
	if res.RowsAffected == 0 {
		return s.find(ctx, txn.UserID, txn.ID)
	}

	settled := *txn
	settled.Status = models.PaymentCompleted
	s.log.Info("payment settled", zap.String("transaction_id", txn.ID), zap.String("user_id", txn.UserID))

	plan, err := s.catalog.GetPlan(txn.PlanID())
	if err != nil {
		s.log.Warn("settled payment references unknown plan; no investment booked",
			zap.String("transaction_id", txn.ID), zap.String("plan_id", txn.PlanID()))
		return &settled, nil
	}

	if _, err := s.investments.CreateInvestment(ctx, txn.UserID, plan.ID, txn.Amount, txn.ID); err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			return &settled, nil
		}
		s.log.Error("payment settled but investment was not booked",
			zap.String("transaction_id", txn.ID), zap.Error(err))
		return nil, err
	}
	return &settled, nil
}

// GetPaymentHistory returns the user's most recent transactions, newest first.
func (s *PaymentService) GetPaymentHistory(ctx context.Context, userID string) ([]models.PaymentTransaction, error) {
	payments := make([]models.PaymentTransaction, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(PaymentHistoryLimit).
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.FromStorage(err, "Payment not found")
	}
	return payments, nil
}

// RecordWebhook logs a provider callback. The signature is not verified, so
// the payload never changes any transaction.
func (s *PaymentService) RecordWebhook(payload []byte, signature string) WebhookEvent {
	event := WebhookEvent{
		ID:        gjson.GetBytes(payload, "id").String(),
		Type:      gjson.GetBytes(payload, "type").String(),
		SessionID: gjson.GetBytes(payload, "data.object.id").String(),
		Signed:    signature != "",
	}
	s.log.Info("stripe webhook received",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("session_id", event.SessionID),
		zap.Bool("signed", event.Signed))
	return event
}

func statusResult(txn *models.PaymentTransaction) *PaymentStatusResult {
	status, paid := string(txn.Status), "unpaid"
	if txn.Status == models.PaymentCompleted {
		status, paid = "complete", "paid"
	}
	return &PaymentStatusResult{
		Status:        status,
		PaymentStatus: paid,
		AmountTotal:   ToCents(txn.Amount),
		Currency:      txn.Currency,
		TransactionID: txn.ID,
	}
}

// ToCents converts a dollar amount to integer cents.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}
