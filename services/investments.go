package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/catalog"
	"github.com/ecodepin/ecodepin-api/models"
)

// Impact multipliers applied to the total invested.
const (
	CO2KgPerDollar = 0.0005
	KWhPerDollar   = 0.1
	CO2KgPerTree   = 21.0
)

type ImpactMetrics struct {
	CO2OffsetKg     float64 `json:"co2_offset_kg"`
	KWhGenerated    float64 `json:"kwh_generated"`
	TreesEquivalent float64 `json:"trees_equivalent"`
}

type PortfolioStats struct {
	TotalInvested          float64       `json:"total_invested"`
	TotalRewards           float64       `json:"total_rewards"`
	ActiveInvestmentsCount int           `json:"active_investments_count"`
	PortfolioValue         float64       `json:"portfolio_value"`
	ImpactMetrics          ImpactMetrics `json:"impact_metrics"`
}

type InvestmentService struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	log     *zap.Logger
	now     func() time.Time
}

func NewInvestmentService(db *gorm.DB, c *catalog.Catalog, log *zap.Logger) *InvestmentService {
	return &InvestmentService{db: db, catalog: c, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *InvestmentService) WithClock(now func() time.Time) *InvestmentService {
	s.now = now
	return s
}

// CreateInvestment books amount into planID for userID. paymentTransactionID
// is optional; when set it must name one of the user's own transactions.
func (s *InvestmentService) CreateInvestment(ctx context.Context, userID, planID string, amount float64, paymentTransactionID string) (*models.Investment, error) {
	plan, err := s.catalog.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.Accepts(amount) {
		return nil, amountOutOfRange(plan)
	}

	if paymentTransactionID != "" {
		var txn models.PaymentTransaction
		err := s.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", paymentTransactionID, userID).
			First(&txn).Error
		if err != nil {
			return nil, apperrors.FromStorage(err, "Payment not found")
		}
	}

	return s.book(ctx, userID, plan, amount, paymentTransactionID)
}

// book persists an investment, copying the plan's terms as of now.
func (s *InvestmentService) book(ctx context.Context, userID string, plan catalog.Plan, amount float64, paymentTransactionID string) (*models.Investment, error) {
	start := s.now().UTC()
	inv := models.Investment{
		CreatedAt:      start,
		UserID:         userID,
		PlanID:         plan.ID,
		SegmentID:      plan.SegmentID,
		Amount:         amount,
		APY:            plan.APY,
		LockPeriodDays: plan.LockPeriodDays,
		StartDate:      start,
		EndDate:        start.Add(time.Duration(plan.LockPeriodDays) * 24 * time.Hour),
		Status:         models.InvestmentActive,
	}
	if paymentTransactionID != "" {
		inv.PaymentTransactionID = &paymentTransactionID
	}

	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return nil, apperrors.FromStorage(err, "Investment not found")
	}

	s.log.Info("investment created",
		zap.String("investment_id", inv.ID),
		zap.String("user_id", userID),
		zap.String("plan_id", plan.ID),
		zap.Float64("amount", amount))

	return &inv, nil
}

// GetUserInvestments lists the user's investments, newest first.
func (s *InvestmentService) GetUserInvestments(ctx context.Context, userID string) ([]models.Investment, error) {
	investments := make([]models.Investment, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&investments).Error
	if err != nil {
		return nil, apperrors.FromStorage(err, "Investment not found")
	}
	return investments, nil
}

// GetInvestmentByID looks the investment up by id and owner together, so a
// foreign id is indistinguishable from a missing one.
func (s *InvestmentService) GetInvestmentByID(ctx context.Context, userID, investmentID string) (*models.Investment, error) {
	var inv models.Investment
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", investmentID, userID).
		First(&inv).Error
	if err != nil {
		return nil, apperrors.FromStorage(err, "Investment not found")
	}
	return &inv, nil
}

func (s *InvestmentService) GetPortfolioStats(ctx context.Context, userID string) (*PortfolioStats, error) {
	var investments []models.Investment
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&investments).Error; err != nil {
		return nil, apperrors.FromStorage(err, "Investment not found")
	}
	return ComputePortfolioStats(investments, s.now()), nil
}

// ComputePortfolioStats aggregates investments as of now. Rewards accrue only
// on active investments and only for whole elapsed days.
func ComputePortfolioStats(investments []models.Investment, now time.Time) *PortfolioStats {
	invested := decimal.Zero
	rewards := decimal.Zero
	active := 0

	for _, inv := range investments {
		invested = invested.Add(decimal.NewFromFloat(inv.Amount))
		if inv.Status != models.InvestmentActive {
			continue
		}
		active++
		days := WholeDaysBetween(inv.StartDate, now)
		reward := inv.Amount * catalog.DailyRate(inv.APY) * float64(days)
		rewards = rewards.Add(decimal.NewFromFloat(reward))
	}

	totalInvested := invested.InexactFloat64()
	totalRewards := rewards.InexactFloat64()
	co2 := totalInvested * CO2KgPerDollar

	return &PortfolioStats{
		TotalInvested:          catalog.RoundCents(totalInvested),
		TotalRewards:           catalog.RoundCents(totalRewards),
		ActiveInvestmentsCount: active,
		PortfolioValue:         catalog.RoundCents(totalInvested + totalRewards),
		ImpactMetrics: ImpactMetrics{
			CO2OffsetKg:     catalog.RoundCents(co2),
			KWhGenerated:    catalog.RoundCents(totalInvested * KWhPerDollar),
			TreesEquivalent: catalog.Round(co2/CO2KgPerTree, 1),
		},
	}
}

// WholeDaysBetween floors the elapsed time to whole days; never negative.
func WholeDaysBetween(start, now time.Time) int {
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

func amountOutOfRange(plan catalog.Plan) error {
	return apperrors.InvalidInput(fmt.Sprintf("Amount must be between %g and %g", plan.MinInvestment, plan.MaxInvestment))
}
