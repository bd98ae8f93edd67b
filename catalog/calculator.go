package catalog

import (
	"math"

	"github.com/ecodepin/ecodepin-api/apperrors"
)

type ProjectedReturns struct {
	Daily           float64 `json:"daily"`
	Monthly         float64 `json:"monthly"`
	Yearly          float64 `json:"yearly"`
	LockPeriodTotal float64 `json:"lock_period"`
}

type Projection struct {
	Plan             Plan             `json:"plan"`
	InvestmentAmount float64          `json:"investment_amount"`
	ProjectedReturns ProjectedReturns `json:"projected_returns"`
	FinalValue       float64          `json:"total_at_end"`
}

// CalculateReturns projects simple-interest returns for amount invested in planID.
// Every figure is rounded to cents on its own; none is derived from another
// rounded figure.
func (c *Catalog) CalculateReturns(planID string, amount float64) (*Projection, error) {
	plan, err := c.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, apperrors.InvalidInput("amount must be a positive number")
	}
	return Project(plan, amount), nil
}

func Project(plan Plan, amount float64) *Projection {
	dailyRate := DailyRate(plan.APY)
	daily := amount * dailyRate
	monthly := daily * 30
	yearly := amount * plan.APY / 100
	lockPeriodTotal := daily * float64(plan.LockPeriodDays)

	return &Projection{
		Plan:             plan,
		InvestmentAmount: amount,
		ProjectedReturns: ProjectedReturns{
			Daily:           RoundCents(daily),
			Monthly:         RoundCents(monthly),
			Yearly:          RoundCents(yearly),
			LockPeriodTotal: RoundCents(lockPeriodTotal),
		},
		FinalValue: RoundCents(amount + lockPeriodTotal),
	}
}

// DailyRate converts an APY percentage to a per-day fraction.
func DailyRate(apy float64) float64 {
	return apy / 365 / 100
}

// RoundCents rounds half away from zero to 2 decimal places.
func RoundCents(x float64) float64 {
	return Round(x, 2)
}

func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
