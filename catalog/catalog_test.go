package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodepin/ecodepin-api/apperrors"
)

func TestLoad(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	segments := c.ListSegments()
	assert.Len(t, segments, 5)
	ids := make([]string, 0, len(segments))
	for _, s := range segments {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"data-centers", "battery-storage", "ev-charging", "renewable-energy", "green-credits"}, ids)

	plans := c.ListPlans("")
	assert.Len(t, plans, 15)
	for _, p := range plans {
		assert.LessOrEqual(t, p.MinInvestment, p.MaxInvestment, p.ID)
		assert.NotEmpty(t, p.RiskLevel, p.ID)
	}
}

func TestLookups(t *testing.T) {
	c := MustLoad()

	t.Run("Segment found", func(t *testing.T) {
		s, err := c.GetSegment("ev-charging")
		require.NoError(t, err)
		assert.Equal(t, "EV Fast Charging", s.Name)
		assert.Equal(t, 3421, s.InvestorsCount)
	})

	t.Run("Segment missing", func(t *testing.T) {
		_, err := c.GetSegment("nope")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})

	t.Run("Plan found", func(t *testing.T) {
		p, err := c.GetPlan("dc-starter")
		require.NoError(t, err)
		assert.Equal(t, 8.5, p.APY)
		assert.Equal(t, 30, p.LockPeriodDays)
		assert.Equal(t, RiskLow, p.RiskLevel)
	})

	t.Run("Plan missing", func(t *testing.T) {
		_, err := c.GetPlan("nope")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})

	t.Run("Filter by segment", func(t *testing.T) {
		plans := c.ListPlans("green-credits")
		assert.Len(t, plans, 3)
		for _, p := range plans {
			assert.Equal(t, "green-credits", p.SegmentID)
		}
	})

	t.Run("Unknown filter is empty", func(t *testing.T) {
		plans := c.ListPlans("unknown")
		assert.NotNil(t, plans)
		assert.Empty(t, plans)
	})
}

func TestCatalogIsImmutable(t *testing.T) {
	c := MustLoad()

	p, err := c.GetPlan("dc-starter")
	require.NoError(t, err)
	p.Features[0] = "tampered"
	p.APY = 99

	again, err := c.GetPlan("dc-starter")
	require.NoError(t, err)
	assert.Equal(t, "Daily rewards", again.Features[0])
	assert.Equal(t, 8.5, again.APY)

	segments := c.ListSegments()
	segments[0].Features[0] = "tampered"
	assert.NotEqual(t, "tampered", c.ListSegments()[0].Features[0])
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Unknown segment", "segments: []\nplans:\n  - {plan_id: p, segment_id: s, min_investment: 1, max_investment: 2}\n"},
		{"Min above max", "segments:\n  - {segment_id: s}\nplans:\n  - {plan_id: p, segment_id: s, min_investment: 5, max_investment: 2}\n"},
		{"Duplicate plan", "segments:\n  - {segment_id: s}\nplans:\n  - {plan_id: p, segment_id: s}\n  - {plan_id: p, segment_id: s}\n"},
		{"Malformed", "segments: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCalculateReturns(t *testing.T) {
	c := MustLoad()

	t.Run("Starter node", func(t *testing.T) {
		proj, err := c.CalculateReturns("dc-starter", 1000)
		require.NoError(t, err)
		// daily = 1000 * 8.5/365/100 = 0.23287...
		assert.Equal(t, 0.23, proj.ProjectedReturns.Daily)
		assert.Equal(t, 6.99, proj.ProjectedReturns.Monthly)
		assert.Equal(t, 85.0, proj.ProjectedReturns.Yearly)
		assert.Equal(t, 6.99, proj.ProjectedReturns.LockPeriodTotal)
		assert.Equal(t, 1006.99, proj.FinalValue)
		assert.Equal(t, 1000.0, proj.InvestmentAmount)
		assert.Equal(t, "dc-starter", proj.Plan.ID)
	})

	t.Run("Per-field rounding", func(t *testing.T) {
		// daily = 0.0232876..., monthly = 0.69863 -> 0.70, not 30 * 0.02
		proj, err := c.CalculateReturns("dc-starter", 100)
		require.NoError(t, err)
		assert.Equal(t, 0.02, proj.ProjectedReturns.Daily)
		assert.Equal(t, 0.7, proj.ProjectedReturns.Monthly)
		assert.Equal(t, 100.7, proj.FinalValue)
	})

	t.Run("Unknown plan", func(t *testing.T) {
		_, err := c.CalculateReturns("nope", 100)
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := c.CalculateReturns("dc-starter", amount)
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput), "amount %v", amount)
	}
}

func TestCalculateReturnsProperties(t *testing.T) {
	c := MustLoad()
	amounts := []float64{1, 99.99, 100, 1234.56, 5000, 250000}

	for _, plan := range c.ListPlans("") {
		for _, amount := range amounts {
			proj, err := c.CalculateReturns(plan.ID, amount)
			require.NoError(t, err)

			assert.InDelta(t, amount*plan.APY/100, proj.ProjectedReturns.Yearly, 0.0051, "%s yearly", plan.ID)
			daily := amount * DailyRate(plan.APY)
			assert.InDelta(t, daily*float64(plan.LockPeriodDays), proj.ProjectedReturns.LockPeriodTotal, 0.0051, "%s lock", plan.ID)

			again, err := c.CalculateReturns(plan.ID, amount)
			require.NoError(t, err)
			assert.Equal(t, proj, again)
		}
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.13, RoundCents(0.125))
	assert.Equal(t, -0.13, RoundCents(-0.125))
	assert.Equal(t, 2.5, Round(2.45, 1))
	assert.Equal(t, 3.0, Round(2.5, 0))
}
