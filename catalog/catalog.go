// Package catalog holds the investment segments and plans offered by the
// platform. The tables are compiled into the binary and never change while
// the process runs; every accessor hands out copies.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ecodepin/ecodepin-api/apperrors"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Segment struct {
	ID               string   `yaml:"segment_id" json:"segment_id"`
	Name             string   `yaml:"name" json:"name"`
	Description      string   `yaml:"description" json:"description"`
	ShortDescription string   `yaml:"short_description" json:"short_description"`
	ImageURL         string   `yaml:"image_url" json:"image_url"`
	Icon             string   `yaml:"icon" json:"icon"`
	Features         []string `yaml:"features" json:"features"`
	TotalTVL         float64  `yaml:"total_tvl" json:"total_tvl"`
	InvestorsCount   int      `yaml:"investors_count" json:"investors_count"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type Plan struct {
	ID             string    `yaml:"plan_id" json:"plan_id"`
	SegmentID      string    `yaml:"segment_id" json:"segment_id"`
	Name           string    `yaml:"name" json:"name"`
	MinInvestment  float64   `yaml:"min_investment" json:"min_investment"`
	MaxInvestment  float64   `yaml:"max_investment" json:"max_investment"`
	APY            float64   `yaml:"apy" json:"apy"`
	LockPeriodDays int       `yaml:"lock_period_days" json:"lock_period_days"`
	RiskLevel      RiskLevel `yaml:"risk_level" json:"risk_level"`
	Description    string    `yaml:"description" json:"description"`
	Features       []string  `yaml:"features" json:"features"`
}

// Accepts reports whether amount lies in [MinInvestment, MaxInvestment].
func (p Plan) Accepts(amount float64) bool {
	return amount >= p.MinInvestment && amount <= p.MaxInvestment
}

type Catalog struct {
	segments []Segment
	plans    []Plan
}

type document struct {
	Segments []Segment `yaml:"segments"`
	Plans    []Plan    `yaml:"plans"`
}

// Load parses the embedded tables.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML and checks its invariants.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	segmentIDs := make(map[string]bool, len(doc.Segments))
	for _, s := range doc.Segments {
		if s.ID == "" {
			return nil, fmt.Errorf("segment %q has no id", s.Name)
		}
		if segmentIDs[s.ID] {
			return nil, fmt.Errorf("duplicate segment %q", s.ID)
		}
		segmentIDs[s.ID] = true
	}

	planIDs := make(map[string]bool, len(doc.Plans))
	for _, p := range doc.Plans {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("plan %q has no id", p.Name)
		case planIDs[p.ID]:
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		case !segmentIDs[p.SegmentID]:
			return nil, fmt.Errorf("plan %q references unknown segment %q", p.ID, p.SegmentID)
		case p.MinInvestment > p.MaxInvestment:
			return nil, fmt.Errorf("plan %q: min_investment exceeds max_investment", p.ID)
		case p.LockPeriodDays < 0 || p.APY < 0:
			return nil, fmt.Errorf("plan %q: negative apy or lock period", p.ID)
		}
		planIDs[p.ID] = true
	}

	return &Catalog{segments: doc.Segments, plans: doc.Plans}, nil
}

func (c *Catalog) ListSegments() []Segment {
	out := make([]Segment, len(c.segments))
	for i, s := range c.segments {
		out[i] = s.clone()
	}
	return out
}

func (c *Catalog) GetSegment(id string) (Segment, error) {
	for _, s := range c.segments {
		if s.ID == id {
			return s.clone(), nil
		}
	}
	return Segment{}, apperrors.NotFound("Segment not found")
}

// ListPlans returns every plan, or only those of segmentID when it is non-empty.
// An unknown segment yields an empty slice.
func (c *Catalog) ListPlans(segmentID string) []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		if segmentID != "" && p.SegmentID != segmentID {
			continue
		}
		out = append(out, p.clone())
	}
	return out
}

func (c *Catalog) GetPlan(id string) (Plan, error) {
	for _, p := range c.plans {
		if p.ID == id {
			return p.clone(), nil
		}
	}
	return Plan{}, apperrors.NotFound("Plan not found")
}

func (s Segment) clone() Segment {
	s.Features = slices.Clone(s.Features)
	return s
}

func (p Plan) clone() Plan {
	p.Features = slices.Clone(p.Features)
	return p
}
