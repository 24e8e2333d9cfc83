package models

import (
	"fmt"
	"sort"
)

// StackingPolicy controls how earned performance bonuses combine.
type StackingPolicy string

const (
	StackingStack     StackingPolicy = "stack"
	StackingExclusive StackingPolicy = "exclusive"
)

// TimeGapTier awards Points when the gap to the winner is at most MaxGapMs.
type TimeGapTier struct {
	MaxGapMs int64 `json:"max_gap_ms" yaml:"max_gap_ms"`
	Points   int   `json:"points" yaml:"points"`
}

// BonusRule is a single performance bonus definition.
// Exclusive bonuses never combine with other bonuses.
type BonusRule struct {
	ThresholdMs int64 `json:"threshold_ms" yaml:"threshold_ms"`
	Points      int   `json:"points" yaml:"points"`
	Exclusive   bool  `json:"exclusive" yaml:"exclusive"`
}

type PerformanceBonuses struct {
	NegativeSplit BonusRule `json:"negative_split" yaml:"negative_split"`
	EvenPace      BonusRule `json:"even_pace" yaml:"even_pace"`
	FastFinish    BonusRule `json:"fast_finish" yaml:"fast_finish"`
}

type RecordBonuses struct {
	World  int `json:"world" yaml:"world"`
	Course int `json:"course" yaml:"course"`
}

// ScoringRuleSet is one immutable version of the point tables.
type ScoringRuleSet struct {
	Version            int                    `json:"version" yaml:"version"`
	PlacementPoints    []int                  `json:"placement_points" yaml:"placement_points"`
	TimeGapTiers       []TimeGapTier          `json:"time_gap_tiers" yaml:"time_gap_tiers"`
	PerformanceBonuses PerformanceBonuses     `json:"performance_bonuses" yaml:"performance_bonuses"`
	StackingPolicy     StackingPolicy         `json:"stacking_policy,omitempty" yaml:"stacking_policy,omitempty"`
	RecordBonuses      RecordBonuses          `json:"record_bonuses" yaml:"record_bonuses"`
	FatigueFactors     map[SplitLabel]float64 `json:"fatigue_factors,omitempty" yaml:"fatigue_factors,omitempty"`
}

// DefaultFatigueFactors are the reference slowdown multipliers per checkpoint.
var DefaultFatigueFactors = map[SplitLabel]float64{
	Split40k:  1.01,
	Split35k:  1.02,
	Split30k:  1.04,
	SplitHalf: 1.06,
	Split10k:  1.08,
	Split5k:   1.08,
}

// InvalidRuleSetError is returned for malformed or incomplete scoring configuration.
type InvalidRuleSetError struct {
	Version int
	Reason  string
}

func (e *InvalidRuleSetError) Error() string {
	return fmt.Sprintf("invalid scoring rule set v%d: %s", e.Version, e.Reason)
}

func (rs *ScoringRuleSet) invalid(format string, args ...any) error {
	return &InvalidRuleSetError{Version: rs.Version, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that every table needed for scoring is present and well formed.
func (rs *ScoringRuleSet) Validate() error {
	if rs == nil {
		return &InvalidRuleSetError{Reason: "rule set is nil"}
	}
	if rs.Version <= 0 {
		return rs.invalid("version must be positive")
	}
	if len(rs.PlacementPoints) == 0 {
		return rs.invalid("placement points table is missing")
	}
	for i, p := range rs.PlacementPoints {
		if p < 0 {
			return rs.invalid("placement points for rank %d are negative (%d)", i+1, p)
		}
	}

	if len(rs.TimeGapTiers) == 0 {
		return rs.invalid("time gap tiers are missing")
	}
	for i, tier := range rs.TimeGapTiers {
		if tier.MaxGapMs < 0 {
			return rs.invalid("time gap tier %d has negative max_gap_ms", i)
		}
		if tier.Points < 0 {
			return rs.invalid("time gap tier %d has negative points", i)
		}
		if i > 0 && tier.MaxGapMs <= rs.TimeGapTiers[i-1].MaxGapMs {
			return rs.invalid("time gap tiers must be strictly ascending by max_gap_ms (tier %d)", i)
		}
	}

	bonuses := map[string]BonusRule{
		"negative_split": rs.PerformanceBonuses.NegativeSplit,
		"even_pace":      rs.PerformanceBonuses.EvenPace,
		"fast_finish":    rs.PerformanceBonuses.FastFinish,
	}
	for name, b := range bonuses {
		if b.ThresholdMs < 0 || b.Points < 0 {
			return rs.invalid("performance bonus %s has negative threshold or points", name)
		}
	}

	switch rs.StackingPolicy {
	case "", StackingStack, StackingExclusive:
	default:
		return rs.invalid("unknown stacking policy %q", rs.StackingPolicy)
	}

	if rs.RecordBonuses.World < 0 || rs.RecordBonuses.Course < 0 {
		return rs.invalid("record bonuses must not be negative")
	}

	for label, f := range rs.FatigueFactors {
		if !label.Valid() {
			return rs.invalid("fatigue factor for unknown split %q", label)
		}
		if f < 1.0 {
			return rs.invalid("fatigue factor for %s must be >= 1.0, got %v", label, f)
		}
	}
	// Чем раньше сплит, тем больше неопределённость: коэффициент не может убывать к старту.
	prev := 0.0
	for i := len(SplitOrder) - 1; i >= 0; i-- {
		f := rs.FatigueFactor(SplitOrder[i])
		if f < prev {
			return rs.invalid("fatigue factor for %s (%v) is smaller than for a later split (%v)", SplitOrder[i], f, prev)
		}
		prev = f
	}
	return nil
}

// Policy returns the effective stacking policy.
func (rs *ScoringRuleSet) Policy() StackingPolicy {
	if rs.StackingPolicy == "" {
		return StackingStack
	}
	return rs.StackingPolicy
}

// FatigueFactor returns the configured factor or the reference value.
func (rs *ScoringRuleSet) FatigueFactor(label SplitLabel) float64 {
	if f, ok := rs.FatigueFactors[label]; ok {
		return f
	}
	return DefaultFatigueFactors[label]
}

// PointsForPlacement looks a rank up in the placement table; ranks outside it score 0.
func (rs *ScoringRuleSet) PointsForPlacement(rank int) int {
	if rank < 1 || rank > len(rs.PlacementPoints) {
		return 0
	}
	return rs.PlacementPoints[rank-1]
}

// PointsForGap returns the first tier that covers gapMs.
func (rs *ScoringRuleSet) PointsForGap(gapMs int64) int {
	if gapMs < 0 {
		gapMs = 0
	}
	i := sort.Search(len(rs.TimeGapTiers), func(i int) bool {
		return rs.TimeGapTiers[i].MaxGapMs >= gapMs
	})
	if i == len(rs.TimeGapTiers) {
		return 0
	}
	return rs.TimeGapTiers[i].Points
}
