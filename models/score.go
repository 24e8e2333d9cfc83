package models

// ScoreStatus describes which path produced a breakdown.
type ScoreStatus string

const (
	ScoreFinal     ScoreStatus = "FINAL"
	ScoreProjected ScoreStatus = "PROJECTED"
	ScoreNoData    ScoreStatus = "NO_DATA"
	ScoreDNS       ScoreStatus = "DNS"
	ScoreDNF       ScoreStatus = "DNF"
)

// ScoreBreakdown is the auditable point breakdown for one athlete.
type ScoreBreakdown struct {
	AthleteID              int         `json:"athlete_id" yaml:"athlete_id"`
	Gender                 Gender      `json:"gender,omitempty" yaml:"gender,omitempty"`
	Placement              int         `json:"placement" yaml:"placement"`
	PlacementPoints        int         `json:"placement_points" yaml:"placement_points"`
	TimeGapPoints          int         `json:"time_gap_points" yaml:"time_gap_points"`
	PerformanceBonusPoints int         `json:"performance_bonus_points" yaml:"performance_bonus_points"`
	RecordBonusPoints      int         `json:"record_bonus_points" yaml:"record_bonus_points"`
	TotalPoints            int         `json:"total_points" yaml:"total_points"`
	IsTemporary            bool        `json:"is_temporary" yaml:"is_temporary"`
	ProjectionSource       *SplitLabel `json:"projection_source" yaml:"projection_source"`

	Status            ScoreStatus `json:"status" yaml:"status"`
	FinishTimeMs      *int64      `json:"finish_time_ms,omitempty" yaml:"finish_time_ms,omitempty"`
	ProjectedFinishMs *int64      `json:"projected_finish_ms,omitempty" yaml:"projected_finish_ms,omitempty"`
	TimeGapMs         *int64      `json:"time_gap_ms,omitempty" yaml:"time_gap_ms,omitempty"`
	Bonuses           []string    `json:"bonuses,omitempty" yaml:"bonuses,omitempty"`
	RuleSetVersion    int         `json:"rule_set_version" yaml:"rule_set_version"`
}

// ZeroBreakdown is the contribution of an athlete that has nothing to score.
func ZeroBreakdown(athleteID int, status ScoreStatus) ScoreBreakdown {
	return ScoreBreakdown{AthleteID: athleteID, Status: status}
}

// SumPoints recomputes TotalPoints from its components, never below zero.
func (b *ScoreBreakdown) SumPoints() {
	total := b.PlacementPoints + b.TimeGapPoints + b.PerformanceBonusPoints + b.RecordBonusPoints
	if total < 0 {
		total = 0
	}
	b.TotalPoints = total
}
