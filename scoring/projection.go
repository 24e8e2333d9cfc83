package scoring

import (
	"fmt"
	"math"

	"github.com/Dosada05/fantasy-marathon/models"
)

// ProjectionState is the per-athlete progression seen by the projector.
type ProjectionState string

const (
	StateNoData        ProjectionState = "NO_DATA"
	StatePartialSplits ProjectionState = "PARTIAL_SPLITS"
	StateProjected     ProjectionState = "PROJECTED"
)

// StateOf reports the pre-projection state of a result. A finish time moves the
// athlete to final scoring, which is outside this state machine.
func StateOf(r *models.AthleteResult) ProjectionState {
	if r.HasSplits() && !r.HasFinish() {
		return StatePartialSplits
	}
	return StateNoData
}

// Projection is the extrapolated finish for an athlete still on course.
type Projection struct {
	AthleteID         int
	Gender            models.Gender
	State             ProjectionState
	Source            models.SplitLabel
	SplitTimeMs       int64
	PaceMsPerKm       float64
	FatigueFactor     float64
	ProjectedFinishMs int64
}

// Projector extrapolates finish times from the most advanced split.
type Projector struct {
	rules *models.ScoringRuleSet
}

func NewProjector(rules *models.ScoringRuleSet) (*Projector, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Projector{rules: rules}, nil
}

// Project is pure: the same result always yields the same projection.
func (p *Projector) Project(r models.AthleteResult) (Projection, error) {
	if r.HasFinish() {
		return Projection{}, fmt.Errorf("athlete %d: %w", r.AthleteID, ErrFinishedResult)
	}
	proj := Projection{AthleteID: r.AthleteID, Gender: r.Gender, State: StateNoData}

	var label models.SplitLabel
	var splitMs int64
	for i := len(models.SplitOrder) - 1; i >= 0; i-- {
		if t := r.SplitTime(models.SplitOrder[i]); t != nil {
			label, splitMs = models.SplitOrder[i], *t
			break
		}
	}
	if label == "" {
		return proj, nil
	}
	if splitMs <= 0 {
		return Projection{}, fmt.Errorf("athlete %d split %s: %w", r.AthleteID, label, ErrInvalidSplit)
	}

	distKm := label.DistanceKm()
	pace := float64(splitMs) / distKm
	fatigue := p.rules.FatigueFactor(label)
	remainingKm := models.MarathonKm - distKm
	remainingMs := int64(math.Round(remainingKm * pace * fatigue))

	proj.State = StateProjected
	proj.Source = label
	proj.SplitTimeMs = splitMs
	proj.PaceMsPerKm = pace
	proj.FatigueFactor = fatigue
	proj.ProjectedFinishMs = splitMs + remainingMs
	return proj, nil
}

// Score turns a ranked projection into a temporary breakdown. Only placement
// points are awarded: gap, performance and record bonuses need a real finish.
func (p *Projector) Score(proj Projection, placement int) models.ScoreBreakdown {
	if proj.State != StateProjected {
		b := models.ZeroBreakdown(proj.AthleteID, models.ScoreNoData)
		b.Gender = proj.Gender
		b.RuleSetVersion = p.rules.Version
		return b
	}
	source := proj.Source
	b := models.ScoreBreakdown{
		AthleteID:         proj.AthleteID,
		Gender:            proj.Gender,
		Placement:         placement,
		PlacementPoints:   p.rules.PointsForPlacement(placement),
		IsTemporary:       true,
		ProjectionSource:  &source,
		Status:            models.ScoreProjected,
		ProjectedFinishMs: models.Int64Ptr(proj.ProjectedFinishMs),
		RuleSetVersion:    p.rules.Version,
	}
	b.SumPoints()
	return b
}
