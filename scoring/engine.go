package scoring

import (
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

// GameInput is the full, explicit input for scoring one game. Nothing is read
// from shared state.
type GameInput struct {
	GameID  int
	RaceID  int
	Results []models.AthleteResult
	Records []models.RaceRecord
}

// Engine routes every athlete to the calculator or the projector by completeness.
type Engine struct {
	rules      *models.ScoringRuleSet
	calculator *Calculator
	projector  *Projector
}

func NewEngine(rules *models.ScoringRuleSet) (*Engine, error) {
	calc, err := NewCalculator(rules)
	if err != nil {
		return nil, err
	}
	proj, err := NewProjector(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: rules, calculator: calc, projector: proj}, nil
}

func (e *Engine) Rules() *models.ScoringRuleSet {
	return e.rules
}

type genderField struct {
	finishers []models.AthleteResult
	onCourse  []Projection
}

// ScoreGame returns a breakdown for every athlete in the input.
func (e *Engine) ScoreGame(in GameInput) (map[int]models.ScoreBreakdown, error) {
	out := make(map[int]models.ScoreBreakdown, len(in.Results))
	fields := make(map[models.Gender]*genderField)

	for _, r := range in.Results {
		if _, dup := out[r.AthleteID]; dup {
			return nil, fmt.Errorf("%w: athlete %d", ErrDuplicateResult, r.AthleteID)
		}
		if !r.Gender.Valid() {
			return nil, fmt.Errorf("athlete %d: %w %q", r.AthleteID, ErrInvalidGender, r.Gender)
		}
		// Без данных спортсмен так и остаётся с нулём.
		out[r.AthleteID] = e.zero(r, models.ScoreNoData)

		switch {
		case r.DNS:
			out[r.AthleteID] = e.zero(r, models.ScoreDNS)
		case r.DNF:
			out[r.AthleteID] = e.zero(r, models.ScoreDNF)
		case r.HasFinish():
			field(fields, r.Gender).finishers = append(field(fields, r.Gender).finishers, r)
		case r.HasSplits():
			proj, err := e.projector.Project(r)
			if err != nil {
				return nil, err
			}
			field(fields, r.Gender).onCourse = append(field(fields, r.Gender).onCourse, proj)
		}
	}

	for _, f := range fields {
		if err := e.scoreField(in, f, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func field(fields map[models.Gender]*genderField, g models.Gender) *genderField {
	f, ok := fields[g]
	if !ok {
		f = &genderField{}
		fields[g] = f
	}
	return f
}

func (e *Engine) scoreField(in GameInput, f *genderField, out map[int]models.ScoreBreakdown) error {
	finishEntries := make([]rankEntry, 0, len(f.finishers))
	var winner int64
	for i, r := range f.finishers {
		t := *r.FinishTimeMs
		finishEntries = append(finishEntries, rankEntry{AthleteID: r.AthleteID, TimeMs: t})
		if i == 0 || t < winner {
			winner = t
		}
	}
	finishRanks := competitionRanks(finishEntries)

	for _, r := range f.finishers {
		b, err := e.calculator.Score(FinisherInput{
			Result:       r,
			Placement:    finishRanks[r.AthleteID],
			WinnerTimeMs: winner,
			RaceID:       in.RaceID,
			Records:      in.Records,
		})
		if err != nil {
			return err
		}
		out[r.AthleteID] = b
	}

	if len(f.onCourse) == 0 {
		return nil
	}
	// Прогнозные места считаются в общем порядке: реальный финиш или прогноз.
	combined := make([]rankEntry, 0, len(finishEntries)+len(f.onCourse))
	combined = append(combined, finishEntries...)
	for _, p := range f.onCourse {
		combined = append(combined, rankEntry{AthleteID: p.AthleteID, TimeMs: p.ProjectedFinishMs})
	}
	projectedRanks := competitionRanks(combined)
	for _, p := range f.onCourse {
		out[p.AthleteID] = e.projector.Score(p, projectedRanks[p.AthleteID])
	}
	return nil
}

func (e *Engine) zero(r models.AthleteResult, status models.ScoreStatus) models.ScoreBreakdown {
	b := models.ZeroBreakdown(r.AthleteID, status)
	b.Gender = r.Gender
	b.RuleSetVersion = e.rules.Version
	return b
}

// Standings scores the game and aggregates it for the given rosters.
func (e *Engine) Standings(in GameInput, rosters models.Rosters) (*models.StandingsResponse, map[int]models.ScoreBreakdown, error) {
	breakdowns, err := e.ScoreGame(in)
	if err != nil {
		return nil, nil, err
	}
	resp, err := Aggregate(AggregateInput{
		GameID:         in.GameID,
		RuleSetVersion: e.rules.Version,
		Breakdowns:     breakdowns,
		Rosters:        rosters,
		Results:        in.Results,
	})
	if err != nil {
		return nil, nil, err
	}
	return resp, breakdowns, nil
}
