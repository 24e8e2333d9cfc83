package scoring

import (
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

// FinisherInput is everything needed to score one athlete with a known finish time.
type FinisherInput struct {
	Result       models.AthleteResult
	Placement    int
	WinnerTimeMs int64
	RaceID       int
	Records      []models.RaceRecord
}

// Calculator produces final, deterministic breakdowns for finishers.
type Calculator struct {
	rules *models.ScoringRuleSet
}

func NewCalculator(rules *models.ScoringRuleSet) (*Calculator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{rules: rules}, nil
}

func (c *Calculator) Rules() *models.ScoringRuleSet {
	return c.rules
}

// Score computes placement, time gap, performance and record points.
func (c *Calculator) Score(in FinisherInput) (models.ScoreBreakdown, error) {
	res := in.Result
	if res.DNS {
		return c.zero(res, models.ScoreDNS), nil
	}
	if res.DNF {
		return c.zero(res, models.ScoreDNF), nil
	}
	if res.FinishTimeMs == nil {
		return models.ScoreBreakdown{}, &IncompleteResultError{AthleteID: res.AthleteID}
	}
	finish := *res.FinishTimeMs
	if finish <= 0 {
		return models.ScoreBreakdown{}, fmt.Errorf("%w: athlete %d has non-positive finish time %d", ErrInvalidInput, res.AthleteID, finish)
	}
	if in.Placement < 1 {
		return models.ScoreBreakdown{}, fmt.Errorf("%w: athlete %d has placement %d", ErrInvalidInput, res.AthleteID, in.Placement)
	}

	gap := finish - in.WinnerTimeMs
	if gap < 0 {
		gap = 0
	}

	b := models.ScoreBreakdown{
		AthleteID:       res.AthleteID,
		Gender:          res.Gender,
		Placement:       in.Placement,
		PlacementPoints: c.rules.PointsForPlacement(in.Placement),
		TimeGapPoints:   c.rules.PointsForGap(gap),
		Status:          models.ScoreFinal,
		FinishTimeMs:    models.Int64Ptr(finish),
		TimeGapMs:       models.Int64Ptr(gap),
		RuleSetVersion:  c.rules.Version,
	}

	perfPoints, perfNames := combineBonuses(
		evaluatePerformance(&res, finish, c.rules.PerformanceBonuses),
		c.rules.Policy(),
	)
	b.PerformanceBonusPoints = perfPoints
	b.Bonuses = append(b.Bonuses, perfNames...)

	recPoints, recNames, err := c.recordBonus(finish, res.Gender, in.RaceID, in.Records)
	if err != nil {
		return models.ScoreBreakdown{}, err
	}
	b.RecordBonusPoints = recPoints
	b.Bonuses = append(b.Bonuses, recNames...)

	b.SumPoints()
	return b, nil
}

func (c *Calculator) zero(res models.AthleteResult, status models.ScoreStatus) models.ScoreBreakdown {
	b := models.ZeroBreakdown(res.AthleteID, status)
	b.Gender = res.Gender
	b.RuleSetVersion = c.rules.Version
	return b
}

func (c *Calculator) recordBonus(finish int64, gender models.Gender, raceID int, records []models.RaceRecord) (int, []string, error) {
	total := 0
	var names []string
	for _, rt := range models.RecordTypes {
		rec := currentConfirmed(records, raceID, gender, rt)
		if rec == nil || finish > rec.TimeMs {
			continue
		}
		pts, err := c.grantRecord(rec)
		if err != nil {
			return 0, nil, err
		}
		total += pts
		if rt == models.RecordWorld {
			names = append(names, BonusWorldRecord)
		} else {
			names = append(names, BonusCourseRecord)
		}
	}
	return total, names, nil
}

func (c *Calculator) grantRecord(rec *models.RaceRecord) (int, error) {
	if rec.State != models.RecordConfirmed {
		return 0, &AmbiguousRecordStateError{RecordID: rec.ID, State: rec.State}
	}
	if rec.RecordType == models.RecordWorld {
		return c.rules.RecordBonuses.World, nil
	}
	return c.rules.RecordBonuses.Course, nil
}

// currentConfirmed picks the fastest confirmed record in force at the start of the race.
// Records set by a result of this race (GameID != nil) are not the baseline: a new
// record confirmed mid-race must not take the bonus away from the other finishers.
func currentConfirmed(records []models.RaceRecord, raceID int, gender models.Gender, rt models.RecordType) *models.RaceRecord {
	var best *models.RaceRecord
	for i := range records {
		r := &records[i]
		if r.RaceID != raceID || r.RecordType != rt || r.Gender != gender || r.State != models.RecordConfirmed {
			continue
		}
		if r.GameID != nil {
			continue
		}
		if best == nil || r.TimeMs < best.TimeMs {
			best = r
		}
	}
	return best
}
