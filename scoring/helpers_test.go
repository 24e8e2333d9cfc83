package scoring

import (
	"github.com/Dosada05/fantasy-marathon/models"
)

const (
	h2m05s00 = int64(2*3600+5*60) * 1000
	h2m05s45 = int64(2*3600+5*60+45) * 1000
	h2m06s00 = int64(2*3600+6*60) * 1000
	h2m07s30 = int64(2*3600+7*60+30) * 1000
)

func testRules() *models.ScoringRuleSet {
	return &models.ScoringRuleSet{
		Version:         1,
		PlacementPoints: []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		TimeGapTiers: []models.TimeGapTier{
			{MaxGapMs: 60_000, Points: 5},
			{MaxGapMs: 120_000, Points: 3},
			{MaxGapMs: 300_000, Points: 1},
		},
		PerformanceBonuses: models.PerformanceBonuses{
			NegativeSplit: models.BonusRule{ThresholdMs: 0, Points: 2},
			EvenPace:      models.BonusRule{ThresholdMs: 10_000, Points: 1},
			FastFinish:    models.BonusRule{ThresholdMs: 5_000, Points: 1},
		},
		RecordBonuses: models.RecordBonuses{World: 15, Course: 5},
	}
}

func finisher(id int, g models.Gender, finishMs int64) models.AthleteResult {
	return models.AthleteResult{AthleteID: id, GameID: 1, Gender: g, FinishTimeMs: models.Int64Ptr(finishMs), IsFinal: true}
}

func onCourse(id int, g models.Gender, label models.SplitLabel, splitMs int64) models.AthleteResult {
	r := models.AthleteResult{AthleteID: id, GameID: 1, Gender: g}
	r.SetSplit(label, models.Int64Ptr(splitMs))
	return r
}

func courseRecord(state models.RecordState, timeMs int64) models.RaceRecord {
	return models.RaceRecord{
		ID:         "rec-course-men",
		RaceID:     7,
		Gender:     models.GenderMen,
		RecordType: models.RecordCourse,
		TimeMs:     timeMs,
		State:      state,
	}
}

func mustEngine(rules *models.ScoringRuleSet) *Engine {
	e, err := NewEngine(rules)
	if err != nil {
		panic(err)
	}
	return e
}
