package scoring

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Dosada05/fantasy-marathon/models"
)

func TestNewCalculatorRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rs *models.ScoringRuleSet)
	}{
		{"missing placement table", func(rs *models.ScoringRuleSet) { rs.PlacementPoints = nil }},
		{"negative placement points", func(rs *models.ScoringRuleSet) { rs.PlacementPoints[3] = -1 }},
		{"missing tiers", func(rs *models.ScoringRuleSet) { rs.TimeGapTiers = nil }},
		{"tiers out of order", func(rs *models.ScoringRuleSet) {
			rs.TimeGapTiers[1].MaxGapMs = rs.TimeGapTiers[0].MaxGapMs
		}},
		{"unknown stacking policy", func(rs *models.ScoringRuleSet) { rs.StackingPolicy = "sometimes" }},
		{"fatigue below one", func(rs *models.ScoringRuleSet) {
			rs.FatigueFactors = map[models.SplitLabel]float64{models.Split40k: 0.99}
		}},
		{"fatigue grows with distance", func(rs *models.ScoringRuleSet) {
			rs.FatigueFactors = map[models.SplitLabel]float64{models.Split40k: 1.2}
		}},
		{"zero version", func(rs *models.ScoringRuleSet) { rs.Version = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := testRules()
			tt.mutate(rs)
			_, err := NewCalculator(rs)
			var ruleErr *models.InvalidRuleSetError
			if !errors.As(err, &ruleErr) {
				t.Fatalf("expected InvalidRuleSetError, got %v", err)
			}
		})
	}
}

func TestCalculatorIncompleteResult(t *testing.T) {
	calc, err := NewCalculator(testRules())
	if err != nil {
		t.Fatal(err)
	}
	_, err = calc.Score(FinisherInput{Result: onCourse(5, models.GenderMen, models.SplitHalf, 3_750_000), Placement: 1})
	var incomplete *IncompleteResultError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteResultError, got %v", err)
	}
	if incomplete.AthleteID != 5 {
		t.Errorf("athlete id = %d, want 5", incomplete.AthleteID)
	}
}

func TestCalculatorPlacementAndGap(t *testing.T) {
	calc, _ := NewCalculator(testRules())

	tests := []struct {
		name      string
		finish    int64
		placement int
		wantPlace int
		wantGap   int
		wantTotal int
	}{
		{"winner", h2m05s00, 1, 10, 5, 15},
		{"second tier", h2m05s00 + 90_000, 2, 9, 3, 12},
		{"last tier", h2m07s30, 2, 9, 1, 10},
		{"beyond tiers", h2m05s00 + 301_000, 5, 6, 0, 6},
		{"outside placement table", h2m05s00 + 10_000, 11, 0, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.Score(FinisherInput{
				Result:       finisher(1, models.GenderMen, tt.finish),
				Placement:    tt.placement,
				WinnerTimeMs: h2m05s00,
			})
			if err != nil {
				t.Fatal(err)
			}
			if b.PlacementPoints != tt.wantPlace || b.TimeGapPoints != tt.wantGap || b.TotalPoints != tt.wantTotal {
				t.Errorf("got placement=%d gap=%d total=%d, want %d/%d/%d",
					b.PlacementPoints, b.TimeGapPoints, b.TotalPoints, tt.wantPlace, tt.wantGap, tt.wantTotal)
			}
			if b.IsTemporary || b.ProjectionSource != nil {
				t.Errorf("final score must not be temporary: %+v", b)
			}
		})
	}
}

func TestCalculatorDeterministic(t *testing.T) {
	calc, _ := NewCalculator(testRules())
	r := finisher(3, models.GenderWomen, 8_100_000)
	r.SplitHalfMs = models.Int64Ptr(4_100_000)
	r.Split40kMs = models.Int64Ptr(7_700_000)
	in := FinisherInput{Result: r, Placement: 2, WinnerTimeMs: 8_050_000}

	first, err := calc.Score(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, _ := calc.Score(in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestCalculatorPerformanceBonuses(t *testing.T) {
	base := finisher(1, models.GenderMen, 7_500_000)

	negative := base
	negative.SplitHalfMs = models.Int64Ptr(3_800_000)

	even := finisher(1, models.GenderMen, 7_468_515)
	even.Split5kMs = models.Int64Ptr(885_000)
	even.Split10kMs = models.Int64Ptr(1_770_000)

	kick := base
	kick.Split40kMs = models.Int64Ptr(7_200_000)

	both := base
	both.SplitHalfMs = models.Int64Ptr(3_800_000)
	both.Split40kMs = models.Int64Ptr(7_200_000)

	broken := base
	broken.Split10kMs = models.Int64Ptr(4_000_000)
	broken.SplitHalfMs = models.Int64Ptr(3_800_000)

	tests := []struct {
		name   string
		result models.AthleteResult
		rules  func(rs *models.ScoringRuleSet)
		want   int
		names  []string
	}{
		{"no splits", base, nil, 0, nil},
		{"negative split", negative, nil, 2, []string{BonusNegativeSplit}},
		{"even pace", even, nil, 1, []string{BonusEvenPace}},
		{"fast finish", kick, nil, 1, []string{BonusFastFinish}},
		{"stacked", both, nil, 3, []string{BonusNegativeSplit, BonusFastFinish}},
		{"exclusive policy", both, func(rs *models.ScoringRuleSet) {
			rs.StackingPolicy = models.StackingExclusive
		}, 2, []string{BonusNegativeSplit}},
		{"exclusive bonus worth less than stack", both, func(rs *models.ScoringRuleSet) {
			rs.PerformanceBonuses.FastFinish.Exclusive = true
		}, 2, []string{BonusNegativeSplit}},
		{"exclusive bonus worth more than stack", both, func(rs *models.ScoringRuleSet) {
			rs.PerformanceBonuses.FastFinish.Exclusive = true
			rs.PerformanceBonuses.FastFinish.Points = 4
		}, 4, []string{BonusFastFinish}},
		{"threshold not met", negative, func(rs *models.ScoringRuleSet) {
			rs.PerformanceBonuses.NegativeSplit.ThresholdMs = 200_000
		}, 0, nil},
		{"non increasing splits", broken, nil, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := testRules()
			if tt.rules != nil {
				tt.rules(rs)
			}
			calc, err := NewCalculator(rs)
			if err != nil {
				t.Fatal(err)
			}
			b, err := calc.Score(FinisherInput{Result: tt.result, Placement: 1, WinnerTimeMs: *tt.result.FinishTimeMs})
			if err != nil {
				t.Fatal(err)
			}
			if b.PerformanceBonusPoints != tt.want {
				t.Errorf("performance bonus = %d, want %d", b.PerformanceBonusPoints, tt.want)
			}
			if !reflect.DeepEqual(b.Bonuses, tt.names) {
				t.Errorf("bonuses = %v, want %v", b.Bonuses, tt.names)
			}
		})
	}
}

func TestCalculatorRecordBonusGate(t *testing.T) {
	calc, _ := NewCalculator(testRules())
	athlete := finisher(4, models.GenderMen, h2m05s45)

	tests := []struct {
		name    string
		records []models.RaceRecord
		want    int
	}{
		{"confirmed course record beaten", []models.RaceRecord{courseRecord(models.RecordConfirmed, h2m06s00)}, 5},
		{"provisional record is not enough", []models.RaceRecord{courseRecord(models.RecordProvisional, h2m06s00)}, 0},
		{"rejected record", []models.RaceRecord{courseRecord(models.RecordRejected, h2m06s00)}, 0},
		{"equal time qualifies", []models.RaceRecord{courseRecord(models.RecordConfirmed, h2m05s45)}, 5},
		{"record not beaten", []models.RaceRecord{courseRecord(models.RecordConfirmed, h2m05s00)}, 0},
		{"other race", []models.RaceRecord{func() models.RaceRecord {
			r := courseRecord(models.RecordConfirmed, h2m06s00)
			r.RaceID = 8
			return r
		}()}, 0},
		{"world and course are additive", []models.RaceRecord{
			courseRecord(models.RecordConfirmed, h2m06s00),
			{ID: "wr", RaceID: 7, Gender: models.GenderMen, RecordType: models.RecordWorld, TimeMs: h2m06s00, State: models.RecordConfirmed},
		}, 20},
		{"fastest confirmed record wins", []models.RaceRecord{
			courseRecord(models.RecordConfirmed, h2m06s00),
			func() models.RaceRecord {
				r := courseRecord(models.RecordConfirmed, h2m05s00)
				r.ID = "newer"
				return r
			}(),
		}, 0},
		{"record set in this race is not the baseline", []models.RaceRecord{
			courseRecord(models.RecordConfirmed, h2m06s00),
			func() models.RaceRecord {
				r := courseRecord(models.RecordConfirmed, h2m05s00)
				r.ID = "set-today"
				game := 1
				r.GameID = &game
				return r
			}(),
		}, 5},
		{"only a record set in this race", []models.RaceRecord{func() models.RaceRecord {
			r := courseRecord(models.RecordConfirmed, h2m06s00)
			game := 2
			r.GameID = &game
			return r
		}()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := calc.Score(FinisherInput{
				Result:       athlete,
				Placement:    1,
				WinnerTimeMs: h2m05s45,
				RaceID:       7,
				Records:      tt.records,
			})
			if err != nil {
				t.Fatal(err)
			}
			if b.RecordBonusPoints != tt.want {
				t.Errorf("record bonus = %d, want %d", b.RecordBonusPoints, tt.want)
			}
		})
	}
}

func TestGrantRecordRejectsUnconfirmed(t *testing.T) {
	calc, _ := NewCalculator(testRules())
	rec := courseRecord(models.RecordProvisional, h2m06s00)
	_, err := calc.grantRecord(&rec)
	var ambiguous *AmbiguousRecordStateError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousRecordStateError, got %v", err)
	}
}

func TestCalculatorExcludedAthletes(t *testing.T) {
	calc, _ := NewCalculator(testRules())
	dnf := finisher(9, models.GenderWomen, 8_000_000)
	dnf.DNF = true
	b, err := calc.Score(FinisherInput{Result: dnf, Placement: 1, WinnerTimeMs: 8_000_000})
	if err != nil {
		t.Fatal(err)
	}
	if b.TotalPoints != 0 || b.Status != models.ScoreDNF {
		t.Errorf("DNF athlete scored %+v", b)
	}
}

func TestCompetitionRanks(t *testing.T) {
	ranks := competitionRanks([]rankEntry{
		{AthleteID: 1, TimeMs: 100},
		{AthleteID: 2, TimeMs: 90},
		{AthleteID: 3, TimeMs: 100},
		{AthleteID: 4, TimeMs: 120},
	})
	want := map[int]int{2: 1, 1: 2, 3: 2, 4: 4}
	if !reflect.DeepEqual(ranks, want) {
		t.Errorf("ranks = %v, want %v", ranks, want)
	}
}
