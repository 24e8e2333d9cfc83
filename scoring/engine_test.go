package scoring

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Dosada05/fantasy-marathon/models"
)

func TestEngineFinishersOnly(t *testing.T) {
	e := mustEngine(testRules())
	in := GameInput{
		GameID: 1,
		RaceID: 7,
		Results: []models.AthleteResult{
			finisher(1, models.GenderMen, h2m05s00),
			finisher(2, models.GenderMen, h2m07s30),
		},
	}
	resp, breakdowns, err := e.Standings(in, models.Rosters{"P1": {1, 2, 3, 4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}

	if breakdowns[1].Placement != 1 || breakdowns[2].Placement != 2 {
		t.Errorf("placements = %d, %d; want 1, 2", breakdowns[1].Placement, breakdowns[2].Placement)
	}
	if resp.IsTemporary {
		t.Error("isTemporary should be false with only final results")
	}
	if !resp.HasFinishTimes {
		t.Error("hasFinishTimes should be true")
	}
	if got := resp.Standings[0].TotalPoints; got != 25 {
		t.Errorf("team total = %d, want 25", got)
	}
	if resp.RuleSetVersion != 1 {
		t.Errorf("rule set version = %d", resp.RuleSetVersion)
	}
}

func TestEngineMixedFinishAndSplits(t *testing.T) {
	e := mustEngine(testRules())
	in := GameInput{
		GameID: 1,
		Results: []models.AthleteResult{
			finisher(1, models.GenderMen, h2m05s00),
			onCourse(3, models.GenderMen, models.SplitHalf, 3_750_000),
		},
	}
	resp, breakdowns, err := e.Standings(in, models.Rosters{"P1": {1, 3, 4, 5, 6, 7}})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.HasFinishTimes || !resp.IsTemporary {
		t.Fatalf("want both flags true, got isTemporary=%v hasFinishTimes=%v", resp.IsTemporary, resp.HasFinishTimes)
	}
	c := breakdowns[3]
	if !c.IsTemporary || c.Status != models.ScoreProjected || *c.ProjectionSource != models.SplitHalf {
		t.Errorf("athlete C breakdown = %+v", c)
	}
	if c.Placement != 2 || c.TotalPoints != 9 {
		t.Errorf("athlete C placement=%d points=%d, want 2/9", c.Placement, c.TotalPoints)
	}
	if breakdowns[1].IsTemporary {
		t.Error("finisher must not be temporary")
	}
	if resp.ProjectionInfo == nil || resp.ProjectionInfo.MostCommonSplit != models.SplitHalf {
		t.Errorf("projection info = %+v", resp.ProjectionInfo)
	}
}

func TestEngineProjectedRankingUsesCombinedOrder(t *testing.T) {
	e := mustEngine(testRules())
	breakdowns, err := e.ScoreGame(GameInput{Results: []models.AthleteResult{
		finisher(1, models.GenderMen, h2m05s00),
		onCourse(3, models.GenderMen, models.SplitHalf, 3_750_000),
		onCourse(5, models.GenderMen, models.Split40k, 7_000_000),
	}})
	if err != nil {
		t.Fatal(err)
	}
	got := map[int]int{1: breakdowns[1].Placement, 3: breakdowns[3].Placement, 5: breakdowns[5].Placement}
	want := map[int]int{1: 1, 3: 3, 5: 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("placements = %v, want %v", got, want)
	}
}

func TestEngineRecordBonusScenarios(t *testing.T) {
	tests := []struct {
		name  string
		state models.RecordState
		want  int
	}{
		{"confirmed course record", models.RecordConfirmed, 5},
		{"provisional course record", models.RecordProvisional, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEngine(testRules())
			breakdowns, err := e.ScoreGame(GameInput{
				RaceID:  7,
				Results: []models.AthleteResult{finisher(4, models.GenderMen, h2m05s45)},
				Records: []models.RaceRecord{courseRecord(tt.state, h2m06s00)},
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := breakdowns[4].RecordBonusPoints; got != tt.want {
				t.Errorf("record bonus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEngineExcludedAndEmptyAthletes(t *testing.T) {
	e := mustEngine(testRules())
	dnf := finisher(2, models.GenderMen, 7_000_000)
	dnf.DNF = true
	dns := models.AthleteResult{AthleteID: 3, Gender: models.GenderMen, DNS: true}
	empty := models.AthleteResult{AthleteID: 4, Gender: models.GenderWomen}

	resp, breakdowns, err := e.Standings(GameInput{Results: []models.AthleteResult{
		finisher(1, models.GenderMen, h2m05s00),
		dnf, dns, empty,
		finisher(5, models.GenderWomen, 8_000_000),
	}}, models.Rosters{"P1": {1, 2, 3, 4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}

	if breakdowns[1].Placement != 1 {
		t.Errorf("DNF athlete must not take a place, A placement = %d", breakdowns[1].Placement)
	}
	if breakdowns[5].Placement != 1 {
		t.Errorf("women ranked separately, placement = %d", breakdowns[5].Placement)
	}
	for id, status := range map[int]models.ScoreStatus{2: models.ScoreDNF, 3: models.ScoreDNS, 4: models.ScoreNoData} {
		b := breakdowns[id]
		if b.Status != status || b.TotalPoints != 0 || b.Placement != 0 {
			t.Errorf("athlete %d: %+v, want status %s and 0 points", id, b, status)
		}
	}
	// 15 (A) + 15 (women winner) + slot 6 with no result
	if resp.Standings[0].TotalPoints != 30 {
		t.Errorf("team total = %d, want 30", resp.Standings[0].TotalPoints)
	}
}

func TestEngineRejectsBadInput(t *testing.T) {
	e := mustEngine(testRules())

	_, err := e.ScoreGame(GameInput{Results: []models.AthleteResult{
		finisher(1, models.GenderMen, h2m05s00),
		finisher(1, models.GenderMen, h2m07s30),
	}})
	if !errors.Is(err, ErrDuplicateResult) {
		t.Errorf("expected ErrDuplicateResult, got %v", err)
	}

	_, err = e.ScoreGame(GameInput{Results: []models.AthleteResult{{AthleteID: 1, Gender: "mixed"}}})
	if !errors.Is(err, ErrInvalidGender) {
		t.Errorf("expected ErrInvalidGender, got %v", err)
	}

	if _, err := NewEngine(&models.ScoringRuleSet{Version: 2}); err == nil {
		t.Error("expected error for empty rule set")
	}
}

func TestEngineDeterministic(t *testing.T) {
	e := mustEngine(testRules())
	in := GameInput{Results: []models.AthleteResult{
		finisher(1, models.GenderMen, h2m05s00),
		finisher(2, models.GenderMen, h2m05s00),
		finisher(6, models.GenderMen, h2m07s30),
		onCourse(3, models.GenderMen, models.Split30k, 5_400_000),
		onCourse(4, models.GenderWomen, models.Split10k, 2_000_000),
	}}
	rosters := models.Rosters{"A": {1, 2, 3, 4, 5, 6}, "B": {6, 5, 4, 3, 2, 1}}

	first, _, err := e.Standings(in, rosters)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, _, _ := e.Standings(in, rosters)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different standings", i)
		}
	}
	if first.Standings[0].Rank != 1 || first.Standings[1].Rank != 1 {
		t.Errorf("same athletes in different order should tie: %+v", first.Standings)
	}
	if first.Standings[0].PlayerCode != "A" {
		t.Errorf("tie must fall back to player code order")
	}
}
