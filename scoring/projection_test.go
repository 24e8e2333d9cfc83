package scoring

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/Dosada05/fantasy-marathon/models"
)

func TestProjectHalfSplit(t *testing.T) {
	p, err := NewProjector(testRules())
	if err != nil {
		t.Fatal(err)
	}
	proj, err := p.Project(onCourse(3, models.GenderMen, models.SplitHalf, 3_750_000))
	if err != nil {
		t.Fatal(err)
	}

	if proj.State != StateProjected || proj.Source != models.SplitHalf {
		t.Fatalf("unexpected projection %+v", proj)
	}
	if math.Abs(proj.PaceMsPerKm-177_746) > 1 {
		t.Errorf("pace = %.1f ms/km, want about 177746", proj.PaceMsPerKm)
	}
	if proj.FatigueFactor != 1.06 {
		t.Errorf("fatigue = %v, want 1.06", proj.FatigueFactor)
	}
	// 3 750 000 + 21.0975 km * pace * 1.06 = 2:08:45
	if proj.ProjectedFinishMs != 7_725_000 {
		t.Errorf("projected finish = %d, want 7725000", proj.ProjectedFinishMs)
	}

	b := p.Score(proj, 1)
	if !b.IsTemporary || b.ProjectionSource == nil || *b.ProjectionSource != models.SplitHalf {
		t.Errorf("breakdown not marked temporary: %+v", b)
	}
	if b.TotalPoints != 10 || b.TimeGapPoints != 0 || b.PerformanceBonusPoints != 0 || b.RecordBonusPoints != 0 {
		t.Errorf("temporary points must be placement only, got %+v", b)
	}
}

func TestProjectUsesMostAdvancedSplit(t *testing.T) {
	p, _ := NewProjector(testRules())
	r := onCourse(1, models.GenderWomen, models.Split10k, 2_000_000)
	r.Split30kMs = models.Int64Ptr(6_000_000)
	r.Split5kMs = models.Int64Ptr(1_000_000)

	proj, err := p.Project(r)
	if err != nil {
		t.Fatal(err)
	}
	if proj.Source != models.Split30k {
		t.Errorf("source = %s, want 30k", proj.Source)
	}
	want := 6_000_000 + int64(math.Round((models.MarathonKm-30)*(6_000_000.0/30)*1.04))
	if proj.ProjectedFinishMs != want {
		t.Errorf("projected = %d, want %d", proj.ProjectedFinishMs, want)
	}
}

func TestProjectMonotonicInPace(t *testing.T) {
	p, _ := NewProjector(testRules())
	for _, label := range models.SplitOrder {
		t.Run(string(label), func(t *testing.T) {
			base := int64(label.DistanceKm() * 170_000)
			prev := int64(-1)
			for delta := int64(0); delta < 5_000; delta += 250 {
				proj, err := p.Project(onCourse(1, models.GenderMen, label, base+delta))
				if err != nil {
					t.Fatal(err)
				}
				if proj.ProjectedFinishMs <= prev {
					t.Fatalf("split %d: projected %d not above previous %d", base+delta, proj.ProjectedFinishMs, prev)
				}
				prev = proj.ProjectedFinishMs
			}
		})
	}
}

func TestProjectIdempotent(t *testing.T) {
	p, _ := NewProjector(testRules())
	r := onCourse(2, models.GenderMen, models.Split35k, 6_200_000)
	first, _ := p.Project(r)
	second, _ := p.Project(r)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("projection not idempotent: %+v vs %+v", first, second)
	}
}

func TestProjectEdgeCases(t *testing.T) {
	p, _ := NewProjector(testRules())

	proj, err := p.Project(models.AthleteResult{AthleteID: 1, Gender: models.GenderMen})
	if err != nil {
		t.Fatal(err)
	}
	if proj.State != StateNoData {
		t.Errorf("state = %s, want NO_DATA", proj.State)
	}
	if b := p.Score(proj, 0); b.TotalPoints != 0 || b.IsTemporary {
		t.Errorf("no-data athlete scored %+v", b)
	}

	if _, err := p.Project(finisher(1, models.GenderMen, h2m05s00)); !errors.Is(err, ErrFinishedResult) {
		t.Errorf("expected ErrFinishedResult, got %v", err)
	}
	if _, err := p.Project(onCourse(1, models.GenderMen, models.Split5k, 0)); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("expected ErrInvalidSplit, got %v", err)
	}
}

func TestProjectFatigueOverride(t *testing.T) {
	rs := testRules()
	rs.FatigueFactors = map[models.SplitLabel]float64{models.SplitHalf: 1.07, models.Split10k: 1.09, models.Split5k: 1.09}
	p, err := NewProjector(rs)
	if err != nil {
		t.Fatal(err)
	}
	proj, _ := p.Project(onCourse(3, models.GenderMen, models.SplitHalf, 3_750_000))
	if proj.FatigueFactor != 1.07 {
		t.Errorf("fatigue = %v, want 1.07", proj.FatigueFactor)
	}
}

func TestStateOf(t *testing.T) {
	if s := StateOf(&models.AthleteResult{}); s != StateNoData {
		t.Errorf("empty result state = %s", s)
	}
	r := onCourse(1, models.GenderMen, models.Split5k, 900_000)
	if s := StateOf(&r); s != StatePartialSplits {
		t.Errorf("split-only result state = %s", s)
	}
}
