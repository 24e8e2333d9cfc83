package scoring

import (
	"github.com/Dosada05/fantasy-marathon/models"
)

const (
	BonusNegativeSplit = "negative_split"
	BonusEvenPace      = "even_pace"
	BonusFastFinish    = "fast_finish"
	BonusWorldRecord   = "world_record"
	BonusCourseRecord  = "course_record"
)

type earnedBonus struct {
	name string
	rule models.BonusRule
}

// usableCheckpoints returns the splits only when they strictly increase and end
// before the finish. Anything else is treated as bad data and earns no bonus.
func usableCheckpoints(result *models.AthleteResult, finishMs int64) ([]models.Checkpoint, bool) {
	cps := result.Splits()
	prev := int64(0)
	for _, cp := range cps {
		if cp.TimeMs <= prev {
			return nil, false
		}
		prev = cp.TimeMs
	}
	if finishMs <= prev {
		return nil, false
	}
	return cps, true
}

func evaluatePerformance(result *models.AthleteResult, finishMs int64, rules models.PerformanceBonuses) []earnedBonus {
	cps, ok := usableCheckpoints(result, finishMs)
	if !ok {
		return nil
	}

	var earned []earnedBonus
	if r := rules.NegativeSplit; r.Points > 0 && result.SplitHalfMs != nil {
		firstHalf := *result.SplitHalfMs
		secondHalf := finishMs - firstHalf
		margin := firstHalf - secondHalf
		if margin > 0 && margin >= r.ThresholdMs {
			earned = append(earned, earnedBonus{name: BonusNegativeSplit, rule: r})
		}
	}

	if r := rules.EvenPace; r.Points > 0 && len(cps) >= 2 {
		minPace, maxPace := segmentPaceSpread(cps, finishMs)
		if maxPace-minPace <= float64(r.ThresholdMs) {
			earned = append(earned, earnedBonus{name: BonusEvenPace, rule: r})
		}
	}

	if r := rules.FastFinish; r.Points > 0 && result.Split40kMs != nil {
		lastKm := models.MarathonKm - models.Split40k.DistanceKm()
		lastPace := float64(finishMs-*result.Split40kMs) / lastKm
		avgPace := float64(finishMs) / models.MarathonKm
		diff := avgPace - lastPace
		if diff > 0 && diff >= float64(r.ThresholdMs) {
			earned = append(earned, earnedBonus{name: BonusFastFinish, rule: r})
		}
	}
	return earned
}

// segmentPaceSpread returns the slowest and fastest ms/km over consecutive segments,
// the last segment ending at the finish line.
func segmentPaceSpread(cps []models.Checkpoint, finishMs int64) (float64, float64) {
	var minPace, maxPace float64
	prevKm, prevMs := 0.0, int64(0)
	first := true
	observe := func(km float64, ms int64) {
		pace := float64(ms-prevMs) / (km - prevKm)
		if first || pace < minPace {
			minPace = pace
		}
		if first || pace > maxPace {
			maxPace = pace
		}
		first = false
		prevKm, prevMs = km, ms
	}
	for _, cp := range cps {
		observe(cp.Label.DistanceKm(), cp.TimeMs)
	}
	observe(models.MarathonKm, finishMs)
	return minPace, maxPace
}

// combineBonuses applies the stacking policy. Under "stack" the non-exclusive
// bonuses add up and an exclusive bonus only replaces them when it is worth more.
// Under "exclusive" the single most valuable bonus is kept.
func combineBonuses(earned []earnedBonus, policy models.StackingPolicy) (int, []string) {
	if len(earned) == 0 {
		return 0, nil
	}

	best := earned[0]
	for _, b := range earned[1:] {
		if b.rule.Points > best.rule.Points {
			best = b
		}
	}
	if policy == models.StackingExclusive {
		return best.rule.Points, []string{best.name}
	}

	sum := 0
	var names []string
	var bestExclusive *earnedBonus
	for i := range earned {
		b := earned[i]
		if b.rule.Exclusive {
			if bestExclusive == nil || b.rule.Points > bestExclusive.rule.Points {
				bestExclusive = &earned[i]
			}
			continue
		}
		sum += b.rule.Points
		names = append(names, b.name)
	}
	if bestExclusive != nil && bestExclusive.rule.Points > sum {
		return bestExclusive.rule.Points, []string{bestExclusive.name}
	}
	return sum, names
}
