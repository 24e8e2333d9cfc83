package scoring

import (
	"fmt"
	"sort"

	"github.com/Dosada05/fantasy-marathon/models"
)

// AggregateInput carries per-athlete scores and the externally assigned rosters.
// Results are needed only to decide hasFinishTimes.
type AggregateInput struct {
	GameID         int
	RuleSetVersion int
	Breakdowns     map[int]models.ScoreBreakdown
	Rosters        models.Rosters
	Results        []models.AthleteResult
}

// Aggregate builds ranked team standings.
func Aggregate(in AggregateInput) (*models.StandingsResponse, error) {
	finished := make(map[int]bool, len(in.Results))
	for i := range in.Results {
		if in.Results[i].HasFinish() {
			finished[in.Results[i].AthleteID] = true
		}
	}

	resp := &models.StandingsResponse{
		GameID:         in.GameID,
		RuleSetVersion: in.RuleSetVersion,
		Standings:      make([]models.TeamStanding, 0, len(in.Rosters)),
	}
	projected := make(map[int]models.SplitLabel)

	for code, athleteIDs := range in.Rosters {
		if err := validateRoster(athleteIDs); err != nil {
			return nil, fmt.Errorf("player %s: %w", code, err)
		}

		team := models.TeamStanding{
			PlayerCode: code,
			Athletes:   make([]models.ScoreBreakdown, 0, len(athleteIDs)),
		}
		for _, id := range athleteIDs {
			b, ok := in.Breakdowns[id]
			if !ok {
				b = models.ZeroBreakdown(id, models.ScoreNoData)
			}
			team.Athletes = append(team.Athletes, b)
			team.TotalPoints += b.TotalPoints
			if b.Placement >= 1 && b.Placement <= 3 {
				team.TopThreeCount++
			}
			if b.TimeGapMs != nil {
				team.TimeGapSumMs += *b.TimeGapMs
				team.TimeGapCount++
			}

			// Два флага считаются независимо друг от друга.
			if b.IsTemporary {
				resp.IsTemporary = true
				var source models.SplitLabel
				if b.ProjectionSource != nil {
					source = *b.ProjectionSource
				}
				projected[id] = source
			}
			if finished[id] {
				resp.HasFinishTimes = true
			}
		}
		resp.Standings = append(resp.Standings, team)
	}

	sort.Slice(resp.Standings, func(i, j int) bool {
		a, b := resp.Standings[i], resp.Standings[j]
		if c := compareTeams(a, b); c != 0 {
			return c < 0
		}
		return a.PlayerCode < b.PlayerCode
	})
	for i := range resp.Standings {
		if i > 0 && compareTeams(resp.Standings[i-1], resp.Standings[i]) == 0 {
			resp.Standings[i].Rank = resp.Standings[i-1].Rank
			continue
		}
		resp.Standings[i].Rank = i + 1
	}

	if len(projected) > 0 {
		// Спортсмен может стоять в нескольких составах, считаем его один раз.
		splitCounts := make(map[models.SplitLabel]int)
		for _, source := range projected {
			if source != "" {
				splitCounts[source]++
			}
		}
		resp.ProjectionInfo = &models.ProjectionInfo{
			MostCommonSplit:      mostCommonSplit(splitCounts),
			SplitCounts:          splitCounts,
			TotalWithProjections: len(projected),
		}
	}
	return resp, nil
}

// compareTeams orders by points, then top-3 placements, then the number of known
// time gaps (more first), then smaller gap sum. Неизвестный разрыв не считается нулём.
// Player code is the final tie-break but does not split a shared rank.
func compareTeams(a, b models.TeamStanding) int {
	switch {
	case a.TotalPoints != b.TotalPoints:
		if a.TotalPoints > b.TotalPoints {
			return -1
		}
		return 1
	case a.TopThreeCount != b.TopThreeCount:
		if a.TopThreeCount > b.TopThreeCount {
			return -1
		}
		return 1
	case a.TimeGapCount != b.TimeGapCount:
		if a.TimeGapCount > b.TimeGapCount {
			return -1
		}
		return 1
	case a.TimeGapSumMs != b.TimeGapSumMs:
		if a.TimeGapSumMs < b.TimeGapSumMs {
			return -1
		}
		return 1
	}
	return 0
}

func validateRoster(ids []int) error {
	if len(ids) != models.RosterSize {
		return fmt.Errorf("%w: got %d athletes", ErrInvalidRoster, len(ids))
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: athlete %d listed twice", ErrInvalidRoster, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// mostCommonSplit breaks count ties in favour of the more advanced split.
func mostCommonSplit(counts map[models.SplitLabel]int) models.SplitLabel {
	var best models.SplitLabel
	bestCount := 0
	for i := len(models.SplitOrder) - 1; i >= 0; i-- {
		label := models.SplitOrder[i]
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}
