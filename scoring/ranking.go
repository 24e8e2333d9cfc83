package scoring

import "sort"

type rankEntry struct {
	AthleteID int
	TimeMs    int64
}

// competitionRanks assigns standard competition ranks ("1224") by ascending time.
// Equal times share a rank and the following rank is skipped.
func competitionRanks(entries []rankEntry) map[int]int {
	sorted := make([]rankEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TimeMs != sorted[j].TimeMs {
			return sorted[i].TimeMs < sorted[j].TimeMs
		}
		return sorted[i].AthleteID < sorted[j].AthleteID
	})

	ranks := make(map[int]int, len(sorted))
	for i, e := range sorted {
		if i > 0 && e.TimeMs == sorted[i-1].TimeMs {
			ranks[e.AthleteID] = ranks[sorted[i-1].AthleteID]
			continue
		}
		ranks[e.AthleteID] = i + 1
	}
	return ranks
}
