package models

import "time"

// Game is one fantasy contest played over a single race.
type Game struct {
	ID             int        `json:"id" db:"id"`
	RaceID         int        `json:"race_id" db:"race_id"`
	Name           string     `json:"name" db:"name"`
	RuleSetVersion int        `json:"rule_set_version" db:"rule_set_version"`
	FinalizedAt    *time.Time `json:"finalized_at,omitempty" db:"finalized_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

func (g *Game) Finalized() bool {
	return g.FinalizedAt != nil
}

// RosterSize is the number of athletes on every fantasy team (3 men + 3 women).
const RosterSize = 6

// Rosters maps a player code to the athlete IDs on that player's team.
type Rosters map[string][]int
