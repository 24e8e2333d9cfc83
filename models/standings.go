package models

// TeamStanding is one fantasy team's line in the leaderboard.
type TeamStanding struct {
	PlayerCode    string           `json:"player_code" yaml:"player_code"`
	Athletes      []ScoreBreakdown `json:"athletes" yaml:"athletes"`
	TotalPoints   int              `json:"total_points" yaml:"total_points"`
	Rank          int              `json:"rank" yaml:"rank"`
	TopThreeCount int              `json:"top_three_count" yaml:"top_three_count"`
	TimeGapSumMs  int64            `json:"time_gap_sum_ms" yaml:"time_gap_sum_ms"`
	TimeGapCount  int              `json:"time_gap_count" yaml:"time_gap_count"`
}

// ProjectionInfo summarises which splits the provisional scores were built from.
type ProjectionInfo struct {
	MostCommonSplit      SplitLabel         `json:"mostCommonSplit" yaml:"most_common_split"`
	SplitCounts          map[SplitLabel]int `json:"splitCounts" yaml:"split_counts"`
	TotalWithProjections int                `json:"totalWithProjections" yaml:"total_with_projections"`
}

// StandingsResponse is what the API layer serves for a game.
// isTemporary and hasFinishTimes are derived independently and may both be true.
type StandingsResponse struct {
	GameID         int             `json:"gameId" yaml:"game_id"`
	RuleSetVersion int             `json:"ruleSetVersion" yaml:"rule_set_version"`
	Standings      []TeamStanding  `json:"standings" yaml:"standings"`
	IsTemporary    bool            `json:"isTemporary" yaml:"is_temporary"`
	HasFinishTimes bool            `json:"hasFinishTimes" yaml:"has_finish_times"`
	ProjectionInfo *ProjectionInfo `json:"projectionInfo" yaml:"projection_info"`
}
