package services

import "errors"

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	ErrGameNotFound    = errors.New("game not found")
	ErrRuleSetNotFound = errors.New("scoring rule set not found")
	ErrAthleteNotFound = errors.New("athlete not found in this game")
	ErrInvalidResult   = errors.New("invalid athlete result")
	ErrInvalidRoster   = errors.New("invalid roster")
	ErrGameNotFinal    = errors.New("game standings are not final yet")
	ErrGameFinalized   = errors.New("game is already finalized")

	ErrRecordNotFound          = errors.New("race record not found")
	ErrInvalidRecordTransition = errors.New("record state transition not allowed")
	ErrRosterConflict          = errors.New("athlete listed twice on roster")
)
