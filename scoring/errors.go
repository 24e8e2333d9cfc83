package scoring

import (
	"errors"
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

var (
	ErrInvalidRoster   = errors.New("roster must contain exactly 6 distinct athletes")
	ErrFinishedResult  = errors.New("result already has a finish time")
	ErrInvalidSplit    = errors.New("split time must be positive")
	ErrInvalidGender   = errors.New("result has unknown gender")
	ErrInvalidInput    = errors.New("invalid scoring input")
	ErrDuplicateResult = errors.New("duplicate athlete result in game")
)

// IncompleteResultError means a result without a finish time reached the final
// calculator. The dispatcher should have routed it to the projector.
type IncompleteResultError struct {
	AthleteID int
}

func (e *IncompleteResultError) Error() string {
	return fmt.Sprintf("athlete %d: result has no finish time", e.AthleteID)
}

// AmbiguousRecordStateError is raised when a record bonus is about to be granted
// against a record that is not confirmed.
type AmbiguousRecordStateError struct {
	RecordID string
	State    models.RecordState
}

func (e *AmbiguousRecordStateError) Error() string {
	return fmt.Sprintf("record %s: bonus requested in state %s", e.RecordID, e.State)
}
