package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/records"
	"github.com/Dosada05/fantasy-marathon/repositories"
	"github.com/Dosada05/fantasy-marathon/rulesets"
	"github.com/Dosada05/fantasy-marathon/scoring"
)

// Notifier публикует события живой ленты игры.
type Notifier interface {
	Publish(gameID int, eventType string, payload interface{})
}

// RuleSource отдаёт версию правил по номеру.
type RuleSource interface {
	Get(version int) (*models.ScoringRuleSet, error)
	Latest() (*models.ScoringRuleSet, error)
}

// handleRepositoryError переводит ошибки слоёв хранения в ошибки сервисов.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrGameNotFound):
		return fmt.Errorf("%w: %v", ErrGameNotFound, err)
	case errors.Is(err, repositories.ErrResultNotFound):
		return fmt.Errorf("%w: %v", ErrAthleteNotFound, err)
	case errors.Is(err, repositories.ErrResultInvalidRef):
		return fmt.Errorf("%w: %v", ErrGameNotFound, err)
	case errors.Is(err, repositories.ErrRosterConflict):
		return fmt.Errorf("%w: %v", ErrRosterConflict, err)
	case errors.Is(err, rulesets.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrRuleSetNotFound, err)
	case errors.Is(err, records.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrRecordNotFound, err)
	case errors.Is(err, records.ErrInvalidRecordTransition):
		return fmt.Errorf("%w: %v", ErrInvalidRecordTransition, err)
	case errors.Is(err, records.ErrInvalidCandidate):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	case errors.Is(err, scoring.ErrInvalidRoster):
		return fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	case errors.Is(err, scoring.ErrInvalidGender), errors.Is(err, scoring.ErrDuplicateResult), errors.Is(err, scoring.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return err
}
