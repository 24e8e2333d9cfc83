package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/fantasy-marathon/cache"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/repositories"
)

type GameService interface {
	CreateGame(ctx context.Context, game *models.Game) (*models.Game, error)
	SetRoster(ctx context.Context, gameID int, playerCode string, athleteIDs []int) error
}

type gameService struct {
	gameRepo   repositories.GameRepository
	rosterRepo repositories.RosterRepository
	rules      RuleSource
	cache      *cache.StandingsCache
	logger     *slog.Logger
}

func NewGameService(
	gameRepo repositories.GameRepository,
	rosterRepo repositories.RosterRepository,
	rules RuleSource,
	standingsCache *cache.StandingsCache,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:   gameRepo,
		rosterRepo: rosterRepo,
		rules:      rules,
		cache:      standingsCache,
		logger:     logger,
	}
}

// CreateGame закрепляет за игрой версию правил; без версии берётся последняя.
func (s *gameService) CreateGame(ctx context.Context, game *models.Game) (*models.Game, error) {
	if game == nil || strings.TrimSpace(game.Name) == "" || game.RaceID <= 0 {
		return nil, fmt.Errorf("%w: game needs a name and a race", ErrValidationFailed)
	}
	if game.RuleSetVersion == 0 {
		latest, err := s.rules.Latest()
		if err != nil {
			return nil, handleRepositoryError(err)
		}
		game.RuleSetVersion = latest.Version
	} else if _, err := s.rules.Get(game.RuleSetVersion); err != nil {
		return nil, handleRepositoryError(err)
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, err
	}
	s.logger.Info("game created", slog.Int("game_id", game.ID), slog.Int("rule_set_version", game.RuleSetVersion))
	return game, nil
}

func (s *gameService) SetRoster(ctx context.Context, gameID int, playerCode string, athleteIDs []int) error {
	playerCode = strings.TrimSpace(playerCode)
	if playerCode == "" {
		return fmt.Errorf("%w: player code is required", ErrInvalidRoster)
	}
	if len(athleteIDs) != models.RosterSize {
		return fmt.Errorf("%w: need %d athletes, got %d", ErrInvalidRoster, models.RosterSize, len(athleteIDs))
	}
	seen := make(map[int]bool, len(athleteIDs))
	for _, id := range athleteIDs {
		if id <= 0 || seen[id] {
			return fmt.Errorf("%w: athlete %d", ErrInvalidRoster, id)
		}
		seen[id] = true
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return handleRepositoryError(err)
	}
	if game.Finalized() {
		return fmt.Errorf("%w: game %d", ErrGameFinalized, gameID)
	}
	if err := s.rosterRepo.Replace(ctx, gameID, playerCode, athleteIDs); err != nil {
		return handleRepositoryError(err)
	}
	s.cache.Invalidate(gameID)
	return nil
}
