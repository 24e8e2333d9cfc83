package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/fantasy-marathon/cache"
	"github.com/Dosada05/fantasy-marathon/live"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/records"
	"github.com/Dosada05/fantasy-marathon/repositories"
)

type ResultService interface {
	RecordResult(ctx context.Context, res *models.AthleteResult) (*models.AthleteResult, error)
}

type resultService struct {
	gameRepo   repositories.GameRepository
	resultRepo repositories.ResultRepository
	recordRepo repositories.RecordRepository
	registry   *records.Registry
	cache      *cache.StandingsCache
	notifier   Notifier
	logger     *slog.Logger
}

func NewResultService(
	gameRepo repositories.GameRepository,
	resultRepo repositories.ResultRepository,
	recordRepo repositories.RecordRepository,
	registry *records.Registry,
	standingsCache *cache.StandingsCache,
	notifier Notifier,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		gameRepo:   gameRepo,
		resultRepo: resultRepo,
		recordRepo: recordRepo,
		registry:   registry,
		cache:      standingsCache,
		notifier:   notifier,
		logger:     logger,
	}
}

// RecordResult сохраняет результат, сбрасывает кэш игры и проверяет рекорды.
func (s *resultService) RecordResult(ctx context.Context, res *models.AthleteResult) (*models.AthleteResult, error) {
	if err := validateResult(res); err != nil {
		return nil, err
	}

	game, err := s.gameRepo.GetByID(ctx, res.GameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if game.Finalized() {
		return nil, fmt.Errorf("%w: game %d", ErrGameFinalized, game.ID)
	}

	if err := s.resultRepo.Upsert(ctx, nil, res); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.cache.Invalidate(game.ID)

	if res.HasFinish() && !res.Excluded() {
		s.detectRecords(ctx, game, res)
	}

	s.notifier.Publish(game.ID, live.EventStandingsUpdated, map[string]int{
		"game_id":    game.ID,
		"athlete_id": res.AthleteID,
	})
	s.logger.Info("athlete result recorded",
		slog.Int("game_id", game.ID), slog.Int("athlete_id", res.AthleteID), slog.Bool("has_finish", res.HasFinish()))
	return res, nil
}

// detectRecords открывает кандидатов в рекорды; ошибки только логируются,
// сам результат уже сохранён.
func (s *resultService) detectRecords(ctx context.Context, game *models.Game, res *models.AthleteResult) {
	persist := func(changed []models.RaceRecord) error {
		return s.recordRepo.SaveAll(ctx, changed)
	}
	for _, rt := range models.RecordTypes {
		rec, changed, err := s.registry.UpdateRecord(records.Candidate{
			Key:       records.Key{RaceID: game.RaceID, Gender: res.Gender, RecordType: rt},
			AthleteID: res.AthleteID,
			GameID:    game.ID,
			TimeMs:    *res.FinishTimeMs,
		}, persist)
		if err != nil {
			s.logger.Error("record check failed", slog.Int("game_id", game.ID), slog.String("type", string(rt)), slog.Any("error", err))
			continue
		}
		if !changed {
			continue
		}
		s.logger.Info("record candidate opened",
			slog.String("record_id", rec.ID), slog.String("type", string(rt)), slog.Int64("time_ms", rec.TimeMs))
		s.notifier.Publish(game.ID, live.EventRecordCandidate, rec)
	}
}

func validateResult(res *models.AthleteResult) error {
	if res == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidResult)
	}
	if res.GameID <= 0 || res.AthleteID <= 0 {
		return fmt.Errorf("%w: game and athlete ids must be positive", ErrInvalidResult)
	}
	if !res.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidResult, res.Gender)
	}
	if res.DNS && res.DNF {
		return fmt.Errorf("%w: athlete cannot be both DNS and DNF", ErrInvalidResult)
	}
	if res.DNS && (res.HasFinish() || res.HasSplits()) {
		return fmt.Errorf("%w: DNS athlete cannot have times", ErrInvalidResult)
	}
	if res.DNF && res.HasFinish() {
		return fmt.Errorf("%w: DNF athlete cannot have a finish time", ErrInvalidResult)
	}
	if res.HasFinish() && *res.FinishTimeMs <= 0 {
		return fmt.Errorf("%w: finish time must be positive", ErrInvalidResult)
	}
	if res.IsFinal && !res.HasFinish() && !res.Excluded() {
		return fmt.Errorf("%w: final result needs a finish time or DNS/DNF", ErrInvalidResult)
	}

	var prev int64
	for _, cp := range res.Splits() {
		if cp.TimeMs <= 0 {
			return fmt.Errorf("%w: split %s must be positive", ErrInvalidResult, cp.Label)
		}
		if cp.TimeMs <= prev {
			return fmt.Errorf("%w: split %s is not after the previous split", ErrInvalidResult, cp.Label)
		}
		prev = cp.TimeMs
	}
	if res.HasFinish() && prev >= *res.FinishTimeMs {
		return fmt.Errorf("%w: finish time must be after the last split", ErrInvalidResult)
	}
	return nil
}
