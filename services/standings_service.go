package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/fantasy-marathon/cache"
	"github.com/Dosada05/fantasy-marathon/live"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/records"
	"github.com/Dosada05/fantasy-marathon/repositories"
	"github.com/Dosada05/fantasy-marathon/scoring"
	"github.com/Dosada05/fantasy-marathon/storage"
	"golang.org/x/sync/errgroup"
)

// StandingsResult is a leaderboard plus the caching metadata the HTTP layer needs.
type StandingsResult struct {
	Standings    *models.StandingsResponse
	Breakdowns   map[int]models.ScoreBreakdown
	CacheStatus  cache.Status
	CacheControl string
}

type StandingsService interface {
	GetStandings(ctx context.Context, gameID int) (*StandingsResult, error)
	GetAthleteScore(ctx context.Context, gameID, athleteID int) (*models.ScoreBreakdown, error)
	FinalizeGame(ctx context.Context, gameID int, actor string) (*storage.UploadResult, error)
}

type standingsService struct {
	gameRepo   repositories.GameRepository
	resultRepo repositories.ResultRepository
	rosterRepo repositories.RosterRepository
	registry   *records.Registry
	rules      RuleSource
	cache      *cache.StandingsCache
	archiver   *storage.SnapshotArchiver
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewStandingsService(
	gameRepo repositories.GameRepository,
	resultRepo repositories.ResultRepository,
	rosterRepo repositories.RosterRepository,
	registry *records.Registry,
	rules RuleSource,
	standingsCache *cache.StandingsCache,
	archiver *storage.SnapshotArchiver,
	notifier Notifier,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		gameRepo:   gameRepo,
		resultRepo: resultRepo,
		rosterRepo: rosterRepo,
		registry:   registry,
		rules:      rules,
		cache:      standingsCache,
		archiver:   archiver,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// gameData is everything loaded for one computation.
type gameData struct {
	game    *models.Game
	rules   *models.ScoringRuleSet
	results []models.AthleteResult
	rosters models.Rosters
	records []models.RaceRecord
	hash    string
}

func (s *standingsService) load(ctx context.Context, gameID int) (*gameData, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	rules, err := s.rules.Get(game.RuleSetVersion)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	d := &gameData{game: game, rules: rules}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := s.resultRepo.ListByGame(gCtx, gameID)
		if err != nil {
			return fmt.Errorf("failed to load results for game %d: %w", gameID, err)
		}
		d.results = results
		return nil
	})
	g.Go(func() error {
		rosters, err := s.rosterRepo.ListByGame(gCtx, gameID)
		if err != nil {
			return fmt.Errorf("failed to load rosters for game %d: %w", gameID, err)
		}
		d.rosters = rosters
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.records = s.registry.Snapshot(game.RaceID)
	d.hash = cache.ContentHash(cache.ContentInput{
		GameID:         gameID,
		RuleSetVersion: rules.Version,
		Results:        d.results,
		Rosters:        d.rosters,
		Records:        d.records,
	})
	return d, nil
}

func compute(d *gameData) (*cache.Value, error) {
	engine, err := scoring.NewEngine(d.rules)
	if err != nil {
		return nil, err
	}
	resp, breakdowns, err := engine.Standings(scoring.GameInput{
		GameID:  d.game.ID,
		RaceID:  d.game.RaceID,
		Results: d.results,
		Records: d.records,
	}, d.rosters)
	if err != nil {
		return nil, err
	}
	return &cache.Value{Standings: resp, Breakdowns: breakdowns}, nil
}

func (s *standingsService) GetStandings(ctx context.Context, gameID int) (*StandingsResult, error) {
	d, err := s.load(ctx, gameID)
	if err != nil {
		if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrRuleSetNotFound) {
			return nil, err
		}
		return s.fallback(gameID, err)
	}

	v, status, err := s.cache.GetOrCompute(ctx, gameID, d.hash, func(context.Context) (*cache.Value, error) {
		return compute(d)
	})
	if err != nil {
		return s.fallback(gameID, err)
	}
	return s.result(v, status), nil
}

// fallback отдаёт последнюю удачную таблицу вместо пустой.
func (s *standingsService) fallback(gameID int, cause error) (*StandingsResult, error) {
	var ambiguous *scoring.AmbiguousRecordStateError
	if errors.As(cause, &ambiguous) {
		s.logger.Error("record bonus requested for unconfirmed record",
			slog.Int("game_id", gameID), slog.String("record_id", ambiguous.RecordID), slog.String("state", string(ambiguous.State)))
	}

	v, ok := s.cache.LastKnownGood(gameID)
	if !ok {
		s.logger.Error("standings computation failed", slog.Int("game_id", gameID), slog.Any("error", cause))
		return nil, handleRepositoryError(cause)
	}
	s.logger.Warn("serving last known good standings", slog.Int("game_id", gameID), slog.Any("error", cause))
	return s.result(v, cache.StatusStale), nil
}

func (s *standingsService) result(v *cache.Value, status cache.Status) *StandingsResult {
	return &StandingsResult{
		Standings:    v.Standings,
		Breakdowns:   v.Breakdowns,
		CacheStatus:  status,
		CacheControl: s.cache.CacheControl(v.Standings.IsTemporary),
	}
}

func (s *standingsService) GetAthleteScore(ctx context.Context, gameID, athleteID int) (*models.ScoreBreakdown, error) {
	res, err := s.GetStandings(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if bd, ok := res.Breakdowns[athleteID]; ok {
		return &bd, nil
	}
	// Атлет в составе, но данных ещё нет.
	for _, team := range res.Standings.Standings {
		for _, bd := range team.Athletes {
			if bd.AthleteID == athleteID {
				out := bd
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: athlete %d, game %d", ErrAthleteNotFound, athleteID, gameID)
}

// FinalizeGame фиксирует итоговую таблицу и архивирует снимок.
// Архив опционален: без настроек R2 возвращается nil.
func (s *standingsService) FinalizeGame(ctx context.Context, gameID int, actor string) (*storage.UploadResult, error) {
	d, err := s.load(ctx, gameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if d.game.Finalized() {
		return nil, fmt.Errorf("%w: game %d", ErrGameFinalized, gameID)
	}

	v, _, err := s.cache.GetOrCompute(ctx, gameID, d.hash, func(context.Context) (*cache.Value, error) {
		return compute(d)
	})
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if v.Standings.IsTemporary || !v.Standings.HasFinishTimes {
		return nil, fmt.Errorf("%w: game %d", ErrGameNotFinal, gameID)
	}
	for _, rec := range d.records {
		if rec.State == models.RecordProvisional {
			return nil, fmt.Errorf("%w: record %s awaits a decision", ErrGameNotFinal, rec.ID)
		}
	}

	at := s.now().UTC()
	var uploaded *storage.UploadResult
	if s.archiver != nil {
		uploaded, err = s.archiver.Archive(ctx, &storage.StandingsSnapshot{
			GameID:         gameID,
			RaceID:         d.game.RaceID,
			RuleSetVersion: d.rules.Version,
			ContentHash:    d.hash,
			FinalizedAt:    at,
			Standings:      v.Standings,
			Breakdowns:     v.Breakdowns,
			Records:        d.records,
		})
		if err != nil {
			s.logger.Error("failed to archive standings", slog.Int("game_id", gameID), slog.Any("error", err))
			return nil, err
		}
	}

	if err := s.gameRepo.MarkFinalized(ctx, nil, gameID, at); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.Info("game finalized", slog.Int("game_id", gameID), slog.String("actor", actor), slog.String("hash", d.hash))
	s.notifier.Publish(gameID, live.EventGameFinalized, v.Standings)
	return uploaded, nil
}
