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

type RecordService interface {
	Warm(ctx context.Context) error
	ListByRace(ctx context.Context, raceID int) []models.RaceRecord
	Confirm(ctx context.Context, id, actor string) (*models.RaceRecord, error)
	Reject(ctx context.Context, id, actor string) (*models.RaceRecord, error)
}

type recordService struct {
	recordRepo repositories.RecordRepository
	registry   *records.Registry
	cache      *cache.StandingsCache
	notifier   Notifier
	logger     *slog.Logger
}

func NewRecordService(
	recordRepo repositories.RecordRepository,
	registry *records.Registry,
	standingsCache *cache.StandingsCache,
	notifier Notifier,
	logger *slog.Logger,
) RecordService {
	return &recordService{
		recordRepo: recordRepo,
		registry:   registry,
		cache:      standingsCache,
		notifier:   notifier,
		logger:     logger,
	}
}

// Warm загружает журнал рекордов из базы в реестр.
func (s *recordService) Warm(ctx context.Context) error {
	recs, err := s.recordRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load race records: %w", err)
	}
	s.registry.Load(recs)
	s.logger.Info("record registry loaded", slog.Int("records", len(recs)))
	return nil
}

func (s *recordService) ListByRace(_ context.Context, raceID int) []models.RaceRecord {
	return s.registry.Snapshot(raceID)
}

func (s *recordService) Confirm(ctx context.Context, id, actor string) (*models.RaceRecord, error) {
	return s.decide(ctx, id, actor, s.registry.Confirm)
}

func (s *recordService) Reject(ctx context.Context, id, actor string) (*models.RaceRecord, error) {
	return s.decide(ctx, id, actor, s.registry.Reject)
}

// decide сначала пишет решение в базу, реестр меняется только после успешной записи.
func (s *recordService) decide(ctx context.Context, id, actor string, apply func(id, actor string, persist records.PersistFunc) (*models.RaceRecord, error)) (*models.RaceRecord, error) {
	persist := func(changed []models.RaceRecord) error {
		if err := s.recordRepo.SaveAll(ctx, changed); err != nil {
			s.logger.Error("failed to persist record decision", slog.String("record_id", id), slog.Any("error", err))
			return err
		}
		return nil
	}
	rec, err := apply(id, actor, persist)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	// Подтверждённый рекорд меняет бонусы во всех играх забега.
	s.cache.InvalidateAll()
	s.logger.Info("record decided",
		slog.String("record_id", rec.ID), slog.String("state", string(rec.State)), slog.String("actor", actor))
	if rec.GameID != nil {
		s.notifier.Publish(*rec.GameID, live.EventRecordDecided, rec)
	}
	return rec, nil
}
