package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dosada05/fantasy-marathon/models"
)

var ErrArchiveDisabled = errors.New("standings archive is not configured")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore is the bucket the archive writes to. Archived objects are never
// deleted: the key already identifies the exact inputs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetPublicURL(key string) string
}

// StandingsSnapshot is the audit copy of a finalized leaderboard.
type StandingsSnapshot struct {
	GameID         int                           `json:"game_id"`
	RaceID         int                           `json:"race_id"`
	RuleSetVersion int                           `json:"rule_set_version"`
	ContentHash    string                        `json:"content_hash"`
	FinalizedAt    time.Time                     `json:"finalized_at"`
	Standings      *models.StandingsResponse     `json:"standings"`
	Breakdowns     map[int]models.ScoreBreakdown `json:"breakdowns"`
	Records        []models.RaceRecord           `json:"records"`
}

// SnapshotArchiver writes snapshots as JSON objects.
type SnapshotArchiver struct {
	store ObjectStore
}

func NewSnapshotArchiver(store ObjectStore) *SnapshotArchiver {
	return &SnapshotArchiver{store: store}
}

// SnapshotKey is stable per game, rule version and inputs.
func SnapshotKey(s *StandingsSnapshot) string {
	return fmt.Sprintf("standings/game-%d/v%d/%s.json", s.GameID, s.RuleSetVersion, s.ContentHash)
}

// Archive uploads the snapshot unless an object with the same key is already there.
func (a *SnapshotArchiver) Archive(ctx context.Context, s *StandingsSnapshot) (*UploadResult, error) {
	if a == nil || a.store == nil {
		return nil, ErrArchiveDisabled
	}
	key := SnapshotKey(s)
	exists, err := a.store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check archive for game %d: %w", s.GameID, err)
	}
	if exists {
		return &UploadResult{Key: key, Location: a.store.GetPublicURL(key)}, nil
	}

	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot for game %d: %w", s.GameID, err)
	}
	return a.store.Upload(ctx, key, "application/json", bytes.NewReader(body))
}
