package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fantasy-marathon/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	MarkFinalized(ctx context.Context, exec SQLExecutor, id int, at time.Time) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `INSERT INTO games (race_id, name, rule_set_version) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, game.RaceID, game.Name, game.RuleSetVersion).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT id, race_id, name, rule_set_version, finalized_at, created_at FROM games WHERE id = $1`
	var g models.Game
	var finalized sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.RaceID, &g.Name, &g.RuleSetVersion, &finalized, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	if finalized.Valid {
		t := finalized.Time
		g.FinalizedAt = &t
	}
	return &g, nil
}

func (r *postgresGameRepository) MarkFinalized(ctx context.Context, exec SQLExecutor, id int, at time.Time) error {
	result, err := pick(r.db, exec).ExecContext(ctx, `UPDATE games SET finalized_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to finalize game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
