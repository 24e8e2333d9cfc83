package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

var ErrRosterConflict = errors.New("athlete already on this roster")

type RosterRepository interface {
	ListByGame(ctx context.Context, gameID int) (models.Rosters, error)
	Replace(ctx context.Context, gameID int, playerCode string, athleteIDs []int) error
}

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

// ListByGame возвращает составы в порядке слотов.
func (r *postgresRosterRepository) ListByGame(ctx context.Context, gameID int) (models.Rosters, error) {
	query := `SELECT player_code, athlete_id FROM fantasy_rosters WHERE game_id = $1 ORDER BY player_code, slot`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters for game %d: %w", gameID, err)
	}
	defer rows.Close()

	rosters := make(models.Rosters)
	for rows.Next() {
		var code string
		var athleteID int
		if err := rows.Scan(&code, &athleteID); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		rosters[code] = append(rosters[code], athleteID)
	}
	return rosters, rows.Err()
}

// Replace переписывает состав игрока целиком в одной транзакции.
func (r *postgresRosterRepository) Replace(ctx context.Context, gameID int, playerCode string, athleteIDs []int) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Replace failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM fantasy_rosters WHERE game_id = $1 AND player_code = $2`, gameID, playerCode); err != nil {
		return fmt.Errorf("Replace failed to clear roster %s: %w", playerCode, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fantasy_rosters (game_id, player_code, slot, athlete_id) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("Replace failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for slot, athleteID := range athleteIDs {
		if _, err = stmt.ExecContext(ctx, gameID, playerCode, slot, athleteID); err != nil {
			return fmt.Errorf("Replace failed for %s athlete %d: %w", playerCode, athleteID, mapPQError(err, ErrRosterConflict, ErrGameNotFound))
		}
	}
	return nil
}
