package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

var (
	ErrResultNotFound   = errors.New("athlete result not found")
	ErrResultInvalidRef = errors.New("athlete result references unknown game")
)

type ResultRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, res *models.AthleteResult) error
	ListByGame(ctx context.Context, gameID int) ([]models.AthleteResult, error)
	Get(ctx context.Context, gameID, athleteID int) (*models.AthleteResult, error)
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

const resultColumns = `game_id, athlete_id, gender, finish_time_ms, split_5k_ms, split_10k_ms,
	split_half_ms, split_30k_ms, split_35k_ms, split_40k_ms, is_final, dns, dnf, updated_at`

// Upsert пишет результат по ключу (game_id, athlete_id); повторная запись заменяет строку.
func (r *postgresResultRepository) Upsert(ctx context.Context, exec SQLExecutor, res *models.AthleteResult) error {
	query := `
		INSERT INTO athlete_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (game_id, athlete_id) DO UPDATE SET
			gender = EXCLUDED.gender,
			finish_time_ms = EXCLUDED.finish_time_ms,
			split_5k_ms = EXCLUDED.split_5k_ms,
			split_10k_ms = EXCLUDED.split_10k_ms,
			split_half_ms = EXCLUDED.split_half_ms,
			split_30k_ms = EXCLUDED.split_30k_ms,
			split_35k_ms = EXCLUDED.split_35k_ms,
			split_40k_ms = EXCLUDED.split_40k_ms,
			is_final = EXCLUDED.is_final,
			dns = EXCLUDED.dns,
			dnf = EXCLUDED.dnf,
			updated_at = now()
		RETURNING updated_at`

	err := pick(r.db, exec).QueryRowContext(ctx, query,
		res.GameID, res.AthleteID, res.Gender,
		nullInt64(res.FinishTimeMs),
		nullInt64(res.Split5kMs), nullInt64(res.Split10kMs), nullInt64(res.SplitHalfMs),
		nullInt64(res.Split30kMs), nullInt64(res.Split35kMs), nullInt64(res.Split40kMs),
		res.IsFinal, res.DNS, res.DNF,
	).Scan(&res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert result game=%d athlete=%d: %w", res.GameID, res.AthleteID, mapPQError(err, nil, ErrResultInvalidRef))
	}
	return nil
}

func (r *postgresResultRepository) ListByGame(ctx context.Context, gameID int) ([]models.AthleteResult, error) {
	query := `SELECT ` + resultColumns + ` FROM athlete_results WHERE game_id = $1 ORDER BY athlete_id`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for game %d: %w", gameID, err)
	}
	defer rows.Close()

	results := make([]models.AthleteResult, 0)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

func (r *postgresResultRepository) Get(ctx context.Context, gameID, athleteID int) (*models.AthleteResult, error) {
	query := `SELECT ` + resultColumns + ` FROM athlete_results WHERE game_id = $1 AND athlete_id = $2`
	res, err := scanResult(r.db.QueryRowContext(ctx, query, gameID, athleteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row rowScanner) (*models.AthleteResult, error) {
	var res models.AthleteResult
	var finish, s5, s10, sHalf, s30, s35, s40 sql.NullInt64
	err := row.Scan(&res.GameID, &res.AthleteID, &res.Gender, &finish,
		&s5, &s10, &sHalf, &s30, &s35, &s40,
		&res.IsFinal, &res.DNS, &res.DNF, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan athlete result: %w", err)
	}
	res.FinishTimeMs = int64FromNull(finish)
	res.Split5kMs = int64FromNull(s5)
	res.Split10kMs = int64FromNull(s10)
	res.SplitHalfMs = int64FromNull(sHalf)
	res.Split30kMs = int64FromNull(s30)
	res.Split35kMs = int64FromNull(s35)
	res.Split40kMs = int64FromNull(s40)
	return &res, nil
}
