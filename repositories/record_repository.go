package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/fantasy-marathon/models"
)

type RecordRepository interface {
	ListByRace(ctx context.Context, raceID int) ([]models.RaceRecord, error)
	Save(ctx context.Context, exec SQLExecutor, rec *models.RaceRecord) error
	SaveAll(ctx context.Context, recs []models.RaceRecord) error
	ListAll(ctx context.Context) ([]models.RaceRecord, error)
}

type postgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) RecordRepository {
	return &postgresRecordRepository{db: db}
}

const recordColumns = `id, race_id, gender, record_type, time_ms, state, athlete_id, game_id, created_at, decided_at, decided_by`

// Save вставляет или обновляет запись по id; строки не удаляются, это журнал решений.
func (r *postgresRecordRepository) Save(ctx context.Context, exec SQLExecutor, rec *models.RaceRecord) error {
	query := `
		INSERT INTO race_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			time_ms = EXCLUDED.time_ms,
			state = EXCLUDED.state,
			athlete_id = EXCLUDED.athlete_id,
			game_id = EXCLUDED.game_id,
			decided_at = EXCLUDED.decided_at,
			decided_by = EXCLUDED.decided_by`

	var athleteID, gameID sql.NullInt64
	if rec.AthleteID != nil {
		athleteID = sql.NullInt64{Int64: int64(*rec.AthleteID), Valid: true}
	}
	if rec.GameID != nil {
		gameID = sql.NullInt64{Int64: int64(*rec.GameID), Valid: true}
	}
	var decidedAt sql.NullTime
	if rec.DecidedAt != nil {
		decidedAt = sql.NullTime{Time: *rec.DecidedAt, Valid: true}
	}
	var decidedBy sql.NullString
	if rec.DecidedBy != nil {
		decidedBy = sql.NullString{String: *rec.DecidedBy, Valid: true}
	}

	_, err := pick(r.db, exec).ExecContext(ctx, query,
		rec.ID, rec.RaceID, rec.Gender, rec.RecordType, rec.TimeMs, rec.State,
		athleteID, gameID, rec.CreatedAt, decidedAt, decidedBy)
	if err != nil {
		return fmt.Errorf("failed to save race record %s: %w", rec.ID, err)
	}
	return nil
}

// SaveAll сохраняет связанные изменения (закрытый и новый кандидат) одной транзакцией.
func (r *postgresRecordRepository) SaveAll(ctx context.Context, recs []models.RaceRecord) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveAll failed to begin transaction: %w", err)
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

	for i := range recs {
		if err = r.Save(ctx, tx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRecordRepository) ListByRace(ctx context.Context, raceID int) ([]models.RaceRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM race_records WHERE race_id = $1 ORDER BY created_at, id`, raceID)
}

// ListAll используется для прогрева реестра при старте.
func (r *postgresRecordRepository) ListAll(ctx context.Context) ([]models.RaceRecord, error) {
	return r.list(ctx, `SELECT `+recordColumns+` FROM race_records ORDER BY created_at, id`)
}

func (r *postgresRecordRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.RaceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list race records: %w", err)
	}
	defer rows.Close()

	recs := make([]models.RaceRecord, 0)
	for rows.Next() {
		var rec models.RaceRecord
		var athleteID, gameID sql.NullInt64
		var decidedAt sql.NullTime
		var decidedBy sql.NullString
		if err := rows.Scan(&rec.ID, &rec.RaceID, &rec.Gender, &rec.RecordType, &rec.TimeMs, &rec.State,
			&athleteID, &gameID, &rec.CreatedAt, &decidedAt, &decidedBy); err != nil {
			return nil, fmt.Errorf("failed to scan race record: %w", err)
		}
		if athleteID.Valid {
			v := int(athleteID.Int64)
			rec.AthleteID = &v
		}
		if gameID.Valid {
			v := int(gameID.Int64)
			rec.GameID = &v
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			rec.DecidedAt = &t
		}
		if decidedBy.Valid {
			s := decidedBy.String
			rec.DecidedBy = &s
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
