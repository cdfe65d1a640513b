package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// PostgresRoutinesStorage — Postgres storage для тренировочных программ.
// Exercises хранятся в JSONB.
type PostgresRoutinesStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresRoutinesStorage создаёт новое хранилище.
func NewPostgresRoutinesStorage(pool *pgxpool.Pool) *PostgresRoutinesStorage {
	return &PostgresRoutinesStorage{pool: pool}
}

func (s *PostgresRoutinesStorage) ListRoutines(ctx context.Context, ownerID string) ([]storage.Routine, error) {
	q := `
		SELECT id, owner_id, name, exercises, last_finished, created_at, updated_at
		FROM routines
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routines := []storage.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, r)
	}

	return routines, rows.Err()
}

func (s *PostgresRoutinesStorage) GetRoutine(ctx context.Context, id uuid.UUID) (storage.Routine, bool, error) {
	q := `
		SELECT id, owner_id, name, exercises, last_finished, created_at, updated_at
		FROM routines
		WHERE id = $1
	`

	r, err := scanRoutine(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Routine{}, false, nil
	}
	if err != nil {
		return storage.Routine{}, false, err
	}

	return r, true, nil
}

func (s *PostgresRoutinesStorage) CreateRoutine(ctx context.Context, routine *storage.Routine) error {
	if routine.ID == uuid.Nil {
		routine.ID = uuid.New()
	}

	now := time.Now()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	exercises, err := marshalExercises(routine)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO routines (id, owner_id, name, exercises, last_finished, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, q,
		routine.ID,
		routine.OwnerID,
		routine.Name,
		exercises,
		routine.LastFinished,
		routine.CreatedAt,
		routine.UpdatedAt,
	)

	return err
}

func (s *PostgresRoutinesStorage) UpdateRoutine(ctx context.Context, routine *storage.Routine) error {
	routine.UpdatedAt = time.Now()

	exercises, err := marshalExercises(routine)
	if err != nil {
		return err
	}

	q := `
		UPDATE routines
		SET name = $2, exercises = $3, last_finished = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, q,
		routine.ID,
		routine.Name,
		exercises,
		routine.LastFinished,
		routine.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresRoutinesStorage) DeleteRoutine(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalExercises(routine *storage.Routine) ([]byte, error) {
	if routine.Exercises == nil {
		routine.Exercises = []storage.Exercise{}
	}
	return json.Marshal(routine.Exercises)
}

func scanRoutine(row pgx.Row) (storage.Routine, error) {
	var r storage.Routine
	var exercises []byte

	err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Name,
		&exercises,
		&r.LastFinished,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return storage.Routine{}, err
	}

	if len(exercises) > 0 {
		if err := json.Unmarshal(exercises, &r.Exercises); err != nil {
			return storage.Routine{}, err
		}
	}

	return r, nil
}
