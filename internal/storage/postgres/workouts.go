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

// PostgresWorkoutLogsStorage — Postgres storage для завершённых тренировок.
type PostgresWorkoutLogsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresWorkoutLogsStorage создаёт новое хранилище.
func NewPostgresWorkoutLogsStorage(pool *pgxpool.Pool) *PostgresWorkoutLogsStorage {
	return &PostgresWorkoutLogsStorage{pool: pool}
}

func (s *PostgresWorkoutLogsStorage) ListWorkoutLogs(ctx context.Context, ownerID string, limit, offset int) ([]storage.WorkoutLog, error) {
	q := `
		SELECT id, owner_id, routine_id, routine_name, started_at, finished_at, exercises, created_at
		FROM workout_logs
		WHERE owner_id = $1
		ORDER BY finished_at DESC
		LIMIT $2 OFFSET $3
	`

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, q, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []storage.WorkoutLog{}
	for rows.Next() {
		l, err := scanWorkoutLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (s *PostgresWorkoutLogsStorage) GetWorkoutLog(ctx context.Context, id uuid.UUID) (storage.WorkoutLog, bool, error) {
	q := `
		SELECT id, owner_id, routine_id, routine_name, started_at, finished_at, exercises, created_at
		FROM workout_logs
		WHERE id = $1
	`

	l, err := scanWorkoutLog(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.WorkoutLog{}, false, nil
	}
	if err != nil {
		return storage.WorkoutLog{}, false, err
	}

	return l, true, nil
}

func (s *PostgresWorkoutLogsStorage) CreateWorkoutLog(ctx context.Context, log *storage.WorkoutLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now()

	if log.Exercises == nil {
		log.Exercises = []storage.LoggedExercise{}
	}
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO workout_logs (id, owner_id, routine_id, routine_name, started_at, finished_at, exercises, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, q,
		log.ID,
		log.OwnerID,
		log.RoutineID,
		log.RoutineName,
		log.StartedAt,
		log.FinishedAt,
		exercises,
		log.CreatedAt,
	)

	return err
}

func (s *PostgresWorkoutLogsStorage) UpdateWorkoutLog(ctx context.Context, log *storage.WorkoutLog) error {
	if log.Exercises == nil {
		log.Exercises = []storage.LoggedExercise{}
	}
	exercises, err := json.Marshal(log.Exercises)
	if err != nil {
		return err
	}

	q := `
		UPDATE workout_logs
		SET routine_name = $2, started_at = $3, finished_at = $4, exercises = $5
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, q,
		log.ID,
		log.RoutineName,
		log.StartedAt,
		log.FinishedAt,
		exercises,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresWorkoutLogsStorage) DeleteWorkoutLog(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM workout_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanWorkoutLog(row pgx.Row) (storage.WorkoutLog, error) {
	var l storage.WorkoutLog
	var exercises []byte

	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.RoutineID,
		&l.RoutineName,
		&l.StartedAt,
		&l.FinishedAt,
		&exercises,
		&l.CreatedAt,
	)
	if err != nil {
		return storage.WorkoutLog{}, err
	}

	if len(exercises) > 0 {
		if err := json.Unmarshal(exercises, &l.Exercises); err != nil {
			return storage.WorkoutLog{}, err
		}
	}

	return l, nil
}

// PostgresActiveWorkoutsStorage — Postgres storage для активных сессий.
// Одна строка на пользователя, payload в JSONB.
type PostgresActiveWorkoutsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresActiveWorkoutsStorage создаёт новое хранилище.
func NewPostgresActiveWorkoutsStorage(pool *pgxpool.Pool) *PostgresActiveWorkoutsStorage {
	return &PostgresActiveWorkoutsStorage{pool: pool}
}

// sessionPayload — JSONB часть активной сессии.
type sessionPayload struct {
	Exercises       []storage.SessionExercise `json:"exercises"`
	CurrentExercise int                       `json:"currentExercise"`
	CurrentSet      int                       `json:"currentSet"`
}

func (s *PostgresActiveWorkoutsStorage) GetActiveWorkout(ctx context.Context, ownerID string) (storage.ActiveWorkout, bool, error) {
	q := `
		SELECT owner_id, routine_id, routine_name, started_at, payload, updated_at
		FROM active_workouts
		WHERE owner_id = $1
	`

	var sess storage.ActiveWorkout
	var payload []byte

	err := s.pool.QueryRow(ctx, q, ownerID).Scan(
		&sess.OwnerID,
		&sess.RoutineID,
		&sess.RoutineName,
		&sess.StartedAt,
		&payload,
		&sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ActiveWorkout{}, false, nil
	}
	if err != nil {
		return storage.ActiveWorkout{}, false, err
	}

	var p sessionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return storage.ActiveWorkout{}, false, err
	}
	sess.Exercises = p.Exercises
	sess.CurrentExercise = p.CurrentExercise
	sess.CurrentSet = p.CurrentSet

	return sess, true, nil
}

func (s *PostgresActiveWorkoutsStorage) PutActiveWorkout(ctx context.Context, session *storage.ActiveWorkout) error {
	session.UpdatedAt = time.Now()

	payload, err := json.Marshal(sessionPayload{
		Exercises:       session.Exercises,
		CurrentExercise: session.CurrentExercise,
		CurrentSet:      session.CurrentSet,
	})
	if err != nil {
		return err
	}

	q := `
		INSERT INTO active_workouts (owner_id, routine_id, routine_name, started_at, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id)
		DO UPDATE SET routine_id = $2, routine_name = $3, started_at = $4, payload = $5, updated_at = $6
	`

	_, err = s.pool.Exec(ctx, q,
		session.OwnerID,
		session.RoutineID,
		session.RoutineName,
		session.StartedAt,
		payload,
		session.UpdatedAt,
	)

	return err
}

func (s *PostgresActiveWorkoutsStorage) DeleteActiveWorkout(ctx context.Context, ownerID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM active_workouts WHERE owner_id = $1`, ownerID)
	return err
}
