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

// PostgresGoalsStorage — Postgres storage для целей по питанию.
type PostgresGoalsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresGoalsStorage создаёт новое хранилище.
func NewPostgresGoalsStorage(pool *pgxpool.Pool) *PostgresGoalsStorage {
	return &PostgresGoalsStorage{pool: pool}
}

func (s *PostgresGoalsStorage) GetGoals(ctx context.Context, ownerID string) (storage.Goals, bool, error) {
	q := `
		SELECT owner_id, calories_kcal, protein_g, carbs_g, fat_g, fiber_g, mode, inputs, created_at, updated_at
		FROM goals
		WHERE owner_id = $1
	`

	var g storage.Goals
	var inputs []byte

	err := s.pool.QueryRow(ctx, q, ownerID).Scan(
		&g.OwnerID,
		&g.CaloriesKcal,
		&g.ProteinG,
		&g.CarbsG,
		&g.FatG,
		&g.FiberG,
		&g.Mode,
		&inputs,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Goals{}, false, nil
	}
	if err != nil {
		return storage.Goals{}, false, err
	}

	if len(inputs) > 0 {
		var in storage.GoalInputs
		if err := json.Unmarshal(inputs, &in); err != nil {
			return storage.Goals{}, false, err
		}
		g.Inputs = &in
	}

	return g, true, nil
}

func (s *PostgresGoalsStorage) UpsertGoals(ctx context.Context, goals *storage.Goals) error {
	now := time.Now()
	goals.UpdatedAt = now

	var inputs []byte
	if goals.Inputs != nil {
		var err error
		inputs, err = json.Marshal(goals.Inputs)
		if err != nil {
			return err
		}
	}

	q := `
		INSERT INTO goals (owner_id, calories_kcal, protein_g, carbs_g, fat_g, fiber_g, mode, inputs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (owner_id)
		DO UPDATE SET calories_kcal = $2, protein_g = $3, carbs_g = $4, fat_g = $5, fiber_g = $6, mode = $7, inputs = $8, updated_at = $9
	`

	_, err := s.pool.Exec(ctx, q,
		goals.OwnerID,
		goals.CaloriesKcal,
		goals.ProteinG,
		goals.CarbsG,
		goals.FatG,
		goals.FiberG,
		goals.Mode,
		inputs,
		now,
	)

	return err
}

// PostgresWeightsStorage — Postgres storage для истории веса тела.
type PostgresWeightsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresWeightsStorage создаёт новое хранилище.
func NewPostgresWeightsStorage(pool *pgxpool.Pool) *PostgresWeightsStorage {
	return &PostgresWeightsStorage{pool: pool}
}

func (s *PostgresWeightsStorage) ListWeights(ctx context.Context, ownerID string, from, to string) ([]storage.WeightEntry, error) {
	q := `
		SELECT id, owner_id, date, weight_kg, created_at, updated_at
		FROM weight_entries
		WHERE owner_id = $1
		  AND ($2 = '' OR date >= $2)
		  AND ($3 = '' OR date <= $3)
		ORDER BY date DESC
	`

	rows, err := s.pool.Query(ctx, q, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []storage.WeightEntry{}
	for rows.Next() {
		var e storage.WeightEntry
		err := rows.Scan(
			&e.ID,
			&e.OwnerID,
			&e.Date,
			&e.WeightKg,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *PostgresWeightsStorage) UpsertWeight(ctx context.Context, entry *storage.WeightEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	now := time.Now()
	entry.UpdatedAt = now

	q := `
		INSERT INTO weight_entries (id, owner_id, date, weight_kg, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (owner_id, date)
		DO UPDATE SET weight_kg = $4, updated_at = $5
	`

	_, err := s.pool.Exec(ctx, q,
		entry.ID,
		entry.OwnerID,
		entry.Date,
		entry.WeightKg,
		now,
	)

	return err
}

func (s *PostgresWeightsStorage) DeleteWeight(ctx context.Context, ownerID string, date string) error {
	result, err := s.pool.Exec(ctx,
		`DELETE FROM weight_entries WHERE owner_id = $1 AND date = $2`, ownerID, date)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
