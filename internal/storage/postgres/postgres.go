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

var ErrNotFound = storage.ErrNotFound

// PostgresStorage — Postgres реализация всех хранилищ.
type PostgresStorage struct {
	pool           *pgxpool.Pool
	conversions    *PostgresConversionsStorage
	meals          *PostgresMealsStorage
	routines       *PostgresRoutinesStorage
	workoutLogs    *PostgresWorkoutLogsStorage
	activeWorkouts *PostgresActiveWorkoutsStorage
	goals          *PostgresGoalsStorage
	weights        *PostgresWeightsStorage
	reports        *PostgresReportsStorage
}

// New создаёт PostgresStorage и проверяет соединение.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{
		pool:           pool,
		conversions:    NewPostgresConversionsStorage(pool),
		meals:          NewPostgresMealsStorage(pool),
		routines:       NewPostgresRoutinesStorage(pool),
		workoutLogs:    NewPostgresWorkoutLogsStorage(pool),
		activeWorkouts: NewPostgresActiveWorkoutsStorage(pool),
		goals:          NewPostgresGoalsStorage(pool),
		weights:        NewPostgresWeightsStorage(pool),
		reports:        NewPostgresReportsStorage(pool),
	}, nil
}

// FoodsStorage implementation. Nested profile and recipe items live in JSONB.

func (p *PostgresStorage) ListFoods(ctx context.Context, ownerID string, query string, limit, offset int) ([]storage.Food, error) {
	q := `
		SELECT id, owner_id, profile, items, weight, created_at, updated_at
		FROM foods
		WHERE (owner_id = $1 OR owner_id = '')
		  AND ($2 = '' OR profile->>'name' ILIKE '%' || $2 || '%')
		ORDER BY profile->>'name' ASC
		LIMIT $3 OFFSET $4
	`

	if limit <= 0 {
		limit = 100
	}

	rows, err := p.pool.Query(ctx, q, ownerID, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	foods := []storage.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		foods = append(foods, f)
	}

	return foods, rows.Err()
}

func (p *PostgresStorage) GetFood(ctx context.Context, id uuid.UUID) (storage.Food, bool, error) {
	q := `
		SELECT id, owner_id, profile, items, weight, created_at, updated_at
		FROM foods
		WHERE id = $1
	`

	row := p.pool.QueryRow(ctx, q, id)
	f, err := scanFood(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Food{}, false, nil
	}
	if err != nil {
		return storage.Food{}, false, err
	}

	return f, true, nil
}

func (p *PostgresStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}

	now := time.Now()
	food.CreatedAt = now
	food.UpdatedAt = now

	profile, items, err := marshalFood(food)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO foods (id, owner_id, profile, items, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = p.pool.Exec(ctx, q,
		food.ID,
		food.OwnerID,
		profile,
		items,
		food.Weight,
		food.CreatedAt,
		food.UpdatedAt,
	)

	return err
}

func (p *PostgresStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	food.UpdatedAt = time.Now()

	profile, items, err := marshalFood(food)
	if err != nil {
		return err
	}

	q := `
		UPDATE foods
		SET profile = $2, items = $3, weight = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := p.pool.Exec(ctx, q,
		food.ID,
		profile,
		items,
		food.Weight,
		food.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) DeleteFood(ctx context.Context, id uuid.UUID) error {
	result, err := p.pool.Exec(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func marshalFood(food *storage.Food) (profile, items []byte, err error) {
	profile, err = json.Marshal(food.Profile)
	if err != nil {
		return nil, nil, err
	}

	if food.Items == nil {
		food.Items = []storage.RecipeItem{}
	}
	items, err = json.Marshal(food.Items)
	if err != nil {
		return nil, nil, err
	}

	return profile, items, nil
}

func scanFood(row pgx.Row) (storage.Food, error) {
	var f storage.Food
	var profile, items []byte

	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&profile,
		&items,
		&f.Weight,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return storage.Food{}, err
	}

	if err := json.Unmarshal(profile, &f.Profile); err != nil {
		return storage.Food{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &f.Items); err != nil {
			return storage.Food{}, err
		}
	}

	return f, nil
}

// GetConversionsStorage returns the conversions storage.
func (p *PostgresStorage) GetConversionsStorage() *PostgresConversionsStorage {
	return p.conversions
}

// GetMealsStorage returns the meals storage.
func (p *PostgresStorage) GetMealsStorage() *PostgresMealsStorage {
	return p.meals
}

// GetRoutinesStorage returns the routines storage.
func (p *PostgresStorage) GetRoutinesStorage() *PostgresRoutinesStorage {
	return p.routines
}

// GetWorkoutLogsStorage returns the workout logs storage.
func (p *PostgresStorage) GetWorkoutLogsStorage() *PostgresWorkoutLogsStorage {
	return p.workoutLogs
}

// GetActiveWorkoutsStorage returns the active workouts storage.
func (p *PostgresStorage) GetActiveWorkoutsStorage() *PostgresActiveWorkoutsStorage {
	return p.activeWorkouts
}

// GetGoalsStorage returns the goals storage.
func (p *PostgresStorage) GetGoalsStorage() *PostgresGoalsStorage {
	return p.goals
}

// GetWeightsStorage returns the body weights storage.
func (p *PostgresStorage) GetWeightsStorage() *PostgresWeightsStorage {
	return p.weights
}

// GetReportsStorage returns the reports storage.
func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}
