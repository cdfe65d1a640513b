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

// PostgresMealsStorage — Postgres storage для приёмов пищи.
// Items хранятся в JSONB вместе со снапшотами.
type PostgresMealsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresMealsStorage создаёт новое хранилище.
func NewPostgresMealsStorage(pool *pgxpool.Pool) *PostgresMealsStorage {
	return &PostgresMealsStorage{pool: pool}
}

func (s *PostgresMealsStorage) ListMeals(ctx context.Context, ownerID string, date string) ([]storage.Meal, error) {
	q := `
		SELECT id, owner_id, name, date, items, created_at, updated_at
		FROM meals
		WHERE owner_id = $1 AND date = $2
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, q, ownerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := []storage.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}

	return meals, rows.Err()
}

func (s *PostgresMealsStorage) GetMeal(ctx context.Context, id uuid.UUID) (storage.Meal, bool, error) {
	q := `
		SELECT id, owner_id, name, date, items, created_at, updated_at
		FROM meals
		WHERE id = $1
	`

	m, err := scanMeal(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Meal{}, false, nil
	}
	if err != nil {
		return storage.Meal{}, false, err
	}

	return m, true, nil
}

func (s *PostgresMealsStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}

	now := time.Now()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	items, err := marshalMealItems(meal)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO meals (id, owner_id, name, date, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.pool.Exec(ctx, q,
		meal.ID,
		meal.OwnerID,
		meal.Name,
		meal.Date,
		items,
		meal.CreatedAt,
		meal.UpdatedAt,
	)

	return err
}

func (s *PostgresMealsStorage) UpdateMeal(ctx context.Context, meal *storage.Meal) error {
	meal.UpdatedAt = time.Now()

	items, err := marshalMealItems(meal)
	if err != nil {
		return err
	}

	q := `
		UPDATE meals
		SET name = $2, items = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := s.pool.Exec(ctx, q, meal.ID, meal.Name, items, meal.UpdatedAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresMealsStorage) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func marshalMealItems(meal *storage.Meal) ([]byte, error) {
	if meal.Items == nil {
		meal.Items = []storage.MealItem{}
	}
	return json.Marshal(meal.Items)
}

func scanMeal(row pgx.Row) (storage.Meal, error) {
	var m storage.Meal
	var items []byte

	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.Name,
		&m.Date,
		&items,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return storage.Meal{}, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &m.Items); err != nil {
			return storage.Meal{}, err
		}
	}

	return m, nil
}
