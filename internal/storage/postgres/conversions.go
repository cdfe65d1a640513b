package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// PostgresConversionsStorage — Postgres storage для пользовательских единиц измерения.
type PostgresConversionsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresConversionsStorage создаёт новое хранилище.
func NewPostgresConversionsStorage(pool *pgxpool.Pool) *PostgresConversionsStorage {
	return &PostgresConversionsStorage{pool: pool}
}

func (s *PostgresConversionsStorage) ListConversions(ctx context.Context, ownerID string, foodID uuid.UUID) ([]storage.Conversion, error) {
	q := `
		SELECT id, owner_id, food_id, name, grams, original_qty, total_weight, created_at
		FROM conversions
		WHERE food_id = $1 AND (owner_id = $2 OR owner_id = '')
		ORDER BY created_at ASC
	`

	rows, err := s.pool.Query(ctx, q, foodID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversions := []storage.Conversion{}
	for rows.Next() {
		var c storage.Conversion
		err := rows.Scan(
			&c.ID,
			&c.OwnerID,
			&c.FoodID,
			&c.Name,
			&c.Grams,
			&c.OriginalQty,
			&c.TotalWeight,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		conversions = append(conversions, c)
	}

	return conversions, rows.Err()
}

func (s *PostgresConversionsStorage) CreateConversion(ctx context.Context, conv *storage.Conversion) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()

	q := `
		INSERT INTO conversions (id, owner_id, food_id, name, grams, original_qty, total_weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, q,
		conv.ID,
		conv.OwnerID,
		conv.FoodID,
		conv.Name,
		conv.Grams,
		conv.OriginalQty,
		conv.TotalWeight,
		conv.CreatedAt,
	)

	return err
}

func (s *PostgresConversionsStorage) DeleteConversion(ctx context.Context, ownerID string, id uuid.UUID) error {
	result, err := s.pool.Exec(ctx,
		`DELETE FROM conversions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
