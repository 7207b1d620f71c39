package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vodforge/vodforge/internal/media"
)

//go:embed schema.sql
var schema string

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the media_items table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, item *media.Item) error {
	item.ID = uuid.New()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO media_items (id, title, description, content_type, location, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.Title, item.Description, item.ContentType, item.Location, string(item.Status), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create media item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (media.Item, error) {
	var item media.Item
	var status string

	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, content_type, location, status, created_at, updated_at
		 FROM media_items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Title, &item.Description, &item.ContentType, &item.Location, &status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return media.Item{}, ErrNotFound
		}
		return media.Item{}, fmt.Errorf("get media item %s: %w", id, err)
	}

	item.Status = media.Status(status)
	return item, nil
}

func (s *PostgresStore) Update(ctx context.Context, item *media.Item) error {
	item.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE media_items
		 SET title = $2, description = $3, content_type = $4, location = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		item.ID, item.Title, item.Description, item.ContentType, item.Location, string(item.Status), item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update media item %s: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginProcessing relies on a conditional UPDATE so the transition is atomic
// at the database: only one of any number of racing workers sees a row change.
func (s *PostgresStore) BeginProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE media_items SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, string(media.StatusProcessing), string(media.StatusUploaded),
	)
	if err != nil {
		return false, fmt.Errorf("begin processing %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}
