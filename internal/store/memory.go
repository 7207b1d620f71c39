package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vodforge/vodforge/internal/media"
)

// MemoryStore is an in-memory implementation of Store for testing.
// BeginProcessing is atomic under the store mutex, matching the
// conditional-update semantics of the Postgres implementation.
type MemoryStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]media.Item

	// Error hooks for tests.
	GetErr    error
	CreateErr error
	UpdateErr error
	BeginErr  error

	// UpdateCalls records every item passed to Update (test helper).
	UpdateCalls []media.Item
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]media.Item)}
}

func (s *MemoryStore) Create(ctx context.Context, item *media.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.CreateErr != nil {
		return s.CreateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = uuid.New()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (media.Item, error) {
	if err := ctx.Err(); err != nil {
		return media.Item{}, err
	}
	if s.GetErr != nil {
		return media.Item{}, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return media.Item{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) Update(ctx context.Context, item *media.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = *item
	s.UpdateCalls = append(s.UpdateCalls, *item)
	return nil
}

func (s *MemoryStore) BeginProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.BeginErr != nil {
		return false, s.BeginErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok || item.Status != media.StatusUploaded {
		return false, nil
	}
	item.Status = media.StatusProcessing
	item.UpdatedAt = time.Now().UTC()
	s.items[id] = item
	return true, nil
}

// Put inserts an item as-is, keeping its id (test helper).
func (s *MemoryStore) Put(item media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}
