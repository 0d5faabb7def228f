// Package repository provides storage for brand workspaces.
package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand"
)

// BrandRepository defines the interface for brand storage
type BrandRepository interface {
	Create(ctx context.Context, b *brand.Brand) error
	Get(ctx context.Context, id uuid.UUID) (*brand.Brand, error)
	List(ctx context.Context) ([]*brand.Brand, error)
	Update(ctx context.Context, b *brand.Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemoryBrandRepository keeps brands in process memory. Reads and writes
// copy, so callers never share a brand with the store.
type MemoryBrandRepository struct {
	mu     sync.RWMutex
	brands map[uuid.UUID]*brand.Brand
}

// NewMemoryBrandRepository creates an empty in-memory repository
func NewMemoryBrandRepository() *MemoryBrandRepository {
	return &MemoryBrandRepository{brands: make(map[uuid.UUID]*brand.Brand)}
}

func (r *MemoryBrandRepository) Create(_ context.Context, b *brand.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[b.ID] = b.Clone()
	return nil
}

func (r *MemoryBrandRepository) Get(_ context.Context, id uuid.UUID) (*brand.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brands[id]
	if !ok {
		return nil, brand.ErrBrandNotFound
	}
	return b.Clone(), nil
}

// List returns every brand ordered by creation time, then name.
func (r *MemoryBrandRepository) List(_ context.Context) ([]*brand.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*brand.Brand, 0, len(r.brands))
	for _, b := range r.brands {
		out = append(out, b.Clone())
	}
	slices.SortFunc(out, func(a, b *brand.Brand) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Update replaces a stored brand. Concurrent updates are last write wins.
func (r *MemoryBrandRepository) Update(_ context.Context, b *brand.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[b.ID]; !ok {
		return brand.ErrBrandNotFound
	}
	r.brands[b.ID] = b.Clone()
	return nil
}

func (r *MemoryBrandRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.brands[id]; !ok {
		return brand.ErrBrandNotFound
	}
	delete(r.brands, id)
	return nil
}
