package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type CategoryService struct {
	store storage.CategoryStore
}

func NewCategoryService(store storage.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, ownerID int64) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create rejects a name already used by the owner, ignoring case.
func (s *CategoryService) Create(ctx context.Context, ownerID int64, in core.Category) (core.Category, error) {
	in.ID = 0
	in.OwnerID = ownerID
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}

	_, err := s.store.FindCategoryByName(ctx, ownerID, in.Name)
	switch {
	case err == nil:
		return core.Category{}, fmt.Errorf("category %q already exists: %w", in.Name, core.ErrConflict)
	case !errors.Is(err, storage.ErrNotFound):
		return core.Category{}, fmt.Errorf("check category name: %w", err)
	}

	created, err := s.store.CreateCategory(ctx, in)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Category{}, fmt.Errorf("category %q already exists: %w", in.Name, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// Delete refuses categories still referenced by transactions or recurring payments.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id int64) error {
	if _, err := loadOwned(ctx, ownerID, id, "category", s.store.GetCategory, categoryOwner); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, storage.ErrInUse) {
			return fmt.Errorf("category %d is in use: %w", id, core.ErrConflict)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
