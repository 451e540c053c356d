package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CategoryService serves the category tree used by the ticket form.
type CategoryService struct {
	store  repository.Store
	cache  cache.CategoryCache
	logger *zap.Logger
}

// NewCategoryService builds the service. A nil cache disables caching.
func NewCategoryService(store repository.Store, categoryCache cache.CategoryCache, logger *zap.Logger) *CategoryService {
	if categoryCache == nil {
		categoryCache = cache.NewCategoryCache(nil, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{store: store, cache: categoryCache, logger: logger}
}

// Tree returns categories with their subcategories, both sorted by name.
func (s *CategoryService) Tree(ctx context.Context) ([]domain.Category, error) {
	tree, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn("category cache read failed", zap.Error(err))
	}
	if ok {
		return tree, nil
	}
	tree, err = s.store.Repos().Categories.ListTree(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.cache.Set(ctx, tree); err != nil {
		s.logger.Warn("category cache write failed", zap.Error(err))
	}
	return tree, nil
}

// Invalidate drops the cached tree.
func (s *CategoryService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
