package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/user/iptvhub/internal/model"
)

type CategoryRepository struct {
	s *store
}

func NewCategoryRepository(s *store) *CategoryRepository {
	return &CategoryRepository{s: s}
}

// ListByType 按类型列出分类
func (r *CategoryRepository) ListByType(ctx context.Context, t model.CategoryType) []model.Category {
	return findAll[model.Category](ctx, r.s, "category.list_by_type", func(db *gorm.DB) *gorm.DB {
		return db.Where("type = ?", t).Order("id ASC")
	})
}

// Ensure 按名称和类型查找，不存在则创建
func (r *CategoryRepository) Ensure(ctx context.Context, name string, t model.CategoryType) (*model.Category, error) {
	db, err := r.s.writer(ctx)
	if err != nil {
		return nil, err
	}
	var c model.Category
	err = db.Where(model.Category{Name: name, Type: t}).FirstOrCreate(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
