package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type MovieRepository struct {
	s *store
}

func NewMovieRepository(s *store) *MovieRepository {
	return &MovieRepository{s: s}
}

// ListByCategory 列出分类下的电影
func (r *MovieRepository) ListByCategory(ctx context.Context, categoryID int) []model.Movie {
	return findAll[model.Movie](ctx, r.s, "movie.list_by_category", func(db *gorm.DB) *gorm.DB {
		return db.Where("category_id = ?", categoryID).Order("id ASC")
	})
}

// ListByYear 列出某年份的电影
func (r *MovieRepository) ListByYear(ctx context.Context, year int) []model.Movie {
	return findAll[model.Movie](ctx, r.s, "movie.list_by_year", func(db *gorm.DB) *gorm.DB {
		return db.Where("year = ?", year).Order("id ASC")
	})
}

// FindByID 根据 ID 查找电影
func (r *MovieRepository) FindByID(ctx context.Context, id int) *model.Movie {
	return findOne[model.Movie](ctx, r.s, "movie.find_by_id", byID(id))
}

// SearchByTitle 按标题子串搜索
func (r *MovieRepository) SearchByTitle(ctx context.Context, q string) []model.Movie {
	return findAll[model.Movie](ctx, r.s, "movie.search", containing("title", q))
}

// Upsert 按 ExternalID 插入或更新
func (r *MovieRepository) Upsert(ctx context.Context, m *model.Movie) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	if m.Genres == nil {
		m.Genres = model.Genres{}
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "year", "genres", "duration", "imdb_rating",
			"description", "poster_url", "category_id", "stream_url",
		}),
	}).Create(m).Error
}
