package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type SeriesRepository struct {
	s *store
}

func NewSeriesRepository(s *store) *SeriesRepository {
	return &SeriesRepository{s: s}
}

// ListByCategory 列出分类下的剧集
func (r *SeriesRepository) ListByCategory(ctx context.Context, categoryID int) []model.Series {
	return findAll[model.Series](ctx, r.s, "series.list_by_category", func(db *gorm.DB) *gorm.DB {
		return db.Where("category_id = ?", categoryID).Order("id ASC")
	})
}

// FindByID 根据 ID 查找剧集
func (r *SeriesRepository) FindByID(ctx context.Context, id int) *model.Series {
	return findOne[model.Series](ctx, r.s, "series.find_by_id", byID(id))
}

// FindByExternalID 根据上游 ID 查找剧集
func (r *SeriesRepository) FindByExternalID(ctx context.Context, externalID string) *model.Series {
	return findOne[model.Series](ctx, r.s, "series.find_by_external_id", func(db *gorm.DB) *gorm.DB {
		return db.Where("external_id = ?", externalID)
	})
}

// SearchByTitle 按标题子串搜索
func (r *SeriesRepository) SearchByTitle(ctx context.Context, q string) []model.Series {
	return findAll[model.Series](ctx, r.s, "series.search", containing("title", q))
}

// Upsert 按 ExternalID 插入或更新
func (r *SeriesRepository) Upsert(ctx context.Context, s *model.Series) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	if s.Genres == nil {
		s.Genres = model.Genres{}
	}
	if s.TotalSeasons == 0 {
		s.TotalSeasons = 1
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "genres", "imdb_rating", "description", "poster_url",
			"category_id", "total_seasons", "total_episodes",
		}),
	}).Create(s).Error
}
