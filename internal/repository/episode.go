package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user/iptvhub/internal/model"
)

type EpisodeRepository struct {
	s *store
}

func NewEpisodeRepository(s *store) *EpisodeRepository {
	return &EpisodeRepository{s: s}
}

// ListBySeries 列出剧集分集，season 为 nil 时返回全部
func (r *EpisodeRepository) ListBySeries(ctx context.Context, seriesID int, season *int) []model.Episode {
	return findAll[model.Episode](ctx, r.s, "episode.list_by_series", func(db *gorm.DB) *gorm.DB {
		db = db.Where("series_id = ?", seriesID)
		if season != nil {
			db = db.Where("season = ?", *season)
		}
		return db.Order("season ASC, episode ASC, id ASC")
	})
}

// FindByID 根据 ID 查找分集
func (r *EpisodeRepository) FindByID(ctx context.Context, id int) *model.Episode {
	return findOne[model.Episode](ctx, r.s, "episode.find_by_id", byID(id))
}

// Upsert 按 ExternalID 插入或更新
func (r *EpisodeRepository) Upsert(ctx context.Context, e *model.Episode) error {
	db, err := r.s.writer(ctx)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"series_id", "season", "episode", "title", "stream_url"}),
	}).Create(e).Error
}
