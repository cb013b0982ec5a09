package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
)

// ErrInvalidContentKind 列表不接受该内容类型
var ErrInvalidContentKind = errors.New("该列表不支持此内容类型")

// LibraryService 用户的待看、历史、收藏。userID 只来自登录态
type LibraryService struct {
	repos *repository.Repositories
}

// NewLibraryService 创建用户列表服务
func NewLibraryService(repos *repository.Repositories) *LibraryService {
	return &LibraryService{repos: repos}
}

func checkKind(list model.ListKind, ref model.ContentRef) error {
	if ref.ID <= 0 || !list.Allows(ref.Kind) {
		return fmt.Errorf("%w: %s 只接受 %v，收到 %s:%d", ErrInvalidContentKind, list, list.AllowedKinds(), ref.Kind, ref.ID)
	}
	return nil
}

func (s *LibraryService) Watchlist(ctx context.Context, userID int) []model.WatchlistItem {
	return s.repos.Watchlist.List(ctx, userID)
}

func (s *LibraryService) AddToWatchlist(ctx context.Context, userID int, ref model.ContentRef) error {
	if err := checkKind(model.ListWatchlist, ref); err != nil {
		return err
	}
	return s.repos.Watchlist.Add(ctx, userID, ref)
}

func (s *LibraryService) RemoveFromWatchlist(ctx context.Context, userID int, ref model.ContentRef) error {
	if err := checkKind(model.ListWatchlist, ref); err != nil {
		return err
	}
	return s.repos.Watchlist.Remove(ctx, userID, ref)
}

func (s *LibraryService) History(ctx context.Context, userID int) []model.HistoryEntry {
	return s.repos.History.List(ctx, userID)
}

func (s *LibraryService) AddHistory(ctx context.Context, userID int, ref model.ContentRef, progress *int) error {
	if err := checkKind(model.ListHistory, ref); err != nil {
		return err
	}
	return s.repos.History.Add(ctx, userID, ref, progress)
}

// UpdateProgress 更新播放进度，同一内容只保留一条
func (s *LibraryService) UpdateProgress(ctx context.Context, userID int, ref model.ContentRef, progress int) error {
	if err := checkKind(model.ListHistory, ref); err != nil {
		return err
	}
	return s.repos.History.UpsertProgress(ctx, userID, ref, progress)
}

func (s *LibraryService) Favorites(ctx context.Context, userID int) []model.Favorite {
	return s.repos.Favorite.List(ctx, userID)
}

func (s *LibraryService) AddFavorite(ctx context.Context, userID int, ref model.ContentRef) error {
	if err := checkKind(model.ListFavorites, ref); err != nil {
		return err
	}
	return s.repos.Favorite.Add(ctx, userID, ref)
}

func (s *LibraryService) RemoveFavorite(ctx context.Context, userID int, ref model.ContentRef) error {
	if err := checkKind(model.ListFavorites, ref); err != nil {
		return err
	}
	return s.repos.Favorite.Remove(ctx, userID, ref)
}

// IsFavorited 是否已收藏
func (s *LibraryService) IsFavorited(ctx context.Context, userID int, ref model.ContentRef) (bool, error) {
	if err := checkKind(model.ListFavorites, ref); err != nil {
		return false, err
	}
	return s.repos.Favorite.IsFavorited(ctx, userID, ref), nil
}
