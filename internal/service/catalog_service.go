package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
)

// CatalogService 目录查询，对外返回的播放地址一律替换为代理地址
type CatalogService struct {
	repos    *repository.Repositories
	resolver *StreamResolver
}

// NewCatalogService 创建目录服务
func NewCatalogService(repos *repository.Repositories, resolver *StreamResolver) *CatalogService {
	return &CatalogService{repos: repos, resolver: resolver}
}

// GlobalSearchResult 全局搜索结果，三组始终存在
type GlobalSearchResult struct {
	Channels []model.Channel `json:"channels"`
	Movies   []model.Movie   `json:"movies"`
	Series   []model.Series  `json:"series"`
}

func (s *CatalogService) ListCategories(ctx context.Context, t model.CategoryType) []model.Category {
	return s.repos.Category.ListByType(ctx, t)
}

func (s *CatalogService) ListChannels(ctx context.Context, categoryID int) []model.Channel {
	return s.maskChannels(s.repos.Channel.ListByCategory(ctx, categoryID))
}

func (s *CatalogService) GetChannel(ctx context.Context, id int) *model.Channel {
	ch := s.repos.Channel.FindByID(ctx, id)
	if ch != nil {
		ch.StreamURL = s.resolver.Resolve(StreamLive, ch.ID)
	}
	return ch
}

func (s *CatalogService) SearchChannels(ctx context.Context, q string) []model.Channel {
	return s.maskChannels(s.repos.Channel.SearchByName(ctx, q))
}

// ChannelEpg 频道节目单
func (s *CatalogService) ChannelEpg(ctx context.Context, channelID int) []model.EpgEntry {
	return s.repos.Epg.ListByChannel(ctx, channelID)
}

func (s *CatalogService) ListMovies(ctx context.Context, categoryID int) []model.Movie {
	return s.maskMovies(s.repos.Movie.ListByCategory(ctx, categoryID))
}

func (s *CatalogService) ListMoviesByYear(ctx context.Context, year int) []model.Movie {
	return s.maskMovies(s.repos.Movie.ListByYear(ctx, year))
}

func (s *CatalogService) GetMovie(ctx context.Context, id int) *model.Movie {
	m := s.repos.Movie.FindByID(ctx, id)
	if m != nil {
		m.StreamURL = s.resolver.Resolve(StreamMovie, m.ID)
	}
	return m
}

func (s *CatalogService) SearchMovies(ctx context.Context, q string) []model.Movie {
	return s.maskMovies(s.repos.Movie.SearchByTitle(ctx, q))
}

func (s *CatalogService) ListSeries(ctx context.Context, categoryID int) []model.Series {
	return s.repos.Series.ListByCategory(ctx, categoryID)
}

func (s *CatalogService) GetSeries(ctx context.Context, id int) *model.Series {
	return s.repos.Series.FindByID(ctx, id)
}

func (s *CatalogService) SearchSeries(ctx context.Context, q string) []model.Series {
	return s.repos.Series.SearchByTitle(ctx, q)
}

// ListEpisodes 剧集分集，season 为 nil 时返回全部
func (s *CatalogService) ListEpisodes(ctx context.Context, seriesID int, season *int) []model.Episode {
	episodes := s.repos.Episode.ListBySeries(ctx, seriesID, season)
	for i := range episodes {
		episodes[i].StreamURL = s.resolver.Resolve(StreamSeries, episodes[i].ID)
	}
	return episodes
}

func (s *CatalogService) GetEpisode(ctx context.Context, id int) *model.Episode {
	e := s.repos.Episode.FindByID(ctx, id)
	if e != nil {
		e.StreamURL = s.resolver.Resolve(StreamSeries, e.ID)
	}
	return e
}

// GlobalSearch 并发搜索频道、电影、剧集，不去重不排序
func (s *CatalogService) GlobalSearch(ctx context.Context, q string) (*GlobalSearchResult, error) {
	var res GlobalSearchResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res.Channels = s.SearchChannels(gctx, q)
		return gctx.Err()
	})
	g.Go(func() error {
		res.Movies = s.SearchMovies(gctx, q)
		return gctx.Err()
	})
	g.Go(func() error {
		res.Series = s.SearchSeries(gctx, q)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CatalogService) maskChannels(channels []model.Channel) []model.Channel {
	for i := range channels {
		channels[i].StreamURL = s.resolver.Resolve(StreamLive, channels[i].ID)
	}
	return channels
}

func (s *CatalogService) maskMovies(movies []model.Movie) []model.Movie {
	for i := range movies {
		movies[i].StreamURL = s.resolver.Resolve(StreamMovie, movies[i].ID)
	}
	return movies
}
