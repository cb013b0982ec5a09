package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/utils"
)

type categoryQuery struct {
	Type model.CategoryType `form:"type" binding:"required,oneof=channel movie series"`
}

type byCategoryQuery struct {
	CategoryID int `form:"categoryId" binding:"required,gt=0"`
}

type movieQuery struct {
	CategoryID *int `form:"categoryId" binding:"omitempty,gt=0"`
	Year       *int `form:"year" binding:"omitempty,gt=0"`
}

type episodeQuery struct {
	Season *int `form:"season" binding:"omitempty,gt=0"`
}

type searchQuery struct {
	Query string `form:"query"`
}

// ListCategories 按类型列出分类
func (h *Handler) ListCategories(c *gin.Context) {
	var q categoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return
	}
	utils.Success(c, h.Catalog.ListCategories(c.Request.Context(), q.Type))
}

// ListChannels 分类下的频道
func (h *Handler) ListChannels(c *gin.Context) {
	var q byCategoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return
	}
	utils.Success(c, h.Catalog.ListChannels(c.Request.Context(), q.CategoryID))
}

// GetChannel 频道详情
func (h *Handler) GetChannel(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	ch := h.Catalog.GetChannel(c.Request.Context(), id)
	if ch == nil {
		utils.NotFound(c, "频道不存在")
		return
	}
	utils.Success(c, ch)
}

// ChannelEpg 频道节目单
func (h *Handler) ChannelEpg(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	utils.Success(c, h.Catalog.ChannelEpg(c.Request.Context(), id))
}

// ListMovies 按分类或年份列出电影
func (h *Handler) ListMovies(c *gin.Context) {
	var q movieQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return
	}
	ctx := c.Request.Context()
	switch {
	case q.CategoryID != nil:
		utils.Success(c, h.Catalog.ListMovies(ctx, *q.CategoryID))
	case q.Year != nil:
		utils.Success(c, h.Catalog.ListMoviesByYear(ctx, *q.Year))
	default:
		utils.BadRequest(c, "categoryId 或 year 必须提供一个")
	}
}

// GetMovie 电影详情
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	m := h.Catalog.GetMovie(c.Request.Context(), id)
	if m == nil {
		utils.NotFound(c, "电影不存在")
		return
	}
	utils.Success(c, m)
}

// ListSeries 分类下的剧集
func (h *Handler) ListSeries(c *gin.Context) {
	var q byCategoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return
	}
	utils.Success(c, h.Catalog.ListSeries(c.Request.Context(), q.CategoryID))
}

// GetSeries 剧集详情
func (h *Handler) GetSeries(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	s := h.Catalog.GetSeries(c.Request.Context(), id)
	if s == nil {
		utils.NotFound(c, "剧集不存在")
		return
	}
	utils.Success(c, s)
}

// ListEpisodes 剧集分集，可按季过滤
func (h *Handler) ListEpisodes(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var q episodeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return
	}
	utils.Success(c, h.Catalog.ListEpisodes(c.Request.Context(), id, q.Season))
}

// GetEpisode 分集详情
func (h *Handler) GetEpisode(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	e := h.Catalog.GetEpisode(c.Request.Context(), id)
	if e == nil {
		utils.NotFound(c, "分集不存在")
		return
	}
	utils.Success(c, e)
}

func bindSearch(c *gin.Context) (string, bool) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(c, err)
		return "", false
	}
	return q.Query, true
}

func (h *Handler) SearchChannels(c *gin.Context) {
	if q, ok := bindSearch(c); ok {
		utils.Success(c, h.Catalog.SearchChannels(c.Request.Context(), q))
	}
}

func (h *Handler) SearchMovies(c *gin.Context) {
	if q, ok := bindSearch(c); ok {
		utils.Success(c, h.Catalog.SearchMovies(c.Request.Context(), q))
	}
}

func (h *Handler) SearchSeries(c *gin.Context) {
	if q, ok := bindSearch(c); ok {
		utils.Success(c, h.Catalog.SearchSeries(c.Request.Context(), q))
	}
}

// GlobalSearch 同时搜索频道、电影、剧集
func (h *Handler) GlobalSearch(c *gin.Context) {
	q, ok := bindSearch(c)
	if !ok {
		return
	}
	res, err := h.Catalog.GlobalSearch(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			utils.Error(c, http.StatusGatewayTimeout, "搜索超时")
			return
		}
		h.writeError(c, err)
		return
	}
	utils.Success(c, res)
}
