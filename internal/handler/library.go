package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/user/iptvhub/internal/middleware"
	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/utils"
)

type contentRequest struct {
	ContentType model.ContentKind `json:"contentType" binding:"required,oneof=channel movie series episode"`
	ContentID   int               `json:"contentId" binding:"required,gt=0"`
}

type contentURI struct {
	ContentType model.ContentKind `uri:"contentType" binding:"required,oneof=channel movie series episode"`
	ContentID   int               `uri:"contentId" binding:"required,gt=0"`
}

type historyRequest struct {
	ContentType model.ContentKind `json:"contentType" binding:"required,oneof=channel movie episode"`
	ContentID   int               `json:"contentId" binding:"required,gt=0"`
	Progress    *int              `json:"progress" binding:"omitempty,gte=0"`
}

type progressRequest struct {
	ContentType model.ContentKind `json:"contentType" binding:"required,oneof=channel movie episode"`
	ContentID   int               `json:"contentId" binding:"required,gt=0"`
	Progress    *int              `json:"progress" binding:"required,gte=0"`
}

func bindContent(c *gin.Context) (model.ContentRef, bool) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return model.ContentRef{}, false
	}
	return model.NewContentRef(req.ContentType, req.ContentID), true
}

func bindContentURI(c *gin.Context) (model.ContentRef, bool) {
	var uri contentURI
	if err := c.ShouldBindUri(&uri); err != nil {
		utils.ValidationError(c, err)
		return model.ContentRef{}, false
	}
	return model.NewContentRef(uri.ContentType, uri.ContentID), true
}

// Watchlist 待看列表
func (h *Handler) Watchlist(c *gin.Context) {
	utils.Success(c, h.Library.Watchlist(c.Request.Context(), middleware.GetUserID(c)))
}

// AddToWatchlist 加入待看
func (h *Handler) AddToWatchlist(c *gin.Context) {
	ref, ok := bindContent(c)
	if !ok {
		return
	}
	if err := h.Library.AddToWatchlist(c.Request.Context(), middleware.GetUserID(c), ref); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已加入待看", ref)
}

// RemoveFromWatchlist 移出待看
func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	ref, ok := bindContentURI(c)
	if !ok {
		return
	}
	if err := h.Library.RemoveFromWatchlist(c.Request.Context(), middleware.GetUserID(c), ref); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已移出待看", ref)
}

// History 观看历史
func (h *Handler) History(c *gin.Context) {
	utils.Success(c, h.Library.History(c.Request.Context(), middleware.GetUserID(c)))
}

// AddHistory 记录一次观看
func (h *Handler) AddHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}
	ref := model.NewContentRef(req.ContentType, req.ContentID)
	if err := h.Library.AddHistory(c.Request.Context(), middleware.GetUserID(c), ref, req.Progress); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已记录", ref)
}

// UpdateProgress 更新播放进度
func (h *Handler) UpdateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}
	ref := model.NewContentRef(req.ContentType, req.ContentID)
	if err := h.Library.UpdateProgress(c.Request.Context(), middleware.GetUserID(c), ref, *req.Progress); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "进度已更新", ref)
}

// Favorites 收藏列表
func (h *Handler) Favorites(c *gin.Context) {
	utils.Success(c, h.Library.Favorites(c.Request.Context(), middleware.GetUserID(c)))
}

// AddFavorite 添加收藏
func (h *Handler) AddFavorite(c *gin.Context) {
	ref, ok := bindContent(c)
	if !ok {
		return
	}
	if err := h.Library.AddFavorite(c.Request.Context(), middleware.GetUserID(c), ref); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "收藏成功", ref)
}

// RemoveFavorite 取消收藏
func (h *Handler) RemoveFavorite(c *gin.Context) {
	ref, ok := bindContentURI(c)
	if !ok {
		return
	}
	if err := h.Library.RemoveFavorite(c.Request.Context(), middleware.GetUserID(c), ref); err != nil {
		h.writeError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已取消收藏", ref)
}

// FavoriteStatus 是否已收藏
func (h *Handler) FavoriteStatus(c *gin.Context) {
	ref, ok := bindContentURI(c)
	if !ok {
		return
	}
	favorited, err := h.Library.IsFavorited(c.Request.Context(), middleware.GetUserID(c), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"favorited": favorited})
}
