package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/middleware"
	"github.com/user/iptvhub/internal/repository"
	"github.com/user/iptvhub/internal/utils"
)

// ==================== 管理后台 ====================

type importRequest struct {
	PlaylistURL string `json:"playlistUrl" binding:"required,url"`
}

// AdminImportPlaylist 从远程 M3U 地址导入频道，只接受 http(s)
func (h *Handler) AdminImportPlaylist(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}
	if !strings.HasPrefix(req.PlaylistURL, "http://") && !strings.HasPrefix(req.PlaylistURL, "https://") {
		utils.BadRequest(c, "只支持 http(s) 地址")
		return
	}

	n, err := h.Importer.ImportPlaylist(c.Request.Context(), req.PlaylistURL)
	if err != nil {
		h.log.Warn("管理员导入失败", zap.Int("user_id", middleware.GetUserID(c)), zap.Error(redactURL(err)))
		if errors.Is(err, repository.ErrStoreUnavailable) {
			h.writeError(c, err)
			return
		}
		utils.Error(c, http.StatusBadGateway, "导入失败")
		return
	}
	utils.SuccessWithMessage(c, "导入完成", gin.H{"channels": n})
}
