package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/config"
	"github.com/user/iptvhub/internal/repository"
	"github.com/user/iptvhub/internal/service"
	"github.com/user/iptvhub/internal/utils"
)

const (
	redirectCacheSize = 1024
	redirectCacheTTL  = 6 * time.Hour
	upstreamCooldown  = 30 * time.Second
)

// Handler HTTP 处理器
type Handler struct {
	Repos    *repository.Repositories
	Config   *config.Config
	Catalog  *service.CatalogService
	Library  *service.LibraryService
	Auth     *service.AuthService
	Resolver *service.StreamResolver
	Importer *service.Importer

	upstream  *utils.HTTPClient
	redirects *utils.TTLCache[string]
	cooldown  *utils.Cooldown
	log       *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, logger *zap.Logger) *Handler {
	upstreamCfg := service.UpstreamConfig{
		Host:     cfg.UpstreamHost,
		Username: cfg.UpstreamUsername,
		Password: cfg.UpstreamPassword,
	}
	resolver := service.NewStreamResolver(upstreamCfg)
	client := utils.NewHTTPClient(cfg.UpstreamTimeout)

	return &Handler{
		Repos:     repos,
		Config:    cfg,
		Catalog:   service.NewCatalogService(repos, resolver),
		Library:   service.NewLibraryService(repos),
		Auth:      service.NewAuthService(repos.User, cfg.IdentityTokenSecret),
		Resolver:  resolver,
		Importer:  service.NewImporter(repos, client, upstreamCfg, logger),
		upstream:  client,
		redirects: utils.NewTTLCache[string](redirectCacheSize, redirectCacheTTL),
		cooldown:  utils.NewCooldown(upstreamCooldown),
		log:       logger.Named("handler"),
	}
}

// writeError 把服务层错误映射为 HTTP 状态
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidContentKind):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		utils.ServiceUnavailable(c, "数据库不可用")
	case errors.Is(err, service.ErrInvalidIdentityToken):
		utils.Unauthorized(c, "身份令牌无效")
	case errors.Is(err, service.ErrIdentityNotConfigured):
		utils.ServiceUnavailable(c, "登录未启用")
	default:
		h.log.Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		utils.InternalServerError(c, "")
	}
}

type idURI struct {
	ID int `uri:"id" binding:"required,gt=0"`
}

// bindID 解析路径中的 :id
func bindID(c *gin.Context) (int, bool) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		utils.ValidationError(c, err)
		return 0, false
	}
	return uri.ID, true
}
