package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/handler"
	"github.com/user/iptvhub/internal/middleware"
	"github.com/user/iptvhub/internal/service"
)

// NewEngine 创建 Gin 引擎并挂载中间件和路由
func NewEngine(h *handler.Handler, logger *zap.Logger) *gin.Engine {
	if h.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	useFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	// 播放代理直接转发字节，不压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{service.StreamPathPrefix})))

	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   h.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("iptvhub_session", store))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if !h.Repos.Available() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.RateLimit(h.Config.RateLimitRPS, h.Config.RateLimitBurst)
	secret := h.Config.AppSecret

	// ==================== 播放代理 ====================
	// 不加请求超时，直播连接会持续很久
	r.GET("/api/stream/:kind/:file", limiter, h.Stream)

	api := r.Group("/api")
	api.Use(middleware.Timeout(h.Config.RequestTimeout))

	// ==================== 目录 ====================
	api.GET("/categories", h.ListCategories)

	api.GET("/channels", h.ListChannels)
	api.GET("/channels/:id", h.GetChannel)
	api.GET("/channels/:id/epg", h.ChannelEpg)

	api.GET("/movies", h.ListMovies)
	api.GET("/movies/:id", h.GetMovie)

	api.GET("/series", h.ListSeries)
	api.GET("/series/:id", h.GetSeries)
	api.GET("/series/:id/episodes", h.ListEpisodes)
	api.GET("/episodes/:id", h.GetEpisode)

	search := api.Group("/search")
	search.Use(limiter)
	{
		search.GET("", h.GlobalSearch)
		search.GET("/channels", h.SearchChannels)
		search.GET("/movies", h.SearchMovies)
		search.GET("/series", h.SearchSeries)
	}

	// ==================== 认证 ====================
	auth := api.Group("/auth")
	{
		auth.POST("/callback", limiter, h.AuthCallback)
		auth.GET("/me", middleware.OptionalAuth(secret), h.Me)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 用户列表（需要登录）====================
	user := api.Group("")
	user.Use(middleware.RequireAuth(secret))
	{
		user.GET("/watchlist", h.Watchlist)
		user.POST("/watchlist", h.AddToWatchlist)
		user.DELETE("/watchlist/:contentType/:contentId", h.RemoveFromWatchlist)

		user.GET("/history", h.History)
		user.POST("/history", h.AddHistory)
		user.PUT("/history/progress", h.UpdateProgress)

		user.GET("/favorites", h.Favorites)
		user.POST("/favorites", h.AddFavorite)
		user.GET("/favorites/:contentType/:contentId", h.FavoriteStatus)
		user.DELETE("/favorites/:contentType/:contentId", h.RemoveFavorite)
	}

	// ==================== 管理后台 ====================
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAuth(secret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/import/playlist", h.AdminImportPlaylist)
	}
}

// useFieldNames 校验错误使用 json/form/uri 标签里的字段名
func useFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}
