package main

import (
	"context"
	"encoding/gob"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/config"
	"github.com/user/iptvhub/internal/handler"
	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
	"github.com/user/iptvhub/internal/router"
	"github.com/user/iptvhub/internal/service"
	"github.com/user/iptvhub/internal/utils"
)

func main() {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})

	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() && cfg.UsesDefaultSecret() {
		logger.Warn("生产环境仍在使用默认 APP_SECRET")
	}

	// 数据库不可用时服务照常启动，目录接口返回空结果
	db, err := repository.InitDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("数据库连接失败，进入降级模式", zap.Error(err))
		db = nil
	}
	if db != nil {
		if err := repository.Migrate(db); err != nil {
			logger.Error("数据库迁移失败", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
	}

	repos := repository.NewRepositories(db, logger, cfg.OwnerOpenID)
	h := handler.NewHandler(repos, cfg, logger)
	r := router.NewEngine(h, logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	service.NewCleanupService(repos, cfg.HistoryRetention(), logger).Start(ctx)

	// 流代理是长连接，不设置 WriteTimeout
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器强制关闭", zap.Error(err))
	}

	logger.Info("服务器已退出")
}
