package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/config"
	"github.com/user/iptvhub/internal/repository"
	"github.com/user/iptvhub/internal/service"
	"github.com/user/iptvhub/internal/utils"
)

// sourceList 可重复或逗号分隔的来源参数
type sourceList []string

func (s *sourceList) String() string {
	return strings.Join(*s, ",")
}

func (s *sourceList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func main() {
	var playlists, seeds sourceList
	flag.Var(&playlists, "playlist", "M3U 播放列表，本地路径或 http(s) 地址")
	flag.Var(&seeds, "seed", "JSON 种子文件路径")
	flag.Parse()

	if len(playlists) == 0 && len(seeds) == 0 {
		flag.Usage()
		os.Exit(2)
	}

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

	db, err := repository.InitDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if db == nil {
		logger.Fatal("导入需要数据库，请配置 DATABASE_URL")
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos := repository.NewRepositories(db, logger, cfg.OwnerOpenID)
	importer := service.NewImporter(repos, utils.NewHTTPClient(cfg.UpstreamTimeout), service.UpstreamConfig{
		Host:     cfg.UpstreamHost,
		Username: cfg.UpstreamUsername,
		Password: cfg.UpstreamPassword,
	}, logger)

	report := importer.Run(ctx, playlists, seeds)
	logger.Info("导入完成",
		zap.Int("sources", report.Sources),
		zap.Int("failed", report.Failed),
		zap.Int("channels", report.Channels),
		zap.Int("epg", report.Epg),
		zap.Int("movies", report.Movies),
		zap.Int("series", report.Series),
		zap.Int("episodes", report.Episodes),
	)
	if report.Failed == report.Sources {
		logger.Sync()
		os.Exit(1)
	}
}
