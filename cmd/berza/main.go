package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"berza/internal/config"
	"berza/internal/dashboard"
	"berza/internal/gateway/database"
	"berza/internal/gateway/mseapi"
	"berza/internal/gateway/msesite"
	"berza/internal/logger"
	"berza/internal/market"
	"berza/internal/prefetch"
	"berza/internal/store"
)

func main() {
	cfgPath := flag.String("config", "config.toml", "TOML 配置文件路径")
	warm := flag.Bool("prefetch", false, "启动时预热全部公司的历史缓存")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var source market.Source
	switch cfg.Source.Kind {
	case "site":
		site := msesite.New(ctx, msesite.Config{
			BaseURL:     cfg.Source.SiteBaseURL,
			YearsBack:   cfg.Source.YearsBack,
			PageTimeout: cfg.Source.Timeout(),
		})
		defer site.Close()
		source = site
	default:
		source = mseapi.New(mseapi.Config{
			BaseURL:     cfg.Source.APIBaseURL,
			HTTPTimeout: cfg.Source.Timeout(),
		})
	}
	logger.Infof("数据源: %s", source.Name())

	var cache store.HistoryStore
	if cfg.SQLitePath != "" {
		db, err := database.OpenHistoryDB(cfg.SQLitePath)
		if err != nil {
			logger.Warnf("sqlite 缓存不可用，退回内存缓存: %v", err)
			cache = store.NewMemoryHistoryStore()
		} else {
			defer db.Close()
			cache = db
		}
	} else {
		cache = store.NewMemoryHistoryStore()
	}

	if *warm || cfg.PrefetchOnBoot {
		warmer, err := prefetch.NewWarmer(source, cache, cfg.PrefetchWorkers)
		if err != nil {
			logger.Errorf("创建预热任务失败: %v", err)
			os.Exit(1)
		}
		rep, err := warmer.Run(ctx)
		if err != nil {
			logger.Warnf("预热未完成: %v", err)
		} else {
			logger.Infof("预热完成: %d 家公司, %d 条记录, 跳过 %d, 失败 %d",
				rep.Companies, rep.Records, rep.Skipped, len(rep.Failed))
		}
	}

	ctrl := dashboard.NewController(source, cache)
	srv, err := dashboard.NewHTTPServer(dashboard.HTTPConfig{Addr: cfg.ListenAddr, Ctrl: ctrl})
	if err != nil {
		logger.Errorf("创建 HTTP 服务失败: %v", err)
		os.Exit(1)
	}
	logger.Infof("监听 %s", cfg.ListenAddr)
	if err := srv.Start(ctx); err != nil {
		logger.Errorf("HTTP 服务退出: %v", err)
		os.Exit(1)
	}
}
