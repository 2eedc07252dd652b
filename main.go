package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/router"
	"fintrack/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title FinTrack 个人理财 API
// @version 1.0
// @description 个人理财后端：收支记录、预算、资产估值、天课与所得税、周期付款日历、理财助手
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	envFile     string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&envFile, "env", ".env", "环境变量文件路径（可选）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		logrus.Info("FinTrack v1.0.0")
		return
	}

	// .env 中的 FINTRACK_* 变量覆盖配置文件
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("读取环境变量文件失败: %v", err)
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	logger.Init(cfg.Log)

	// 命令行参数覆盖端口配置
	if port != "" {
		// 自动添加冒号前缀
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		logrus.Infof("命令行指定端口: %s", port)
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		logrus.Fatalf("数据库初始化失败: %v", err)
	}

	middleware.InitJWT(cfg)

	polygon := service.NewPolygonClient(cfg.Providers.Polygon)
	gold := service.NewGoldPriceClient(cfg.Providers.Gold)
	currency := service.NewCurrencyClient(cfg.Providers.Currency)
	refresher := service.NewAssetRefresher(database.DB, gold, polygon)

	var scheduler *service.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = service.NewScheduler()
		if err := service.RegisterJobs(scheduler, cfg.Scheduler, service.Deps{
			DB:        database.DB,
			Gold:      gold,
			Currency:  currency,
			Refresher: refresher,
		}); err != nil {
			logrus.Fatalf("注册定时任务失败: %v", err)
		}
		scheduler.Start()
	}

	r := router.SetupRouter(cfg, router.Providers{
		Refresher: refresher,
		Gold:      gold,
		Stocks:    polygon,
		Search:    polygon,
		Currency:  currency,
		Chat:      service.NewChatClient(cfg.Providers.OpenAI),
		Email:     service.NewEmailService(&cfg.Email),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    cfg.Server.Port,
			"swagger": cfg.Server.BaseURL + "/swagger/index.html",
		}).Info("FinTrack 已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("服务关闭异常: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("服务已退出")
}
