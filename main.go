// @title Classroom 后端 API
// @version 1.0
// @description 班级、邀请、题库与测验进度服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"classroom_backend/internal/app"
	"classroom_backend/internal/config"
	"classroom_backend/pkg/configwatcher"
	"classroom_backend/pkg/logger"
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	// .env 不存在时忽略，环境变量优先
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := configwatcher.WatchConfig(ctx, configDir, application.ReloadConfig); err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
	}

	application.Run()
}
