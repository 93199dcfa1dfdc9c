// Rota 晚班/居家办公计划服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/paiban/rota/internal/config"
	"github.com/paiban/rota/internal/database"
	"github.com/paiban/rota/internal/handler"
	"github.com/paiban/rota/internal/server"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/policy"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	format := "console"
	if cfg.IsProduction() {
		format = "json"
	}
	logger.Init(logger.Config{Level: cfg.App.LogLevel, Format: format})

	fmt.Printf("Rota 计划服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	if err := run(cfg); err != nil {
		logger.WithError(err).Msg("服务异常退出")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := loadPolicy(cfg.Plan.PolicyFile)
	if err != nil {
		return err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	h := handler.New(db, handler.Options{Policy: p, StrictBoundary: cfg.Plan.StrictBoundary})
	router := server.NewRouter(cfg, h, db, server.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	})

	return server.New(cfg, router).Run(ctx)
}

// loadPolicy 读取策略文件，未配置时使用默认策略
func loadPolicy(path string) (*model.Policy, error) {
	if path == "" {
		logger.Info().Msg("未配置策略文件，使用默认策略")
		return policy.Default(), nil
	}
	p, err := policy.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("file", path).
		Int("cycle_length", p.LateShiftCycleLength).
		Int("weekly_credits", p.WeeklyHoCreditsPerEmployee).
		Msg("策略已加载")
	return p, nil
}
