package database

import (
	"context"
	"fmt"

	"github.com/paiban/rota/pkg/logger"
)

// 迁移语句同时兼容 PostgreSQL 与 SQLite
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS plans (
		id          TEXT PRIMARY KEY,
		year        INTEGER NOT NULL,
		period_from TEXT NOT NULL,
		period_to   TEXT NOT NULL,
		document    TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_period_from ON plans (period_from)`,
	`CREATE TABLE IF NOT EXISTS plan_operations (
		id         TEXT PRIMARY KEY,
		plan_id    TEXT NOT NULL REFERENCES plans (id) ON DELETE CASCADE,
		mode       TEXT NOT NULL,
		request    TEXT NOT NULL,
		result     TEXT,
		status     TEXT NOT NULL,
		error_code TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_operations_plan ON plan_operations (plan_id, created_at)`,
}

// Migrate 创建表结构
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行迁移 %d 失败: %w", i+1, err)
		}
		logger.Debug().Int("step", i+1).Msg("迁移语句已执行")
	}
	logger.Info().Int("statements", len(migrations)).Msg("数据库迁移完成")
	return nil
}
