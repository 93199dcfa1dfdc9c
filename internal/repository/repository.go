// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// ListFilter 列表查询过滤器
type ListFilter struct {
	Year      int    `json:"year,omitempty"`
	StartDate string `json:"start_date,omitempty"` // 计划期结束不早于该日期
	EndDate   string `json:"end_date,omitempty"`   // 计划期开始不晚于该日期
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
	OrderDir  string `json:"order_dir,omitempty"` // asc/desc，按计划期开始日期
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset:   0,
		Limit:    20,
		OrderDir: "desc",
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithYear 设置年份
func (f ListFilter) WithYear(year int) ListFilter {
	f.Year = year
	return f
}

// WithDateRange 设置日期范围
func (f ListFilter) WithDateRange(start, end string) ListFilter {
	f.StartDate = start
	f.EndDate = end
	return f
}

func (f ListFilter) direction() string {
	if f.OrderDir == "asc" {
		return "ASC"
	}
	return "DESC"
}

// DB 数据库接口，*sql.DB、*sql.Tx 与 database.DB 均满足
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}
