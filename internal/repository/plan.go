package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/model"
)

// PlanSummary 计划摘要（不含周数据）
type PlanSummary struct {
	ID        uuid.UUID `json:"id"`
	Year      int       `json:"year"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanRepository 计划仓储，计划以 JSON 文档保存
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建计划仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 保存新计划
func (r *PlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("序列化计划失败: %w", err)
	}

	query := `
		INSERT INTO plans (id, year, period_from, period_to, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		plan.ID, plan.Year, plan.From, plan.To, string(doc), plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "创建计划失败")
	}
	return nil
}

// GetByID 根据ID获取计划
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	query := `SELECT document FROM plans WHERE id = $1`

	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.NotFound("计划", id.String())
	}
	return plan, nil
}

// Update 保存计划的新版本
func (r *PlanRepository) Update(ctx context.Context, plan *model.Plan) error {
	plan.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("序列化计划失败: %w", err)
	}

	query := `
		UPDATE plans SET year = $1, period_from = $2, period_to = $3, document = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, plan.Year, plan.From, plan.To, string(doc), plan.UpdatedAt, plan.ID)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "更新计划失败")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("计划", plan.ID.String())
	}
	return nil
}

// Delete 删除计划及其操作记录
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plan_operations WHERE plan_id = $1", id); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "删除操作记录失败")
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "删除计划失败")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound("计划", id.String())
	}
	return nil
}

// List 列出计划摘要
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*PlanSummary, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argNum))
		args = append(args, filter.Year)
		argNum++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("period_to >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("period_from <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM plans %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "统计计划数量失败")
	}

	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	query := fmt.Sprintf(`
		SELECT id, year, period_from, period_to, created_at, updated_at
		FROM plans %s
		ORDER BY period_from %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.direction(), argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CodeDatabaseError, "查询计划列表失败")
	}
	defer rows.Close()

	var plans []*PlanSummary
	for rows.Next() {
		s := &PlanSummary{}
		if err := rows.Scan(&s.ID, &s.Year, &s.From, &s.To, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("扫描计划摘要失败: %w", err)
		}
		plans = append(plans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("遍历计划列表失败: %w", err)
	}
	return plans, total, nil
}

// GetLatestBefore 返回开始日期早于 before 的最近一期计划，没有则返回 nil
func (r *PlanRepository) GetLatestBefore(ctx context.Context, before time.Time) (*model.Plan, error) {
	query := `
		SELECT document FROM plans
		WHERE period_from < $1
		ORDER BY period_from DESC
		LIMIT 1
	`
	return scanPlan(r.db.QueryRowContext(ctx, query, model.FormatDate(before)))
}

// PriorPlan 实现 boundary.PriorPlanSource
func (r *PlanRepository) PriorPlan(ctx context.Context, before time.Time) (*model.Plan, error) {
	plan, err := r.GetLatestBefore(ctx, before)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	if err := plan.Validate(); err != nil {
		return nil, errors.InvalidPriorPlan(err)
	}
	return plan, nil
}

// scanPlan 扫描计划文档，无记录时返回 nil
func scanPlan(row Scanner) (*model.Plan, error) {
	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取计划失败")
	}

	var plan model.Plan
	if err := json.Unmarshal([]byte(doc), &plan); err != nil {
		return nil, fmt.Errorf("解析计划文档失败: %w", err)
	}
	return &plan, nil
}
