package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/swap"
)

// 操作状态
const (
	OperationSucceeded = "succeeded"
	OperationFailed    = "failed"
)

// Operation 计划上执行过的互换/接替操作
type Operation struct {
	ID        uuid.UUID    `json:"id"`
	PlanID    uuid.UUID    `json:"plan_id"`
	Request   swap.Request `json:"request"`
	Result    *swap.Result `json:"result,omitempty"`
	Status    string       `json:"status"`
	ErrorCode errors.Code  `json:"error_code,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// OperationRepository 操作记录仓储
type OperationRepository struct {
	db DB
}

// NewOperationRepository 创建操作记录仓储
func NewOperationRepository(db DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// Record 保存操作记录
func (r *OperationRepository) Record(ctx context.Context, op *Operation) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	req, err := json.Marshal(op.Request)
	if err != nil {
		return fmt.Errorf("序列化操作请求失败: %w", err)
	}
	var result interface{}
	if op.Result != nil {
		data, err := json.Marshal(op.Result)
		if err != nil {
			return fmt.Errorf("序列化操作结果失败: %w", err)
		}
		result = string(data)
	}

	query := `
		INSERT INTO plan_operations (id, plan_id, mode, request, result, status, error_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		op.ID, op.PlanID, string(op.Request.Mode), string(req), result, op.Status, string(op.ErrorCode), op.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "保存操作记录失败")
	}
	return nil
}

// ListByPlan 按时间顺序列出计划的操作记录，limit<=0 表示不限
func (r *OperationRepository) ListByPlan(ctx context.Context, planID uuid.UUID, limit int) ([]*Operation, error) {
	query := `
		SELECT id, plan_id, request, result, status, error_code, created_at
		FROM plan_operations
		WHERE plan_id = $1
		ORDER BY created_at ASC
	`
	args := []interface{}{planID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询操作记录失败")
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历操作记录失败: %w", err)
	}
	return ops, nil
}

func scanOperation(row Scanner) (*Operation, error) {
	op := &Operation{}
	var req string
	var result, code *string

	if err := row.Scan(&op.ID, &op.PlanID, &req, &result, &op.Status, &code, &op.CreatedAt); err != nil {
		return nil, fmt.Errorf("扫描操作记录失败: %w", err)
	}
	if err := json.Unmarshal([]byte(req), &op.Request); err != nil {
		return nil, fmt.Errorf("解析操作请求失败: %w", err)
	}
	if result != nil && *result != "" {
		op.Result = &swap.Result{}
		if err := json.Unmarshal([]byte(*result), op.Result); err != nil {
			return nil, fmt.Errorf("解析操作结果失败: %w", err)
		}
	}
	if code != nil {
		op.ErrorCode = errors.Code(*code)
	}
	return op, nil
}
