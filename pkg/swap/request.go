package swap

import (
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/validator"
)

// Request 操作请求
type Request struct {
	Mode         Mode   `json:"mode"`
	Redistribute bool   `json:"redistribute_home_office"`
	Employee1    string `json:"employee1"`
	Week1        int    `json:"week1"`
	Employee2    string `json:"employee2"`
	Week2        *int   `json:"week2,omitempty"` // 仅 Swap 模式
}

// Validate 检查操作模式；员工与周序号由引擎按计划校验
func (r *Request) Validate() error {
	switch r.Mode {
	case ModeSwap, ModeReplace:
		return nil
	case ModeCreate:
		return errors.InvalidParameters("create 模式由初始分配处理，不经过换班引擎")
	default:
		return errors.InvalidParameters("不支持的操作模式: " + string(r.Mode))
	}
}

// Apply 在 plan 上直接执行请求
func (r *Request) Apply(plan *model.Plan, policy *model.Policy, opts ...Option) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	engine, err := NewEngine(plan, policy, r.Mode, r.Redistribute, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Execute(r.Employee1, r.Week1, r.Employee2, r.Week2)
}

// Preview 预览结果
type Preview struct {
	Result *Result           `json:"result"`
	Plan   *model.Plan       `json:"plan"`
	Audit  *validator.Report `json:"audit"`
}

// Evaluate 在计划副本上执行请求，原计划不变
func (r *Request) Evaluate(plan *model.Plan, policy *model.Policy, opts ...Option) (*Preview, error) {
	if plan == nil {
		return nil, errors.InvalidParameters("计划不能为空")
	}
	work := plan.Clone()
	result, err := r.Apply(work, policy, opts...)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Result: result,
		Plan:   work,
		Audit:  validator.NewAuditor(policy).Audit(work),
	}, nil
}
