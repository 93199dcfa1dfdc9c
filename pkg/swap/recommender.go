package swap

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
)

// Recommendation 接替人推荐
type Recommendation struct {
	EmployeeID    string `json:"employee_id"`
	Name          string `json:"name"`
	CancelledHo   int    `json:"cancelled_ho"`    // 接替后被取消的居家办公天数
	LateShiftDays int    `json:"late_shift_days"` // 计划中已有的晚班天数
	Rank          int    `json:"rank"`
}

// RecommendOptions 推荐选项
type RecommendOptions struct {
	MaxRecommendations int      // 0 表示不限
	ExcludeEmployees   []string // 排除的员工
}

// DefaultRecommendOptions 返回默认选项
func DefaultRecommendOptions() *RecommendOptions {
	return &RecommendOptions{MaxRecommendations: 5}
}

// Recommend 为 employee1 从 week1 开始的晚班周期推荐接替人
//
// 对每个候选人在计划副本上模拟 Replace（不补偿居家办公），
// 按被取消的居家办公天数、已有晚班天数升序排列。
func Recommend(plan *model.Plan, policy *model.Policy, employee1 string, week1 int, opts *RecommendOptions) ([]Recommendation, error) {
	if plan == nil {
		return nil, errors.InvalidParameters("计划不能为空")
	}
	if opts == nil {
		opts = DefaultRecommendOptions()
	}
	if _, ok := plan.Employee(employee1); !ok {
		return nil, errors.InvalidEmployee(employee1)
	}

	exclude := map[string]bool{employee1: true}
	for _, id := range opts.ExcludeEmployees {
		exclude[id] = true
	}

	quiet := WithLogger(logger.NewSwapLoggerWith(zerolog.Nop()))
	load := lateShiftLoad(plan)

	var out []Recommendation
	for _, emp := range plan.Employees {
		if exclude[emp.ID] || !emp.CanWorkLateShift() {
			continue
		}
		req := &Request{Mode: ModeReplace, Employee1: employee1, Week1: week1, Employee2: emp.ID}
		preview, err := req.Evaluate(plan, policy, quiet)
		if err != nil {
			return nil, err
		}
		out = append(out, Recommendation{
			EmployeeID:    emp.ID,
			Name:          emp.Name,
			CancelledHo:   preview.Result.CancelledHoEmployee2,
			LateShiftDays: load[emp.ID],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CancelledHo != out[j].CancelledHo {
			return out[i].CancelledHo < out[j].CancelledHo
		}
		if out[i].LateShiftDays != out[j].LateShiftDays {
			return out[i].LateShiftDays < out[j].LateShiftDays
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})

	if opts.MaxRecommendations > 0 && len(out) > opts.MaxRecommendations {
		out = out[:opts.MaxRecommendations]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func lateShiftLoad(plan *model.Plan) map[string]int {
	load := make(map[string]int)
	for _, w := range plan.Weeks {
		for _, d := range w.Days {
			if d.LateShift != "" {
				load[d.LateShift]++
			}
		}
	}
	return load
}
