package handler

import (
	"net/http"
	"strings"

	"github.com/paiban/rota/internal/metrics"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/stats"
	"github.com/paiban/rota/pkg/swap"
	"github.com/paiban/rota/pkg/validator"
)

// AuditPlan 检查计划是否满足晚班与居家办公规则
func (h *Handler) AuditPlan(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validator.NewAuditor(h.policy).Audit(plan))
}

// PlanStats 计划覆盖率与公平性统计
func (h *Handler) PlanStats(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report := stats.Analyze(plan, h.policy)
	coverage, _ := report.Coverage.LateShiftCoverage.Float64()
	metrics.SetLateShiftCoverage(id.String(), coverage)
	metrics.SetFairnessGini(id.String(), "late_shift", report.Fairness.LateShiftGini)
	metrics.SetFairnessGini(id.String(), "home_office", report.Fairness.HomeOfficeGini)

	writeJSON(w, http.StatusOK, report)
}

// Recommendations 为某员工的晚班周期推荐接替人
//
// 查询参数：employee、week、max（默认5）、exclude（逗号分隔）
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	employee := q.Get("employee")
	if employee == "" {
		writeError(w, r, errors.InvalidInput("employee", "不能为空"))
		return
	}
	if q.Get("week") == "" {
		writeError(w, r, errors.InvalidInput("week", "不能为空"))
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts := swap.DefaultRecommendOptions()
	if opts.MaxRecommendations, err = queryInt(r, "max", opts.MaxRecommendations); err != nil {
		writeError(w, r, err)
		return
	}
	if exclude := q.Get("exclude"); exclude != "" {
		opts.ExcludeEmployees = strings.Split(exclude, ",")
	}

	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := swap.Recommend(plan, h.policy, employee, week, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []swap.Recommendation{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// BoundaryRequest 计划边界请求
type BoundaryRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Strict *bool  `json:"strict,omitempty"` // 为空时使用服务配置
}

// BoundaryResponse 计划边界响应
type BoundaryResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Boundary 计算新计划期的起止日期，上期计划取自已保存的计划
func (h *Handler) Boundary(w http.ResponseWriter, r *http.Request) {
	var req BoundaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ve := &errors.ValidationErrors{}
	start, err := model.ParseDate(req.Start)
	if err != nil {
		ve.Add("start", "日期格式应为 YYYY-MM-DD")
	}
	end, err := model.ParseDate(req.End)
	if err != nil {
		ve.Add("end", "日期格式应为 YYYY-MM-DD")
	}
	if ve.HasErrors() {
		writeError(w, r, ve.ToAppError())
		return
	}

	strict := h.strict
	if req.Strict != nil {
		strict = *req.Strict
	}

	from, to, err := h.boundary.CalculateFrom(r.Context(), h.plans, start, end, strict)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BoundaryResponse{From: model.FormatDate(from), To: model.FormatDate(to)})
}
