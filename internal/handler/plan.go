package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rota/internal/metrics"
	"github.com/paiban/rota/internal/repository"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/swap"
	"github.com/paiban/rota/pkg/validator"
)

// PlanListResponse 计划列表响应
type PlanListResponse struct {
	Plans []*repository.PlanSummary `json:"plans"`
	Total int                       `json:"total"`
}

// OperationResponse 换班操作响应
type OperationResponse struct {
	Operation *repository.Operation `json:"operation"`
	Plan      *model.Plan           `json:"plan"`
	Audit     *validator.Report     `json:"audit"`
}

// CreatePlan 保存新计划
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var plan model.Plan
	if err := decodeJSON(r, &plan); err != nil {
		writeError(w, r, err)
		return
	}
	if err := plan.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	plan.ID = uuid.Nil
	if err := h.plans.Create(r.Context(), &plan); err != nil {
		writeError(w, r, err)
		return
	}

	logger.WithContext(r.Context()).Info().
		Str("plan_id", plan.ID.String()).
		Str("from", plan.From).
		Str("to", plan.To).
		Int("weeks", len(plan.Weeks)).
		Msg("计划已创建")

	writeJSON(w, http.StatusCreated, &plan)
}

// ListPlans 列出计划摘要
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	filter := repository.DefaultListFilter()

	year, err := queryInt(r, "year", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", filter.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter = filter.WithYear(year).WithLimit(limit).WithOffset(offset).WithDateRange(q.Get("from"), q.Get("to"))
	if order := q.Get("order"); order != "" {
		filter.OrderDir = strings.ToLower(order)
	}

	plans, total, err := h.plans.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []*repository.PlanSummary{}
	}
	writeJSON(w, http.StatusOK, PlanListResponse{Plans: plans, Total: total})
}

// GetPlan 获取计划
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, plan)
}

// DeletePlan 删除计划及其操作记录
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	unlock := h.locks.lock(id)
	err = h.db.Transaction(r.Context(), func(tx *sql.Tx) error {
		return repository.NewPlanRepository(tx).Delete(r.Context(), id)
	})
	unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.WithContext(r.Context()).Info().Msg("计划已删除")
	w.WriteHeader(http.StatusNoContent)
}

// ApplyOperation 在计划上执行互换/接替
//
// dry_run=true 时在副本上执行并返回预览，不保存。
// 否则引擎在副本上运行，成功后在同一事务中保存新计划和操作记录；失败时计划不变，只记录失败操作。
func (h *Handler) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req swap.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	log := logger.WithContext(ctx)
	opt := swap.WithLogger(logger.NewSwapLoggerWith(*log))

	unlock := h.locks.lock(id)
	defer unlock()

	plan, err := h.plans.GetByID(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("dry_run") == "true" {
		preview, err := req.Evaluate(plan, h.policy, opt)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, preview)
		return
	}

	done := metrics.OperationStarted(string(req.Mode))
	defer done()

	start := time.Now()
	work := plan.Clone()
	result, err := req.Apply(work, h.policy, opt)
	if err != nil {
		metrics.RecordOperation(string(req.Mode), false, time.Since(start), 0, 0)
		h.recordFailure(ctx, id, req, err)
		writeError(w, r, err)
		return
	}
	metrics.RecordOperation(string(req.Mode), true, time.Since(start),
		result.CancelledHoEmployee1+result.CancelledHoEmployee2,
		result.UndistributedHoEmployee1+result.UndistributedHoEmployee2)

	op := &repository.Operation{
		PlanID:  id,
		Request: req,
		Result:  result,
		Status:  repository.OperationSucceeded,
	}
	err = h.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := repository.NewPlanRepository(tx).Update(ctx, work); err != nil {
			return err
		}
		return repository.NewOperationRepository(tx).Record(ctx, op)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	report := validator.NewAuditor(h.policy).Audit(work)
	for _, v := range report.Violations {
		metrics.RecordViolation(string(v.Rule), string(v.Severity))
	}

	writeJSON(w, http.StatusOK, OperationResponse{Operation: op, Plan: work, Audit: report})
}

// recordFailure 记录失败的操作，记录失败只写日志
func (h *Handler) recordFailure(ctx context.Context, planID uuid.UUID, req swap.Request, cause error) {
	op := &repository.Operation{
		PlanID:    planID,
		Request:   req,
		Status:    repository.OperationFailed,
		ErrorCode: errors.GetCode(cause),
	}
	if err := h.ops.Record(ctx, op); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Msg("失败操作记录保存失败")
	}
}

// ListOperations 列出计划的操作记录
func (h *Handler) ListOperations(w http.ResponseWriter, r *http.Request) {
	id, r, err := planID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.plans.GetByID(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	ops, err := h.ops.ListByPlan(r.Context(), id, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ops == nil {
		ops = []*repository.Operation{}
	}
	writeJSON(w, http.StatusOK, ops)
}
