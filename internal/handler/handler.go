// Package handler 提供计划、换班操作与分析的HTTP处理器
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/paiban/rota/internal/database"
	"github.com/paiban/rota/internal/repository"
	"github.com/paiban/rota/pkg/boundary"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/policy"
)

// Handler HTTP处理器，持有仓储与策略
type Handler struct {
	db       *database.DB
	plans    *repository.PlanRepository
	ops      *repository.OperationRepository
	policy   *model.Policy
	boundary *boundary.Calculator
	strict   bool

	locks *planLocks
}

// Options 处理器选项
type Options struct {
	Policy         *model.Policy // 为空时使用默认策略
	StrictBoundary bool
}

// New 创建处理器
func New(db *database.DB, opts Options) *Handler {
	p := opts.Policy
	if p == nil {
		p = policy.Default()
	}
	return &Handler{
		db:       db,
		plans:    repository.NewPlanRepository(db),
		ops:      repository.NewOperationRepository(db),
		policy:   p,
		boundary: boundary.NewCalculator(),
		strict:   opts.StrictBoundary,
		locks:    newPlanLocks(),
	}
}

// Policy 返回当前使用的策略
func (h *Handler) Policy() *model.Policy {
	return h.policy
}

// planLocks 每个计划一把互斥锁，同一计划上的修改串行执行
//
// 条目按引用计数，最后一个持有或等待者释放时才从表中删除，
// 因此同一计划任何时刻只对应一把锁。
type planLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*planLock
}

type planLock struct {
	sync.Mutex
	refs int
}

func newPlanLocks() *planLocks {
	return &planLocks{locks: make(map[uuid.UUID]*planLock)}
}

func (l *planLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &planLock{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   bool                   `json:"error"`
	Code    errors.Code            `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetHTTPStatus(err)
	resp := ErrorResponse{Error: true, Code: errors.GetCode(err), Message: err.Error()}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Details = appErr.Details
		resp.Fields = appErr.Fields
	}
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Msg("请求处理失败")
		if appErr == nil {
			resp.Code = errors.CodeInternal
			resp.Message = "服务器内部错误"
		}
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("body", fmt.Sprintf("请求体解析失败: %v", err))
	}
	return nil
}

// planID 解析路径中的计划ID并写入日志上下文
func planID(r *http.Request) (uuid.UUID, *http.Request, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, r, errors.InvalidInput("id", "计划ID格式错误")
	}
	return id, r.WithContext(logger.WithPlanID(r.Context(), id.String())), nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidInput(key, "必须为整数")
	}
	return v, nil
}
