// Package swap 提供晚班周期互换/接替以及居家办公补偿
package swap

import (
	"time"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/validator"
)

// Mode 操作模式
type Mode string

const (
	ModeCreate  Mode = "create"  // 初始分配（不经过换班引擎）
	ModeSwap    Mode = "swap"    // 两名员工互换晚班周期
	ModeReplace Mode = "replace" // 一名员工接替另一名员工的晚班周期
)

// ParseMode 解析操作模式
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCreate, ModeSwap, ModeReplace:
		return Mode(s), nil
	}
	return "", errors.InvalidParameters("不支持的操作模式: " + s)
}

// Result 操作结果
type Result struct {
	Mode Mode `json:"mode"`

	// 因新晚班被取消的居家办公天数
	CancelledHoEmployee1 int `json:"cancelled_ho_employee1"`
	CancelledHoEmployee2 int `json:"cancelled_ho_employee2"`

	// 未能补偿的居家办公天数（容量不足），仅 Swap 且开启补偿时有意义
	UndistributedHoEmployee1 int `json:"undistributed_ho_employee1"`
	UndistributedHoEmployee2 int `json:"undistributed_ho_employee2"`
}

// slot 晚班周期中的一天
type slot struct {
	week  int
	index int
}

// Engine 换班引擎，独占访问传入的计划
type Engine struct {
	plan         *model.Plan
	policy       *model.Policy
	mode         Mode
	redistribute bool

	weeks    map[int]*model.CalendarWeek
	minIndex int
	maxIndex int
	hasWeeks bool

	log     *logger.SwapLogger
	auditor *validator.Auditor
}

// Option 引擎选项
type Option func(*Engine)

// WithLogger 指定日志器
func WithLogger(l *logger.SwapLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine 创建换班引擎
func NewEngine(plan *model.Plan, policy *model.Policy, mode Mode, redistribute bool, opts ...Option) (*Engine, error) {
	if plan == nil {
		return nil, errors.InvalidParameters("计划不能为空")
	}
	if policy == nil {
		return nil, errors.InvalidParameters("策略不能为空")
	}

	e := &Engine{
		plan:         plan,
		policy:       policy,
		mode:         mode,
		redistribute: redistribute,
		weeks:        plan.Weeks,
		auditor:      validator.NewAuditor(policy),
	}
	e.minIndex, e.maxIndex, e.hasWeeks = plan.IndexRange()

	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.NewSwapLogger()
	}
	return e, nil
}

// Execute 执行互换或接替
//
// 所有校验都在修改计划之前完成；校验失败时计划保持不变。
// week2 仅用于 Swap 模式，Replace 模式下必须为空。
func (e *Engine) Execute(employee1 string, week1 int, employee2 string, week2 *int) (*Result, error) {
	started := time.Now()

	emp1, ok := e.plan.Employee(employee1)
	if !ok {
		return nil, errors.InvalidEmployee(employee1)
	}
	emp2, ok := e.plan.Employee(employee2)
	if !ok {
		return nil, errors.InvalidEmployee(employee2)
	}

	switch e.mode {
	case ModeSwap:
		if week2 == nil {
			return nil, errors.InvalidParameters("互换模式需要第二个周序号")
		}
	case ModeReplace:
		if week2 != nil {
			return nil, errors.InvalidParameters("接替模式只接受一个周序号")
		}
	default:
		return nil, errors.InvalidParameters("不支持的操作模式: " + string(e.mode))
	}
	if emp1.ID == emp2.ID {
		return nil, errors.InvalidParameters("两名员工不能相同")
	}
	if !emp2.CanWorkLateShift() {
		return nil, errors.InvalidParameters("仅居家办公的员工不能参与晚班").WithField("employee_id", emp2.ID)
	}
	if e.mode == ModeSwap && !emp1.CanWorkLateShift() {
		return nil, errors.InvalidParameters("仅居家办公的员工不能参与晚班").WithField("employee_id", emp1.ID)
	}

	if err := e.checkWeek(week1); err != nil {
		return nil, err
	}
	if e.mode == ModeSwap {
		if err := e.checkWeek(*week2); err != nil {
			return nil, err
		}
	}

	start1 := e.weeks[week1].LateShiftIndex(emp1.ID)
	if start1 < 0 {
		return nil, errors.NotOnLateShift(emp1.ID, week1)
	}

	var result *Result
	if e.mode == ModeReplace {
		e.log.StartOperation(string(e.mode), emp1.ID, week1, emp2.ID, e.redistribute)
		result = e.replace(emp1, week1, start1, emp2)
	} else {
		start2 := e.weeks[*week2].LateShiftIndex(emp2.ID)
		if start2 < 0 {
			return nil, errors.NotOnLateShift(emp2.ID, *week2)
		}
		e.log.StartOperation(string(e.mode), emp1.ID, week1, emp2.ID, e.redistribute)
		result = e.swap(emp1, week1, start1, emp2, *week2, start2)
	}

	for _, v := range e.auditor.Audit(e.plan).Hard() {
		e.log.InvariantViolation(string(v.Rule), v.Message)
	}

	first, second := result.CancelledHoEmployee1, result.CancelledHoEmployee2
	if e.mode == ModeSwap {
		first, second = result.UndistributedHoEmployee1, result.UndistributedHoEmployee2
	}
	e.log.OperationComplete(string(e.mode), time.Since(started), first, second)
	return result, nil
}

// checkWeek 检查周序号是否在计划范围内
func (e *Engine) checkWeek(week int) error {
	if !e.hasWeeks || week < e.minIndex || week > e.maxIndex || e.weeks[week] == nil {
		return errors.InvalidWeek(week, e.minIndex, e.maxIndex)
	}
	return nil
}

// replace emp2 永久接替 emp1 从 week1 开始的晚班周期
func (e *Engine) replace(emp1 *model.Employee, week1, start1 int, emp2 *model.Employee) *Result {
	slots := e.cycleSlots(week1, start1, emp1.ID, e.policy.LateShiftCycleLength)
	cancelled := e.moveCycle(slots, emp1.ID, emp2.ID)

	if e.redistribute {
		quota := e.policy.WeeklyHoCreditsPerEmployee
		left := e.redistributeHomeOffice(emp1, emp2.ID, week1, quota)
		e.log.Redistributed(emp1.ID, quota, left)
	}

	return &Result{
		Mode:                 ModeReplace,
		CancelledHoEmployee1: 0,
		CancelledHoEmployee2: cancelled,
	}
}

// swap 互换两名员工的晚班周期
func (e *Engine) swap(emp1 *model.Employee, week1, start1 int, emp2 *model.Employee, week2, start2 int) *Result {
	// 两个周期都在修改前确定，相邻周期不会互相干扰
	slots1 := e.cycleSlots(week1, start1, emp1.ID, e.policy.LateShiftCycleLength)
	slots2 := e.cycleSlots(week2, start2, emp2.ID, e.policy.LateShiftCycleLength)

	cancelled2 := e.moveCycle(slots1, emp1.ID, emp2.ID)
	cancelled1 := e.moveCycle(slots2, emp2.ID, emp1.ID)

	result := &Result{
		Mode:                 ModeSwap,
		CancelledHoEmployee1: cancelled1,
		CancelledHoEmployee2: cancelled2,
	}

	if e.redistribute {
		result.UndistributedHoEmployee1 = e.redistributeHomeOffice(emp1, emp2.ID, week1, cancelled1)
		e.log.Redistributed(emp1.ID, cancelled1, result.UndistributedHoEmployee1)
		result.UndistributedHoEmployee2 = e.redistributeHomeOffice(emp2, emp1.ID, week2, cancelled2)
		e.log.Redistributed(emp2.ID, cancelled2, result.UndistributedHoEmployee2)
	}
	return result
}

// cycleSlots 从 (weekIndex, startIndex) 起收集 remaining 个晚班日
//
// 非晚班日跳过且不计入周期。本周不足时，在下一周从 holder 的第一个晚班日继续；
// 下一周不存在或 holder 在下一周没有晚班时周期提前结束。
// 递归深度不超过计划剩余周数。
func (e *Engine) cycleSlots(weekIndex, startIndex int, holder string, remaining int) []slot {
	week := e.weeks[weekIndex]
	if week == nil || remaining <= 0 {
		return nil
	}

	var slots []slot
	for i := startIndex; i < len(week.Days) && remaining > 0; i++ {
		if !week.Days[i].LateShiftDay {
			continue
		}
		slots = append(slots, slot{week: weekIndex, index: i})
		remaining--
	}
	if remaining == 0 {
		return slots
	}

	next := e.weeks[weekIndex+1]
	if next == nil {
		return slots
	}
	idx := next.LateShiftIndex(holder)
	if idx < 0 {
		return slots
	}
	return append(slots, e.cycleSlots(weekIndex+1, idx, holder, remaining)...)
}

// moveCycle 将周期内的晚班交给 replacer，并取消 replacer 当天的居家办公
func (e *Engine) moveCycle(slots []slot, replaced, replacer string) (cancelled int) {
	perWeek := make(map[int][2]int)
	for _, s := range slots {
		day := e.weeks[s.week].Days[s.index]
		day.LateShift = replacer
		c := perWeek[s.week]
		c[0]++
		if day.RemoveHomeOffice(replacer) {
			cancelled++
			c[1]++
		}
		perWeek[s.week] = c
	}
	for _, s := range slots {
		if c, ok := perWeek[s.week]; ok {
			e.log.CycleMoved(replaced, replacer, s.week, c[0], c[1])
			delete(perWeek, s.week)
		}
	}
	return cancelled
}

// redistributeHomeOffice 为 candidate 补偿居家办公，返回未能分配的额度
//
// 从 startWeek 开始逐周进行，直到 anchor 在某周不再有晚班。
// Swap 模式额度用尽即返回；Replace 模式每周额度用尽后重置为每周额度继续。
func (e *Engine) redistributeHomeOffice(candidate *model.Employee, anchor string, startWeek, quota int) int {
	if !candidate.CanWorkHomeOffice() || quota <= 0 {
		return quota
	}
	weekly := e.policy.WeeklyHoCreditsPerEmployee

	for cw := startWeek; ; cw++ {
		week := e.weeks[cw]
		if week == nil || !week.HasLateShift(anchor) {
			break
		}

		open := weekly - week.HomeOfficeDays(candidate.ID)
		for _, day := range week.Days {
			if quota <= 0 || open <= 0 {
				break
			}
			if day.HasHomeOffice(candidate.ID) {
				continue
			}
			if !e.canPlaceHomeOffice(day, candidate) {
				continue
			}
			day.AddHomeOffice(candidate.ID)
			quota--
			open--
		}

		if quota <= 0 {
			if e.mode == ModeSwap {
				return 0
			}
			quota = weekly
		}
	}
	return quota
}

// canPlaceHomeOffice 检查当天能否为 candidate 安排居家办公
func (e *Engine) canPlaceHomeOffice(day *model.WorkDay, candidate *model.Employee) bool {
	if len(day.HomeOffice) >= e.policy.MaxHoSlotsPerDay {
		return false
	}
	if day.HasLateShift(candidate.ID) {
		return false
	}
	for _, other := range day.HomeOffice {
		if candidate.HasBackup(other) {
			return false
		}
		if emp, ok := e.plan.Employee(other); ok && emp.HasBackup(candidate.ID) {
			return false
		}
	}
	if limit := e.policy.MaxHoDaysPerMonth; limit > 0 {
		if e.monthlyHomeOffice(candidate.ID, monthOf(day.Date)) >= limit {
			return false
		}
	}
	return true
}

// monthlyHomeOffice 统计员工某月（YYYY-MM）的居家办公天数
func (e *Engine) monthlyHomeOffice(id, month string) int {
	n := 0
	for _, w := range e.weeks {
		for _, d := range w.Days {
			if monthOf(d.Date) == month && d.HasHomeOffice(id) {
				n++
			}
		}
	}
	return n
}

// monthOf 返回 YYYY-MM-DD 日期的月份部分
func monthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
