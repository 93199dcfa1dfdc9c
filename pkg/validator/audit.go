// Package validator 检查计划是否满足晚班与居家办公规则
package validator

import (
	"fmt"
	"sort"

	"github.com/paiban/rota/pkg/model"
)

// Rule 规则类型
type Rule string

const (
	RuleMutualExclusion Rule = "mutual_exclusion" // 晚班与居家办公同日
	RuleCapacity        Rule = "capacity"         // 居家办公名额超限
	RuleBackup          Rule = "backup"           // 互为备岗者同日居家
	RuleSchema          Rule = "schema"           // 参与方式不符
	RuleWeeklyCredits   Rule = "weekly_credits"   // 每周额度超限
	RuleMonthlyCap      Rule = "monthly_cap"      // 每月上限超限
	RuleSuccessive      Rule = "successive"       // 连续居家天数过多
	RuleBlockDistance   Rule = "block_distance"   // 居家办公块间隔过近
	RuleLateShiftDay    Rule = "late_shift_day"   // 非晚班日安排了晚班
)

// Severity 严重程度
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation 违规信息
type Violation struct {
	Rule       Rule     `json:"rule"`
	Severity   Severity `json:"severity"`
	EmployeeID string   `json:"employee_id,omitempty"`
	Week       int      `json:"week,omitempty"`
	Date       string   `json:"date,omitempty"`
	Message    string   `json:"message"`
}

// Report 检查报告
type Report struct {
	Violations []Violation `json:"violations"`
}

// Hard 返回必须满足的规则的违规
func (r *Report) Hard() []Violation {
	return r.filter(SeverityError)
}

// Soft 返回建议性规则的违规
func (r *Report) Soft() []Violation {
	return r.filter(SeverityWarning)
}

// Valid 没有硬性违规
func (r *Report) Valid() bool {
	return len(r.Hard()) == 0
}

func (r *Report) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

// Auditor 计划检查器
type Auditor struct {
	policy *model.Policy
}

// NewAuditor 创建检查器
func NewAuditor(policy *model.Policy) *Auditor {
	if policy == nil {
		policy = &model.Policy{}
	}
	return &Auditor{policy: policy}
}

// Audit 检查整个计划
func (a *Auditor) Audit(plan *model.Plan) *Report {
	r := &Report{}
	if plan == nil {
		return r
	}

	for _, idx := range plan.WeekIndices() {
		week := plan.Week(idx)
		for _, day := range week.Days {
			a.checkDay(r, plan, idx, day)
		}
		a.checkWeeklyCredits(r, plan, week)
	}
	a.checkMonthlyCap(r, plan)
	a.checkSuccessive(r, plan)
	a.checkBlockDistance(r, plan)

	return r
}

// checkDay 检查单日规则
func (a *Auditor) checkDay(r *Report, plan *model.Plan, week int, day *model.WorkDay) {
	add := func(rule Rule, sev Severity, emp, msg string) {
		r.Violations = append(r.Violations, Violation{
			Rule: rule, Severity: sev, EmployeeID: emp, Week: week, Date: day.Date, Message: msg,
		})
	}

	if day.LateShift != "" {
		if day.HasHomeOffice(day.LateShift) {
			add(RuleMutualExclusion, SeverityError, day.LateShift,
				fmt.Sprintf("员工 %s 在 %s 同时有晚班和居家办公", day.LateShift, day.Date))
		}
		if emp, ok := plan.Employee(day.LateShift); ok && !emp.CanWorkLateShift() {
			add(RuleSchema, SeverityError, emp.ID,
				fmt.Sprintf("员工 %s 仅居家办公，不能安排晚班", emp.ID))
		}
		if !day.LateShiftDay {
			add(RuleLateShiftDay, SeverityWarning, day.LateShift,
				fmt.Sprintf("%s 不是晚班日，但安排了 %s", day.Date, day.LateShift))
		}
	}

	if len(day.HomeOffice) > a.policy.MaxHoSlotsPerDay {
		add(RuleCapacity, SeverityError, "",
			fmt.Sprintf("%s 居家办公 %d 人，超过上限 %d", day.Date, len(day.HomeOffice), a.policy.MaxHoSlotsPerDay))
	}

	for i, id := range day.HomeOffice {
		emp, ok := plan.Employee(id)
		if !ok {
			continue
		}
		if !emp.CanWorkHomeOffice() {
			add(RuleSchema, SeverityError, id, fmt.Sprintf("员工 %s 仅上晚班，不能居家办公", id))
		}
		for _, other := range day.HomeOffice[i+1:] {
			o, ok := plan.Employee(other)
			if emp.HasBackup(other) || (ok && o.HasBackup(id)) {
				add(RuleBackup, SeverityError, id,
					fmt.Sprintf("员工 %s 与备岗 %s 在 %s 同时居家办公", id, other, day.Date))
			}
		}
	}
}

// checkWeeklyCredits 检查每周居家办公额度
func (a *Auditor) checkWeeklyCredits(r *Report, plan *model.Plan, week *model.CalendarWeek) {
	for _, id := range sortedEmployees(plan) {
		n := week.HomeOfficeDays(id)
		if n > a.policy.WeeklyHoCreditsPerEmployee {
			r.Violations = append(r.Violations, Violation{
				Rule:       RuleWeeklyCredits,
				Severity:   SeverityWarning,
				EmployeeID: id,
				Week:       week.Index,
				Message:    fmt.Sprintf("员工 %s 第 %d 周居家办公 %d 天，超过额度 %d", id, week.Index, n, a.policy.WeeklyHoCreditsPerEmployee),
			})
		}
	}
}

// checkMonthlyCap 检查每月居家办公上限
func (a *Auditor) checkMonthlyCap(r *Report, plan *model.Plan) {
	limit := a.policy.MaxHoDaysPerMonth
	if limit <= 0 {
		return
	}

	counts := make(map[string]map[string]int)
	for _, day := range orderedDays(plan) {
		if len(day.Date) < 7 {
			continue
		}
		month := day.Date[:7]
		for _, id := range day.HomeOffice {
			if counts[id] == nil {
				counts[id] = make(map[string]int)
			}
			counts[id][month]++
		}
	}

	for _, id := range sortedEmployees(plan) {
		months := make([]string, 0, len(counts[id]))
		for m := range counts[id] {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			if n := counts[id][m]; n > limit {
				r.Violations = append(r.Violations, Violation{
					Rule:       RuleMonthlyCap,
					Severity:   SeverityWarning,
					EmployeeID: id,
					Date:       m,
					Message:    fmt.Sprintf("员工 %s 在 %s 居家办公 %d 天，超过上限 %d", id, m, n, limit),
				})
			}
		}
	}
}

// checkSuccessive 检查连续居家办公天数（按计划中的工作日计）
func (a *Auditor) checkSuccessive(r *Report, plan *model.Plan) {
	limit := a.policy.MaxSuccessiveHoDays
	if limit <= 0 {
		return
	}
	days := orderedDays(plan)

	for _, id := range sortedEmployees(plan) {
		run := 0
		for _, day := range days {
			if !day.HasHomeOffice(id) {
				run = 0
				continue
			}
			run++
			if run == limit+1 {
				r.Violations = append(r.Violations, Violation{
					Rule:       RuleSuccessive,
					Severity:   SeverityWarning,
					EmployeeID: id,
					Date:       day.Date,
					Message:    fmt.Sprintf("员工 %s 截至 %s 连续居家办公超过 %d 天", id, day.Date, limit),
				})
			}
		}
	}
}

// checkBlockDistance 检查同一员工相邻两段居家办公之间的间隔工作日数
func (a *Auditor) checkBlockDistance(r *Report, plan *model.Plan) {
	limit := a.policy.MinDistanceBetweenHoBlocks
	if limit <= 0 {
		return
	}
	days := orderedDays(plan)

	for _, id := range sortedEmployees(plan) {
		seen, inBlock, gap := false, false, 0
		for _, day := range days {
			if !day.HasHomeOffice(id) {
				if seen {
					gap++
				}
				inBlock = false
				continue
			}
			if !inBlock && seen && gap < limit {
				r.Violations = append(r.Violations, Violation{
					Rule:       RuleBlockDistance,
					Severity:   SeverityWarning,
					EmployeeID: id,
					Date:       day.Date,
					Message:    fmt.Sprintf("员工 %s 在 %s 的居家办公距上一段仅隔 %d 天，少于 %d 天", id, day.Date, gap, limit),
				})
			}
			seen, inBlock, gap = true, true, 0
		}
	}
}

func orderedDays(plan *model.Plan) []*model.WorkDay {
	var days []*model.WorkDay
	for _, idx := range plan.WeekIndices() {
		days = append(days, plan.Week(idx).Days...)
	}
	return days
}

func sortedEmployees(plan *model.Plan) []string {
	ids := make([]string, 0, len(plan.Employees))
	for id := range plan.Employees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
