// Package stats 提供计划统计分析功能
package stats

import (
	"github.com/shopspring/decimal"

	"github.com/paiban/rota/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 晚班覆盖
	LateShiftDays     int             `json:"late_shift_days"`     // 晚班日总数
	AssignedLateShift int             `json:"assigned_late_shift"` // 已安排晚班的天数
	LateShiftCoverage decimal.Decimal `json:"late_shift_coverage"` // 晚班覆盖率 (%)

	// 居家办公名额
	HomeOfficeSlots     int             `json:"home_office_slots"`      // 名额总数
	UsedHomeOfficeSlots int             `json:"used_home_office_slots"` // 已用名额
	HomeOfficeUsage     decimal.Decimal `json:"home_office_usage"`      // 名额使用率 (%)

	WeeklyCoverage []WeekCoverage `json:"weekly_coverage"`
	Uncovered      []UncoveredDay `json:"uncovered"` // 无人值晚班的晚班日
}

// WeekCoverage 每周覆盖情况
type WeekCoverage struct {
	Week              int             `json:"week"`
	From              string          `json:"from"`
	To                string          `json:"to"`
	LateShiftDays     int             `json:"late_shift_days"`
	AssignedLateShift int             `json:"assigned_late_shift"`
	HomeOfficeDays    int             `json:"home_office_days"`
	HomeOfficeUsage   decimal.Decimal `json:"home_office_usage"`
}

// UncoveredDay 未覆盖的晚班日
type UncoveredDay struct {
	Week int    `json:"week"`
	Date string `json:"date"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	policy *model.Policy
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer(policy *model.Policy) *CoverageAnalyzer {
	return &CoverageAnalyzer{policy: policy}
}

// Analyze 分析覆盖率
func (c *CoverageAnalyzer) Analyze(plan *model.Plan) *CoverageMetrics {
	m := &CoverageMetrics{
		LateShiftCoverage: decimal.NewFromInt(100),
		HomeOfficeUsage:   decimal.Zero,
	}
	if plan == nil {
		return m
	}

	for _, idx := range plan.WeekIndices() {
		week := plan.Week(idx)
		wc := WeekCoverage{Week: idx, From: week.From, To: week.To}

		for _, day := range week.Days {
			if day.LateShiftDay {
				wc.LateShiftDays++
				if day.LateShift != "" {
					wc.AssignedLateShift++
				} else {
					m.Uncovered = append(m.Uncovered, UncoveredDay{Week: idx, Date: day.Date})
				}
			}
			wc.HomeOfficeDays += len(day.HomeOffice)
		}
		slots := len(week.Days) * c.policy.MaxHoSlotsPerDay
		wc.HomeOfficeUsage = Percent(wc.HomeOfficeDays, slots)

		m.LateShiftDays += wc.LateShiftDays
		m.AssignedLateShift += wc.AssignedLateShift
		m.HomeOfficeSlots += slots
		m.UsedHomeOfficeSlots += wc.HomeOfficeDays
		m.WeeklyCoverage = append(m.WeeklyCoverage, wc)
	}

	if m.LateShiftDays > 0 {
		m.LateShiftCoverage = Percent(m.AssignedLateShift, m.LateShiftDays)
	}
	m.HomeOfficeUsage = Percent(m.UsedHomeOfficeSlots, m.HomeOfficeSlots)
	return m
}

// Percent 返回 part/total 的百分比，保留两位小数；total 为 0 时返回 0
func Percent(part, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
