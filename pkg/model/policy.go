// Package model 定义晚班/居家办公计划的核心数据模型
package model

import "time"

// Policy 容量与公平性规则，每次运行期间只读
type Policy struct {
	LateShiftCycleLength       int            `json:"late_shift_cycle_length"`        // 晚班周期长度（晚班日数）
	MaxHoSlotsPerDay           int            `json:"max_ho_slots_per_day"`           // 每日居家办公名额
	WeeklyHoCreditsPerEmployee int            `json:"weekly_ho_credits_per_employee"` // 每人每周居家办公额度
	MaxHoDaysPerMonth          int            `json:"max_ho_days_per_month"`          // 每人每月居家办公上限
	MaxSuccessiveHoDays        int            `json:"max_successive_ho_days"`         // 最多连续居家办公天数
	MinDistanceBetweenHoBlocks int            `json:"min_distance_between_ho_blocks"` // 居家办公块之间最少间隔天数
	ExcludedLateShiftWeekdays  []time.Weekday `json:"excluded_late_shift_weekdays,omitempty"`
}

// IsLateShiftDay 检查某个工作日是否安排晚班
func (p *Policy) IsLateShiftDay(weekday time.Weekday) bool {
	for _, wd := range p.ExcludedLateShiftWeekdays {
		if wd == weekday {
			return false
		}
	}
	return true
}
