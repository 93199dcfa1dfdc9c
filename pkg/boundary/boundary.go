// Package boundary 计算新计划期的起止日期，并与上期计划的晚班周期衔接
package boundary

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
)

// PriorPlanSource 上期计划来源（文件或仓储）
type PriorPlanSource interface {
	// PriorPlan 返回开始于 before 之前的最近一期计划，没有则返回 nil
	PriorPlan(ctx context.Context, before time.Time) (*model.Plan, error)
}

// Calculator 计划边界计算器
type Calculator struct {
	log *zerolog.Logger
}

// NewCalculator 创建边界计算器
func NewCalculator() *Calculator {
	l := logger.Get().With().Str("component", "boundary").Logger()
	return &Calculator{log: &l}
}

// MonthStart 返回某月第一天
func MonthStart(year int, month time.Month) time.Time {
	return model.Date(year, month, 1)
}

// MonthEnd 返回某月最后一天
func MonthEnd(year int, month time.Month) time.Time {
	return model.Date(year, month+1, 0)
}

// SnapStart 将开始日期对齐到周一：周一不变，周二至周五回退，周六/周日前进
func SnapStart(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 0, -int(t.Weekday()-time.Monday))
	}
}

// SnapEnd 对齐结束日期：周六/周日回退到周五，周一回退四天，周二至周四前进到周五
func SnapEnd(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	case time.Monday:
		return t.AddDate(0, 0, -4)
	default:
		return t.AddDate(0, 0, int(time.Friday-t.Weekday()))
	}
}

// Calculate 计算计划期起止日期
//
// strict 为 true 时原样返回。否则开始日期对齐到周一、结束日期对齐到周五；
// 若上期计划中有与开始周重叠的周，且该周结束于周三至周五，则新计划从下一个周一开始，
// 使进行中的晚班周期在上期内完整结束。
func (c *Calculator) Calculate(start, end time.Time, prior *model.Plan, strict bool) (time.Time, time.Time, error) {
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.InvalidTimeRange("结束日期早于开始日期")
	}
	if start.Year() != end.Year() {
		return time.Time{}, time.Time{}, errors.InvalidTimeRange("开始和结束日期必须在同一年")
	}
	if strict {
		return start, end, nil
	}

	from := SnapStart(start)
	to := SnapEnd(end)

	if prior != nil {
		if err := prior.Validate(); err != nil {
			return time.Time{}, time.Time{}, errors.InvalidPriorPlan(err)
		}
		adjusted, err := c.continueAfter(prior, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = adjusted
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.InvalidTimeRange("对齐后的计划期为空")
	}

	c.log.Debug().
		Str("requested_from", model.FormatDate(start)).
		Str("requested_to", model.FormatDate(end)).
		Str("from", model.FormatDate(from)).
		Str("to", model.FormatDate(to)).
		Bool("has_prior", prior != nil).
		Msg("计划边界已计算")

	return from, to, nil
}

// CalculateFrom 从上期计划来源读取上期计划后计算边界
func (c *Calculator) CalculateFrom(ctx context.Context, src PriorPlanSource, start, end time.Time, strict bool) (time.Time, time.Time, error) {
	var prior *model.Plan
	if src != nil && !strict {
		p, err := src.PriorPlan(ctx, start)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		prior = p
	}
	return c.Calculate(start, end, prior, strict)
}

// continueAfter 根据上期计划中与 monday 所在周重叠的周调整开始日期
func (c *Calculator) continueAfter(prior *model.Plan, monday time.Time) (time.Time, error) {
	candidate := model.DateRange{
		From: model.FormatDate(monday),
		To:   model.FormatDate(monday.AddDate(0, 0, 6)),
	}

	for _, idx := range prior.WeekIndices() {
		week := prior.Week(idx)
		last := week.LastDay()
		if last == nil || !week.DateRange.Overlaps(candidate) {
			continue
		}

		lastDay, err := model.ParseDate(last.Date)
		if err != nil {
			return time.Time{}, errors.InvalidPriorPlan(err)
		}

		var shift int
		switch lastDay.Weekday() {
		case time.Monday, time.Tuesday:
			return monday, nil
		case time.Wednesday:
			shift = 5
		case time.Thursday:
			shift = 4
		case time.Friday:
			shift = 3
		case time.Saturday:
			shift = 2
		case time.Sunday:
			shift = 1
		}

		c.log.Info().
			Int("prior_week", idx).
			Str("prior_last_day", last.Date).
			Int("shift_days", shift).
			Msg("新计划顺延至上期最后一周之后")
		return lastDay.AddDate(0, 0, shift), nil
	}

	return monday, nil
}

// LoadPriorPlan 从 JSON 文件读取上期计划；文件不存在视为没有上期计划
func LoadPriorPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.InvalidPriorPlan(err)
	}

	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, errors.InvalidPriorPlan(err)
	}
	if err := plan.Validate(); err != nil {
		return nil, errors.InvalidPriorPlan(err)
	}
	return &plan, nil
}

// FileSource 基于文件的上期计划来源
type FileSource struct {
	Path string
}

// PriorPlan 实现 PriorPlanSource
func (s FileSource) PriorPlan(_ context.Context, _ time.Time) (*model.Plan, error) {
	if s.Path == "" {
		return nil, nil
	}
	return LoadPriorPlan(s.Path)
}
