// Package policy 加载晚班/居家办公策略描述文件
package policy

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/model"
)

// Descriptor 策略描述文件结构
type Descriptor struct {
	LateShift  LateShiftSection  `yaml:"late_shift"`
	HomeOffice HomeOfficeSection `yaml:"home_office"`
}

// LateShiftSection 晚班规则
type LateShiftSection struct {
	CycleLength      int      `yaml:"cycle_length"`
	ExcludedWeekdays []string `yaml:"excluded_weekdays,omitempty"` // monday..sunday
}

// HomeOfficeSection 居家办公规则
type HomeOfficeSection struct {
	MaxSlotsPerDay           int `yaml:"max_slots_per_day"`
	WeeklyCredits            int `yaml:"weekly_credits"`
	MaxDaysPerMonth          int `yaml:"max_days_per_month"`
	MaxSuccessiveDays        int `yaml:"max_successive_days"`
	MinDistanceBetweenBlocks int `yaml:"min_distance_between_blocks"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Default 返回默认策略
func Default() *model.Policy {
	return &model.Policy{
		LateShiftCycleLength:       5,
		MaxHoSlotsPerDay:           3,
		WeeklyHoCreditsPerEmployee: 2,
		MaxHoDaysPerMonth:          8,
		MaxSuccessiveHoDays:        2,
		MinDistanceBetweenHoBlocks: 1,
	}
}

// Parse 解析 YAML 策略描述
func Parse(data []byte) (*model.Policy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.InvalidInput("policy", "描述内容为空")
	}
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "策略描述解析失败")
	}
	return desc.ToPolicy()
}

// Load 从文件加载策略
func Load(path string) (*model.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取策略文件 %s 失败: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("策略文件 %s: %w", path, err)
	}
	return p, nil
}

// ToPolicy 将描述转换为策略并校验
func (d *Descriptor) ToPolicy() (*model.Policy, error) {
	p := &model.Policy{
		LateShiftCycleLength:       d.LateShift.CycleLength,
		MaxHoSlotsPerDay:           d.HomeOffice.MaxSlotsPerDay,
		WeeklyHoCreditsPerEmployee: d.HomeOffice.WeeklyCredits,
		MaxHoDaysPerMonth:          d.HomeOffice.MaxDaysPerMonth,
		MaxSuccessiveHoDays:        d.HomeOffice.MaxSuccessiveDays,
		MinDistanceBetweenHoBlocks: d.HomeOffice.MinDistanceBetweenBlocks,
	}

	ve := &errors.ValidationErrors{}
	for _, name := range d.LateShift.ExcludedWeekdays {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			ve.Add("late_shift.excluded_weekdays", fmt.Sprintf("未知星期 '%s'", name))
			continue
		}
		p.ExcludedLateShiftWeekdays = append(p.ExcludedLateShiftWeekdays, wd)
	}
	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate 校验策略取值
func Validate(p *model.Policy) error {
	ve := &errors.ValidationErrors{}

	if p.LateShiftCycleLength < 1 {
		ve.Add("late_shift.cycle_length", "必须大于0")
	}
	if p.MaxHoSlotsPerDay < 0 {
		ve.Add("home_office.max_slots_per_day", "不能为负数")
	}
	if p.WeeklyHoCreditsPerEmployee < 0 {
		ve.Add("home_office.weekly_credits", "不能为负数")
	}
	if p.MaxHoDaysPerMonth < 0 {
		ve.Add("home_office.max_days_per_month", "不能为负数")
	}
	if p.MaxSuccessiveHoDays < 0 {
		ve.Add("home_office.max_successive_days", "不能为负数")
	}
	if p.MinDistanceBetweenHoBlocks < 0 {
		ve.Add("home_office.min_distance_between_blocks", "不能为负数")
	}
	if len(p.ExcludedLateShiftWeekdays) >= 7 {
		ve.Add("late_shift.excluded_weekdays", "至少保留一个晚班日")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
