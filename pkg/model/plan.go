// Package model 定义晚班/居家办公计划的核心数据模型
package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/paiban/rota/pkg/errors"
)

// WorkDay 工作日
type WorkDay struct {
	Date         string       `json:"date"` // YYYY-MM-DD
	Weekday      time.Weekday `json:"weekday"`
	LateShiftDay bool         `json:"late_shift_day"`
	LateShift    string       `json:"late_shift,omitempty"`  // 晚班员工ID，空表示无人
	HomeOffice   []string     `json:"home_office,omitempty"` // 居家办公员工ID（有序集合）
}

// NewWorkDay 按策略创建工作日
func NewWorkDay(date time.Time, policy *Policy) *WorkDay {
	return &WorkDay{
		Date:         FormatDate(date),
		Weekday:      date.Weekday(),
		LateShiftDay: policy.IsLateShiftDay(date.Weekday()),
	}
}

// HasLateShift 检查员工当天是否值晚班
func (d *WorkDay) HasLateShift(id string) bool {
	return d.LateShift != "" && d.LateShift == id
}

// HasHomeOffice 检查员工当天是否居家办公
func (d *WorkDay) HasHomeOffice(id string) bool {
	for _, h := range d.HomeOffice {
		if h == id {
			return true
		}
	}
	return false
}

// AddHomeOffice 添加居家办公员工，已存在时返回 false
func (d *WorkDay) AddHomeOffice(id string) bool {
	if d.HasHomeOffice(id) {
		return false
	}
	d.HomeOffice = append(d.HomeOffice, id)
	return true
}

// RemoveHomeOffice 移除居家办公员工，不存在时返回 false
func (d *WorkDay) RemoveHomeOffice(id string) bool {
	for i, h := range d.HomeOffice {
		if h == id {
			d.HomeOffice = append(d.HomeOffice[:i], d.HomeOffice[i+1:]...)
			return true
		}
	}
	return false
}

// CalendarWeek 计划周（Index 为计划内顺序号，不是 ISO 周号）
type CalendarWeek struct {
	Index int `json:"index"`
	DateRange
	Days []*WorkDay `json:"days"`
}

// NewCalendarWeek 创建计划周，日期范围取首末工作日
func NewCalendarWeek(index int, days []*WorkDay) *CalendarWeek {
	w := &CalendarWeek{Index: index, Days: days}
	if len(days) > 0 {
		w.From = days[0].Date
		w.To = days[len(days)-1].Date
	}
	return w
}

// LateShiftIndex 返回员工本周第一个晚班日的下标，没有则返回 -1
func (w *CalendarWeek) LateShiftIndex(id string) int {
	for i, d := range w.Days {
		if d.HasLateShift(id) {
			return i
		}
	}
	return -1
}

// HasLateShift 检查员工本周是否有晚班
func (w *CalendarWeek) HasLateShift(id string) bool {
	return w.LateShiftIndex(id) >= 0
}

// HomeOfficeDays 统计员工本周居家办公天数
func (w *CalendarWeek) HomeOfficeDays(id string) int {
	n := 0
	for _, d := range w.Days {
		if d.HasHomeOffice(id) {
			n++
		}
	}
	return n
}

// LastDay 返回本周最后一个工作日
func (w *CalendarWeek) LastDay() *WorkDay {
	if len(w.Days) == 0 {
		return nil
	}
	return w.Days[len(w.Days)-1]
}

// Plan 计划：员工名册 + 周序号到计划周的映射
type Plan struct {
	BaseModel
	Year      int                   `json:"year"`
	From      string                `json:"from"`
	To        string                `json:"to"`
	Employees map[string]*Employee  `json:"employees"`
	Weeks     map[int]*CalendarWeek `json:"weeks"`
}

// NewPlan 创建空计划
func NewPlan(year int, from, to time.Time) *Plan {
	return &Plan{
		BaseModel: NewBaseModel(),
		Year:      year,
		From:      FormatDate(from),
		To:        FormatDate(to),
		Employees: make(map[string]*Employee),
		Weeks:     make(map[int]*CalendarWeek),
	}
}

// AddEmployee 登记员工
func (p *Plan) AddEmployee(e *Employee) {
	if p.Employees == nil {
		p.Employees = make(map[string]*Employee)
	}
	p.Employees[e.ID] = e
}

// AddWeek 登记计划周
func (p *Plan) AddWeek(w *CalendarWeek) {
	if p.Weeks == nil {
		p.Weeks = make(map[int]*CalendarWeek)
	}
	p.Weeks[w.Index] = w
}

// Employee 按ID查找员工
func (p *Plan) Employee(id string) (*Employee, bool) {
	e, ok := p.Employees[id]
	return e, ok
}

// Week 按序号查找计划周
func (p *Plan) Week(index int) *CalendarWeek {
	return p.Weeks[index]
}

// WeekIndices 返回升序排列的周序号
func (p *Plan) WeekIndices() []int {
	indices := make([]int, 0, len(p.Weeks))
	for i := range p.Weeks {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// IndexRange 返回最小和最大周序号
func (p *Plan) IndexRange() (min, max int, ok bool) {
	indices := p.WeekIndices()
	if len(indices) == 0 {
		return 0, 0, false
	}
	return indices[0], indices[len(indices)-1], true
}

// Clone 深拷贝计划，调用方可在失败时丢弃副本
func (p *Plan) Clone() *Plan {
	c := &Plan{
		BaseModel: p.BaseModel,
		Year:      p.Year,
		From:      p.From,
		To:        p.To,
		Employees: make(map[string]*Employee, len(p.Employees)),
		Weeks:     make(map[int]*CalendarWeek, len(p.Weeks)),
	}
	for id, e := range p.Employees {
		ec := *e
		ec.Backups = append([]string(nil), e.Backups...)
		c.Employees[id] = &ec
	}
	for idx, w := range p.Weeks {
		wc := &CalendarWeek{Index: w.Index, DateRange: w.DateRange, Days: make([]*WorkDay, len(w.Days))}
		for i, d := range w.Days {
			dc := *d
			dc.HomeOffice = append([]string(nil), d.HomeOffice...)
			wc.Days[i] = &dc
		}
		c.Weeks[idx] = wc
	}
	return c
}

// Validate 结构校验：日期、周序号、员工引用
func (p *Plan) Validate() error {
	ve := &errors.ValidationErrors{}

	if p.Year <= 0 {
		ve.Add("year", "年份必须为正数")
	}
	from, errFrom := ParseDate(p.From)
	if errFrom != nil {
		ve.Add("from", "日期格式错误")
	}
	to, errTo := ParseDate(p.To)
	if errTo != nil {
		ve.Add("to", "日期格式错误")
	}
	if errFrom == nil && errTo == nil && to.Before(from) {
		ve.Add("to", "结束日期早于开始日期")
	}

	for id, e := range p.Employees {
		if e == nil || e.ID != id {
			ve.Add("employees."+id, "员工ID与登记键不一致")
			continue
		}
		if !e.Schema.IsValid() {
			ve.Add("employees."+id+".schema", fmt.Sprintf("未知参与方式 '%s'", e.Schema))
		}
		for _, b := range e.Backups {
			if _, ok := p.Employees[b]; !ok {
				ve.Add("employees."+id+".backups", fmt.Sprintf("备岗员工 '%s' 不存在", b))
			}
		}
	}

	for _, idx := range p.WeekIndices() {
		w := p.Weeks[idx]
		field := fmt.Sprintf("weeks.%d", idx)
		if w == nil || w.Index != idx {
			ve.Add(field, "周序号与登记键不一致")
			continue
		}
		if idx < 1 {
			ve.Add(field, "周序号必须从1开始")
		}
		if n := len(w.Days); n > 0 && w.Days[0] != nil && w.Days[n-1] != nil {
			if w.From != w.Days[0].Date {
				ve.Add(field+".from", "周开始日期与首个工作日不符")
			}
			if w.To != w.Days[n-1].Date {
				ve.Add(field+".to", "周结束日期与最后一个工作日不符")
			}
		}
		prev := ""
		for i, d := range w.Days {
			dayField := fmt.Sprintf("%s.days.%d", field, i)
			if d == nil {
				ve.Add(dayField, "工作日为空")
				continue
			}
			t, err := ParseDate(d.Date)
			if err != nil {
				ve.Add(dayField, "日期格式错误")
				continue
			}
			if t.Weekday() != d.Weekday {
				ve.Add(dayField, "星期与日期不符")
			}
			if prev != "" && d.Date <= prev {
				ve.Add(dayField, "工作日未按时间顺序排列")
			}
			prev = d.Date
			if d.LateShift != "" {
				if _, ok := p.Employees[d.LateShift]; !ok {
					ve.Add(dayField+".late_shift", fmt.Sprintf("员工 '%s' 不存在", d.LateShift))
				}
			}
			seen := make(map[string]bool, len(d.HomeOffice))
			for _, h := range d.HomeOffice {
				if _, ok := p.Employees[h]; !ok {
					ve.Add(dayField+".home_office", fmt.Sprintf("员工 '%s' 不存在", h))
				}
				if seen[h] {
					ve.Add(dayField+".home_office", fmt.Sprintf("员工 '%s' 重复", h))
				}
				seen[h] = true
			}
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
