// Package fixture 构造测试用的计划
package fixture

import (
	"sort"
	"time"

	"github.com/paiban/rota/pkg/model"
)

// Build 按周一分周，构造 from 到 to 之间（仅周一至周五）的空计划
func Build(policy *model.Policy, from, to time.Time, firstIndex int, employees ...*model.Employee) *model.Plan {
	p := model.NewPlan(from.Year(), from, to)
	for _, e := range employees {
		p.AddEmployee(e)
	}

	index := firstIndex
	var days []*model.WorkDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if d.Weekday() == time.Monday && len(days) > 0 {
			p.AddWeek(model.NewCalendarWeek(index, days))
			index++
			days = nil
		}
		days = append(days, model.NewWorkDay(d, policy))
	}
	if len(days) > 0 {
		p.AddWeek(model.NewCalendarWeek(index, days))
	}
	return p
}

// Rotate 依次为 ids 分配长度为 cycle 的晚班周期，只占用晚班日
func Rotate(p *model.Plan, cycle int, ids ...string) {
	if len(ids) == 0 || cycle <= 0 {
		return
	}
	n, k := 0, 0
	for _, idx := range p.WeekIndices() {
		for _, day := range p.Week(idx).Days {
			if !day.LateShiftDay {
				continue
			}
			day.LateShift = ids[k]
			n++
			if n == cycle {
				n = 0
				k = (k + 1) % len(ids)
			}
		}
	}
}

// Spread 在不违反规则的前提下为每名员工分配每周额度内的居家办公
func Spread(p *model.Plan, policy *model.Policy) {
	var ids []string
	for id, e := range p.Employees {
		if e.CanWorkHomeOffice() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, idx := range p.WeekIndices() {
		week := p.Week(idx)
		for _, id := range ids {
			emp := p.Employees[id]
			for _, day := range week.Days {
				if week.HomeOfficeDays(id) >= policy.WeeklyHoCreditsPerEmployee {
					break
				}
				if day.HasLateShift(id) || len(day.HomeOffice) >= policy.MaxHoSlotsPerDay {
					continue
				}
				if conflicts(p, emp, day) {
					continue
				}
				day.AddHomeOffice(id)
			}
		}
	}
}

func conflicts(p *model.Plan, emp *model.Employee, day *model.WorkDay) bool {
	for _, other := range day.HomeOffice {
		if emp.HasBackup(other) {
			return true
		}
		if o, ok := p.Employee(other); ok && o.HasBackup(emp.ID) {
			return true
		}
	}
	return false
}

// RegressionPolicy 周五不排晚班、周期4天的策略
func RegressionPolicy() *model.Policy {
	return &model.Policy{
		LateShiftCycleLength:       4,
		MaxHoSlotsPerDay:           2,
		WeeklyHoCreditsPerEmployee: 2,
		MaxHoDaysPerMonth:          8,
		ExcludedLateShiftWeekdays:  []time.Weekday{time.Friday},
	}
}

// Regression 第14至17周的计划，第14周从周三开始
//
//	周14 (04-03..04-05): 晚班 E1 E1 -   居家 [E5] [E5] [E2 E3]
//	周15 (04-08..04-12): 晚班 E1 E1 E2 E2 -   居家 E3@1 E1@4
//	周16 (04-15..04-19): 晚班 E2 E2 E4 E4 -   居家 E1@2
//	周17 (04-22..04-26): 晚班 E4 E4 E3 E3 -   居家 E1@0 E4@4
//
// E1 以 E5 为备岗。
func Regression() (*model.Plan, *model.Policy) {
	policy := RegressionPolicy()
	p := Build(policy, model.Date(2024, time.April, 3), model.Date(2024, time.April, 26), 14,
		&model.Employee{ID: "E1", Name: "Anna", Schema: model.SchemaBoth, Backups: []string{"E5"}},
		&model.Employee{ID: "E2", Name: "Ben", Schema: model.SchemaBoth},
		&model.Employee{ID: "E3", Name: "Clara", Schema: model.SchemaBoth},
		&model.Employee{ID: "E4", Name: "David", Schema: model.SchemaBoth},
		&model.Employee{ID: "E5", Name: "Eva", Schema: model.SchemaHomeOfficeOnly},
	)

	late := map[int][]string{
		14: {"E1", "E1", ""},
		15: {"E1", "E1", "E2", "E2", ""},
		16: {"E2", "E2", "E4", "E4", ""},
		17: {"E4", "E4", "E3", "E3", ""},
	}
	for idx, ids := range late {
		for i, id := range ids {
			p.Week(idx).Days[i].LateShift = id
		}
	}

	ho := []struct {
		week, day int
		id        string
	}{
		{14, 0, "E5"}, {14, 1, "E5"}, {14, 2, "E2"}, {14, 2, "E3"},
		{15, 1, "E3"}, {15, 4, "E1"},
		{16, 2, "E1"},
		{17, 0, "E1"}, {17, 4, "E4"},
	}
	for _, h := range ho {
		p.Week(h.week).Days[h.day].AddHomeOffice(h.id)
	}
	return p, policy
}
