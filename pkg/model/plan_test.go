package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/pkg/errors"
)

func newTestPlan() *Plan {
	policy := &Policy{ExcludedLateShiftWeekdays: []time.Weekday{time.Friday}}
	p := NewPlan(2024, Date(2024, time.April, 1), Date(2024, time.April, 12))
	p.AddEmployee(&Employee{ID: "A", Name: "Anna", Schema: SchemaBoth, Backups: []string{"B"}})
	p.AddEmployee(&Employee{ID: "B", Name: "Bert", Schema: SchemaHomeOfficeOnly})

	for w := 0; w < 2; w++ {
		var days []*WorkDay
		for d := 0; d < 5; d++ {
			days = append(days, NewWorkDay(Date(2024, time.April, 1+w*7+d), policy))
		}
		p.AddWeek(NewCalendarWeek(w+1, days))
	}
	return p
}

func TestWorkDay_HomeOfficeSet(t *testing.T) {
	d := &WorkDay{}

	assert.True(t, d.AddHomeOffice("A"))
	assert.False(t, d.AddHomeOffice("A"), "重复添加应被忽略")
	assert.True(t, d.AddHomeOffice("B"))
	assert.Equal(t, []string{"A", "B"}, d.HomeOffice)

	assert.True(t, d.RemoveHomeOffice("A"))
	assert.False(t, d.RemoveHomeOffice("A"))
	assert.Equal(t, []string{"B"}, d.HomeOffice)
}

func TestWorkDay_HasLateShift(t *testing.T) {
	d := &WorkDay{}
	assert.False(t, d.HasLateShift(""), "空晚班不匹配空ID")

	d.LateShift = "A"
	assert.True(t, d.HasLateShift("A"))
	assert.False(t, d.HasLateShift("B"))
}

func TestNewWorkDay_ExcludedWeekday(t *testing.T) {
	policy := &Policy{ExcludedLateShiftWeekdays: []time.Weekday{time.Friday}}

	thursday := NewWorkDay(Date(2024, time.April, 4), policy)
	friday := NewWorkDay(Date(2024, time.April, 5), policy)

	assert.Equal(t, time.Thursday, thursday.Weekday)
	assert.True(t, thursday.LateShiftDay)
	assert.Equal(t, time.Friday, friday.Weekday)
	assert.False(t, friday.LateShiftDay)
}

func TestCalendarWeek_Lookups(t *testing.T) {
	p := newTestPlan()
	w := p.Week(1)
	require.NotNil(t, w)

	assert.Equal(t, "2024-04-01", w.From)
	assert.Equal(t, "2024-04-05", w.To)
	assert.Equal(t, -1, w.LateShiftIndex("A"))

	w.Days[2].LateShift = "A"
	w.Days[3].LateShift = "A"
	w.Days[0].AddHomeOffice("B")
	w.Days[4].AddHomeOffice("B")

	assert.Equal(t, 2, w.LateShiftIndex("A"))
	assert.True(t, w.HasLateShift("A"))
	assert.Equal(t, 2, w.HomeOfficeDays("B"))
	assert.Equal(t, "2024-04-05", w.LastDay().Date)
}

func TestPlan_WeekIndicesSorted(t *testing.T) {
	p := NewPlan(2024, Date(2024, time.January, 1), Date(2024, time.December, 31))
	for _, idx := range []int{7, 3, 5, 4} {
		p.AddWeek(&CalendarWeek{Index: idx})
	}

	assert.Equal(t, []int{3, 4, 5, 7}, p.WeekIndices())

	min, max, ok := p.IndexRange()
	require.True(t, ok)
	assert.Equal(t, 3, min)
	assert.Equal(t, 7, max)

	_, _, ok = NewPlan(2024, time.Now(), time.Now()).IndexRange()
	assert.False(t, ok)
}

func TestPlan_CloneIsDeep(t *testing.T) {
	p := newTestPlan()
	p.Week(1).Days[0].LateShift = "A"
	p.Week(1).Days[1].AddHomeOffice("B")

	c := p.Clone()
	c.Week(1).Days[0].LateShift = "B"
	c.Week(1).Days[1].RemoveHomeOffice("B")
	c.Employees["A"].Backups[0] = "X"

	assert.Equal(t, "A", p.Week(1).Days[0].LateShift)
	assert.True(t, p.Week(1).Days[1].HasHomeOffice("B"))
	assert.Equal(t, "B", p.Employees["A"].Backups[0])
	assert.Equal(t, p.ID, c.ID)
}

func TestPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Plan)
		wantErr bool
	}{
		{"合法计划", func(p *Plan) {}, false},
		{"年份无效", func(p *Plan) { p.Year = 0 }, true},
		{"日期格式错误", func(p *Plan) { p.From = "01.04.2024" }, true},
		{"结束早于开始", func(p *Plan) { p.To = "2024-03-01" }, true},
		{"未知参与方式", func(p *Plan) { p.Employees["A"].Schema = "sometimes" }, true},
		{"备岗不存在", func(p *Plan) { p.Employees["A"].Backups = []string{"Z"} }, true},
		{"周序号不一致", func(p *Plan) { p.Weeks[1].Index = 9 }, true},
		{"星期与日期不符", func(p *Plan) { p.Weeks[1].Days[0].Weekday = time.Sunday }, true},
		{"日期乱序", func(p *Plan) {
			d := p.Weeks[1].Days
			d[0], d[1] = d[1], d[0]
			d[0].Weekday, d[1].Weekday = time.Tuesday, time.Monday
		}, true},
		{"工作日为空", func(p *Plan) { p.Weeks[1].Days = append(p.Weeks[1].Days, nil) }, true},
		{"周日期范围缺失", func(p *Plan) { p.Weeks[2].DateRange = DateRange{} }, true},
		{"周结束日期不符", func(p *Plan) { p.Weeks[1].To = p.Weeks[2].To }, true},
		{"晚班员工不存在", func(p *Plan) { p.Weeks[2].Days[0].LateShift = "Z" }, true},
		{"居家办公重复", func(p *Plan) { p.Weeks[2].Days[0].HomeOffice = []string{"A", "A"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlan()
			tt.mutate(p)
			err := p.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeValidationFail))
		})
	}
}

func TestEmployee_Participation(t *testing.T) {
	tests := []struct {
		schema     ParticipationSchema
		lateShift  bool
		homeOffice bool
	}{
		{SchemaBoth, true, true},
		{SchemaLateShiftOnly, true, false},
		{SchemaHomeOfficeOnly, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.schema), func(t *testing.T) {
			e := &Employee{Schema: tt.schema}
			assert.Equal(t, tt.lateShift, e.CanWorkLateShift())
			assert.Equal(t, tt.homeOffice, e.CanWorkHomeOffice())
		})
	}

	e := &Employee{Backups: []string{"B", "C"}}
	assert.True(t, e.HasBackup("C"))
	assert.False(t, e.HasBackup("D"))
}
