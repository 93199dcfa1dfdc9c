package stats

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/paiban/rota/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	LateShiftGini    float64 `json:"late_shift_gini"`     // 晚班天数基尼系数 (0=完全公平, 1=完全不公平)
	LateShiftStdDev  float64 `json:"late_shift_std_dev"`  // 晚班天数标准差
	AvgLateShiftDays float64 `json:"avg_late_shift_days"` // 人均晚班天数
	HomeOfficeGini   float64 `json:"home_office_gini"`    // 居家办公天数基尼系数

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID     string                    `json:"employee_id"`
	EmployeeName   string                    `json:"employee_name"`
	Schema         model.ParticipationSchema `json:"schema"`
	LateShiftDays  int                       `json:"late_shift_days"`
	HomeOfficeDays int                       `json:"home_office_days"`

	// 居家办公额度使用率：居家天数 / (每周额度 × 周数)
	HomeOfficeCredits     int             `json:"home_office_credits"`
	HomeOfficeUtilisation decimal.Decimal `json:"home_office_utilisation"`

	Deviation decimal.Decimal `json:"deviation"` // 晚班天数与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	policy *model.Policy
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer(policy *model.Policy) *FairnessAnalyzer {
	return &FairnessAnalyzer{policy: policy}
}

// Analyze 分析计划公平性
func (f *FairnessAnalyzer) Analyze(plan *model.Plan) *FairnessMetrics {
	if plan == nil || len(plan.Employees) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	stats := f.calculateEmployeeStats(plan)

	var late, ho []float64
	for _, s := range stats {
		if s.Schema != model.SchemaHomeOfficeOnly {
			late = append(late, float64(s.LateShiftDays))
		}
		if s.Schema != model.SchemaLateShiftOnly {
			ho = append(ho, float64(s.HomeOfficeDays))
		}
	}

	avg := mean(late)
	stdDev := math.Sqrt(variance(late, avg))

	for i := range stats {
		if stats[i].Schema == model.SchemaHomeOfficeOnly || avg == 0 {
			continue
		}
		stats[i].Deviation = decimal.NewFromFloat((float64(stats[i].LateShiftDays) - avg) / avg * 100).Round(2)
	}

	lateGini := gini(late)
	hoGini := gini(ho)

	return &FairnessMetrics{
		LateShiftGini:        lateGini,
		LateShiftStdDev:      stdDev,
		AvgLateShiftDays:     avg,
		HomeOfficeGini:       hoGini,
		EmployeeStats:        stats,
		OverallFairnessScore: overallScore(lateGini, hoGini, stdDev, avg),
	}
}

// calculateEmployeeStats 统计每名员工的晚班与居家办公天数
func (f *FairnessAnalyzer) calculateEmployeeStats(plan *model.Plan) []EmployeeStat {
	statMap := make(map[string]*EmployeeStat, len(plan.Employees))
	for id, e := range plan.Employees {
		statMap[id] = &EmployeeStat{
			EmployeeID:            id,
			EmployeeName:          e.Name,
			Schema:                e.Schema,
			HomeOfficeUtilisation: decimal.Zero,
			Deviation:             decimal.Zero,
		}
	}

	for _, w := range plan.Weeks {
		for _, d := range w.Days {
			if s, ok := statMap[d.LateShift]; ok {
				s.LateShiftDays++
			}
			for _, id := range d.HomeOffice {
				if s, ok := statMap[id]; ok {
					s.HomeOfficeDays++
				}
			}
		}
	}

	credits := f.policy.WeeklyHoCreditsPerEmployee * len(plan.Weeks)
	result := make([]EmployeeStat, 0, len(statMap))
	for _, s := range statMap {
		if s.Schema != model.SchemaLateShiftOnly {
			s.HomeOfficeCredits = credits
			if credits > 0 {
				s.HomeOfficeUtilisation = decimal.NewFromInt(int64(s.HomeOfficeDays)).
					Div(decimal.NewFromInt(int64(credits))).
					Round(4)
			}
		}
		result = append(result, *s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].LateShiftDays != result[j].LateShiftDays {
			return result[i].LateShiftDays > result[j].LateShiftDays
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 综合公平性评分
func overallScore(lateGini, hoGini, stdDev, avg float64) float64 {
	const (
		lateWeight   = 0.5
		hoWeight     = 0.3
		stdDevWeight = 0.2
	)

	cvScore := 100.0
	if avg > 0 {
		cvScore = math.Max(0, 100-stdDev/avg*200)
	}

	score := lateWeight*(1-lateGini)*100 +
		hoWeight*(1-hoGini)*100 +
		stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// Report 计划统计报告
type Report struct {
	Coverage *CoverageMetrics `json:"coverage"`
	Fairness *FairnessMetrics `json:"fairness"`
}

// Analyze 生成覆盖率与公平性报告
func Analyze(plan *model.Plan, policy *model.Policy) *Report {
	return &Report{
		Coverage: NewCoverageAnalyzer(policy).Analyze(plan),
		Fairness: NewFairnessAnalyzer(policy).Analyze(plan),
	}
}
