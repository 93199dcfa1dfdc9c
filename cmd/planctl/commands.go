package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/rota/pkg/boundary"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/logger"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/policy"
	"github.com/paiban/rota/pkg/stats"
	"github.com/paiban/rota/pkg/swap"
	"github.com/paiban/rota/pkg/validator"
)

// globalFlags 所有子命令共用的参数
type globalFlags struct {
	planFile   string
	policyFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "planctl",
		Short:         "晚班/居家办公计划命令行工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.Config{Level: g.logLevel, Format: "console", Output: "stderr"})
		},
	}
	root.Version = Version
	root.SetVersionTemplate("planctl v{{.Version}}\n")

	root.PersistentFlags().StringVar(&g.planFile, "plan", "", "计划 JSON 文件")
	root.PersistentFlags().StringVar(&g.policyFile, "policy", "", "策略 YAML 文件（为空时使用默认策略）")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "日志级别 debug/info/warn/error")

	root.AddCommand(
		newOperationCmd(g, swap.ModeSwap),
		newOperationCmd(g, swap.ModeReplace),
		newBoundaryCmd(),
		newAuditCmd(g),
		newStatsCmd(g),
		newRecommendCmd(g),
	)
	return root
}

// operationOutput 互换/接替输出
type operationOutput struct {
	Result *swap.Result      `json:"result"`
	Audit  *validator.Report `json:"audit"`
	Saved  string            `json:"saved,omitempty"`
}

func newOperationCmd(g *globalFlags, mode swap.Mode) *cobra.Command {
	var (
		req    = swap.Request{Mode: mode}
		week2  int
		out    string
		dryRun bool
	)

	short := "两名员工互换晚班周期"
	if mode == swap.ModeReplace {
		short = "由另一名员工接替晚班周期"
	}

	cmd := &cobra.Command{
		Use:   string(mode),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, p, err := g.load()
			if err != nil {
				return err
			}
			if mode == swap.ModeSwap {
				req.Week2 = &week2
			}

			preview, err := req.Evaluate(plan, p)
			if err != nil {
				return err
			}

			output := operationOutput{Result: preview.Result, Audit: preview.Audit}
			if !dryRun {
				target := out
				if target == "" {
					target = g.planFile
				}
				if err := writePlan(target, preview.Plan); err != nil {
					return err
				}
				output.Saved = target
			}
			return printJSON(cmd.OutOrStdout(), output)
		},
	}

	cmd.Flags().StringVar(&req.Employee1, "employee1", "", "被替换（或互换）的员工ID")
	cmd.Flags().IntVar(&req.Week1, "week1", 0, "employee1 晚班周期所在周")
	cmd.Flags().StringVar(&req.Employee2, "employee2", "", "接替（或互换）的员工ID")
	cmd.Flags().BoolVar(&req.Redistribute, "redistribute", false, "为被取消的居家办公重新分配")
	cmd.Flags().StringVar(&out, "out", "", "结果计划写入的文件（默认覆盖 --plan）")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只输出结果，不写文件")
	cmd.MarkFlagRequired("employee1")
	cmd.MarkFlagRequired("week1")
	cmd.MarkFlagRequired("employee2")
	if mode == swap.ModeSwap {
		cmd.Flags().IntVar(&week2, "week2", 0, "employee2 晚班周期所在周")
		cmd.MarkFlagRequired("week2")
	}
	return cmd
}

func newBoundaryCmd() *cobra.Command {
	var (
		start, end, prior string
		strict            bool
	)

	cmd := &cobra.Command{
		Use:   "boundary",
		Short: "计算新计划期的起止日期",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := model.ParseDate(start)
			if err != nil {
				return errors.InvalidInput("start", "日期格式应为 YYYY-MM-DD")
			}
			to, err := model.ParseDate(end)
			if err != nil {
				return errors.InvalidInput("end", "日期格式应为 YYYY-MM-DD")
			}

			src := boundary.FileSource{Path: prior}
			f, t, err := boundary.NewCalculator().CalculateFrom(cmd.Context(), src, from, to, strict)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"from": model.FormatDate(f),
				"to":   model.FormatDate(t),
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "期望开始日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "期望结束日期 YYYY-MM-DD")
	cmd.Flags().StringVar(&prior, "prior", "", "上期计划 JSON 文件（可选）")
	cmd.Flags().BoolVar(&strict, "strict", false, "严格按给定日期，不做对齐与顺延")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "检查计划是否满足规则",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, p, err := g.load()
			if err != nil {
				return err
			}
			report := validator.NewAuditor(p).Audit(plan)
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Valid() {
				return fmt.Errorf("计划存在 %d 项硬性违规", len(report.Hard()))
			}
			return nil
		},
	}
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "输出覆盖率与公平性统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, p, err := g.load()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats.Analyze(plan, p))
		},
	}
}

func newRecommendCmd(g *globalFlags) *cobra.Command {
	var (
		employee string
		week     int
		opts     = swap.DefaultRecommendOptions()
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "为晚班周期推荐接替人",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, p, err := g.load()
			if err != nil {
				return err
			}
			recs, err := swap.Recommend(plan, p, employee, week, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}

	cmd.Flags().StringVar(&employee, "employee", "", "需要被接替的员工ID")
	cmd.Flags().IntVar(&week, "week", 0, "晚班周期所在周")
	cmd.Flags().IntVar(&opts.MaxRecommendations, "max", opts.MaxRecommendations, "最多推荐人数，0 表示不限")
	cmd.Flags().StringSliceVar(&opts.ExcludeEmployees, "exclude", nil, "排除的员工ID")
	cmd.MarkFlagRequired("employee")
	cmd.MarkFlagRequired("week")
	return cmd
}

// load 读取计划与策略
func (g *globalFlags) load() (*model.Plan, *model.Policy, error) {
	if g.planFile == "" {
		return nil, nil, errors.InvalidInput("plan", "必须指定 --plan")
	}
	plan, err := readPlan(g.planFile)
	if err != nil {
		return nil, nil, err
	}

	p := policy.Default()
	if g.policyFile != "" {
		if p, err = policy.Load(g.policyFile); err != nil {
			return nil, nil, err
		}
	}
	return plan, p, nil
}

func readPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取计划文件 %s 失败: %w", path, err)
	}
	var plan model.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "计划文件解析失败")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func writePlan(path string, plan *model.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化计划失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入计划文件 %s 失败: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
