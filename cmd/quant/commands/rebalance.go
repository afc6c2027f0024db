package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/internal/selection"
)

// rebalanceCmd represents the rebalance command group
var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "리밸런싱 엔진 수동 실행",
	Long: `리밸런싱 엔진을 수동으로 실행하거나 일정을 조회합니다.

Subcommands:
  tick    - 틱 1회 실행
  dates   - 전략의 리밸런싱 날짜 목록
  status  - 현재 목표 포트폴리오 및 남은 날짜
  history - 저장된 목표 포트폴리오 이력 (DB 필요)

Example:
  go run ./cmd/quant rebalance tick
  go run ./cmd/quant rebalance tick --at 2006-02-05 --data testdata/snapshot.yaml --state /tmp/filter.json
  go run ./cmd/quant rebalance dates`,
}

var (
	tickAt       string
	historyLimit int

	rebalanceTickCmd = &cobra.Command{
		Use:   "tick",
		Short: "틱 1회 실행",
		RunE:  runTick,
	}

	rebalanceDatesCmd = &cobra.Command{
		Use:   "dates",
		Short: "리밸런싱 날짜 목록",
		RunE:  listDates,
	}

	rebalanceStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "엔진 상태 조회",
		RunE:  showEngineStatus,
	}

	rebalanceHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "목표 포트폴리오 이력 조회",
		RunE:  showTargetHistory,
	}
)

func init() {
	rootCmd.AddCommand(rebalanceCmd)
	rebalanceCmd.AddCommand(rebalanceTickCmd)
	rebalanceCmd.AddCommand(rebalanceDatesCmd)
	rebalanceCmd.AddCommand(rebalanceStatusCmd)
	rebalanceCmd.AddCommand(rebalanceHistoryCmd)

	rebalanceCmd.PersistentFlags().StringVar(&stateFile, "state", "", "DB 없이 필터 상태를 저장할 JSON 파일")
	rebalanceTickCmd.Flags().StringVar(&tickAt, "at", "", "틱 시각 (RFC3339 또는 YYYY-MM-DD, 기본: 현재)")
	rebalanceHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10, "조회할 이력 수")
}

func parseTickTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q (expected RFC3339 or YYYY-MM-DD)", value)
	}
	return t, nil
}

func runTick(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	loc, err := time.LoadLocation(a.strategy.Market.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	now, err := parseTickTime(tickAt, loc)
	if err != nil {
		return err
	}

	result, err := a.engine.RunTick(ctx, now)
	if errors.Is(err, brain.ErrTickInProgress) {
		PrintWarning("Another process is running a tick, try again later")
		return err
	}
	if result != nil {
		PrintTickResult(result)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	if !result.Tick.Rebalancing {
		if snap := a.engine.Snapshot(); snap.NextRebalance != nil {
			fmt.Printf("No rebalance due, next date: %s\n", snap.NextRebalance.Format("2006-01-02"))
		}
	}
	return nil
}

func listDates(cmd *cobra.Command, args []string) error {
	_, _, strategy, err := loadBase()
	if err != nil {
		return err
	}

	dates, err := strategy.RebalanceDates()
	if err != nil {
		return fmt.Errorf("expand rebalance dates: %w", err)
	}

	PrintHeader(fmt.Sprintf("Rebalance Dates (%s)", strategy.Meta.StrategyID))
	PrintKeyValue("Range", fmt.Sprintf("%s ~ %s", strategy.Schedule.StartDate, strategy.Schedule.EndDate), 8)
	PrintKeyValue("Period", fmt.Sprintf("%dy %dm %dd", strategy.Schedule.Period.Years, strategy.Schedule.Period.Months, strategy.Schedule.Period.Days), 8)
	PrintKeyValue("Count", fmt.Sprintf("%d", len(dates)), 8)
	PrintSeparator()

	for i, d := range dates {
		fmt.Printf("   %3d. %s (%s)\n", i+1, d.Format("2006-01-02"), d.Weekday())
	}
	return nil
}

func showEngineStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.engine.Snapshot()

	PrintHeader(fmt.Sprintf("Engine Status (%s)", snap.StrategyID))
	if snap.Target.Date.IsZero() {
		PrintKeyValue("Target", "(none yet)", 10)
	} else {
		PrintKeyValue("Target", joinSymbols(snap.Target.Symbols), 10)
		PrintKeyValue("As of", snap.Target.Date.Format("2006-01-02"), 10)
	}
	PrintKeyValue("Remaining", fmt.Sprintf("%d", len(snap.RemainingDates)), 10)
	if snap.NextRebalance != nil {
		PrintKeyValue("Next", snap.NextRebalance.Format("2006-01-02"), 10)
	}
	PrintSeparator()
	return nil
}

func showTargetHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, err := connectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := portfolio.NewRepository(db.Pool).GetTargetHistory(ctx, historyLimit)
	if err != nil {
		return err
	}
	screens := selection.NewRepository(db.Pool)

	PrintHeader("Target History")
	if len(history) == 0 {
		fmt.Println("   (no targets recorded)")
		return nil
	}

	for _, target := range history {
		date := target.Date.Format("2006-01-02")
		PrintKeyValue(date, joinSymbols(target.Symbols), 10)

		counts, err := screens.GetScreeningCounts(ctx, target.Date)
		switch {
		case errors.Is(err, contracts.ErrNotFound):
			continue
		case err != nil:
			return err
		}
		PrintKeyValue("", "filtered: "+formatCounts(counts), 10)
	}
	PrintSeparator()
	return nil
}

// formatCounts renders filter counts in key order
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}
