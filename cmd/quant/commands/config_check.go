package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/rebalancer/internal/strategyconfig"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 관리",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "전략 YAML 검증",
	Long: `전략 YAML을 로드하여 필수 조건을 검증하고 경고를 출력합니다.

Example:
  go run ./cmd/quant config check
  go run ./cmd/quant config check --strategy config/strategy/value_rebalance.yaml`,
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, _, strategy, err := loadBase()
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}

	dates, err := strategy.RebalanceDates()
	if err != nil {
		return fmt.Errorf("expand rebalance dates: %w", err)
	}

	PrintHeader("Strategy Config")
	PrintKeyValue("File", cfg.StrategyFile, 14)
	PrintKeyValue("Strategy", fmt.Sprintf("%s (v%s)", strategy.Meta.StrategyID, strategy.Meta.Version), 14)
	PrintKeyValue("Hash", hash[:16], 14)
	PrintKeyValue("Dates", fmt.Sprintf("%d", len(dates)), 14)
	PrintKeyValue("Coarse", fmt.Sprintf("market=%s volume>%.0f price>%.2f", strategy.Coarse.Market, strategy.Coarse.MinDollarVolume, strategy.Coarse.MinPrice), 14)
	PrintKeyValue("Fine", fmt.Sprintf("value<%.2f top=%d", strategy.Fine.MaxValueRatio, strategy.Fine.PortfolioSize), 14)
	PrintKeyValue("Orders", fmt.Sprintf("sell+%dm buy+%dm alloc=%.2f", strategy.Orders.SellOffsetMinutes, strategy.Orders.BuyOffsetMinutes, strategy.Orders.BuyAllocation), 14)
	PrintKeyValue("Market", fmt.Sprintf("%s open %s", strategy.Market.Timezone, strategy.Market.OpenTime), 14)
	PrintSeparator()

	warnings := strategyconfig.Warn(strategy)
	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	PrintSuccess(fmt.Sprintf("Strategy is valid (%d warnings)", len(warnings)))
	return nil
}
