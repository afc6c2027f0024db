package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile   string
	strategyFile string
	dataFile     string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Rebalancer - 밸류 전략 정기 리밸런싱 엔진",
	Long: `Rebalancer Unified CLI

정해진 날짜마다 유니버스를 선별하고(coarse → fine),
보유 종목과 목표 포트폴리오의 차이를 지연 주문으로 넘깁니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant api
  go run ./cmd/quant scheduler start
  go run ./cmd/quant rebalance tick --at 2006-02-05
  go run ./cmd/quant rebalance dates
  go run ./cmd/quant config check
  go run ./cmd/quant db migrate`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return nil
		}
		if err := godotenv.Load(configFile); err != nil {
			return fmt.Errorf("load env file %s: %w", configFile, err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default is $STRATEGY_FILE)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "YAML snapshot for candidates, fundamentals and holdings (DB 대신 사용)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
