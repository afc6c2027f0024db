package strategyconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/internal/calendar"
)

func TestLoad(t *testing.T) {
	path := "../../config/strategy/value_rebalance.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, Default(), cfg)

	dates, err := cfg.RebalanceDates()
	require.NoError(t, err)
	require.Len(t, dates, 13)
	assert.Equal(t, "2018-02-04", dates[12].Format("2006-01-02"))
}

func TestHash_Deterministic(t *testing.T) {
	cfg := Default()

	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	hash2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)

	cfg.Fine.PortfolioSize = 20
	hash3, err := Hash(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash3)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte(`
meta:
  strategy_id: test
  strategyid_typo: x
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "default is valid", mutate: func(cfg *Config) {}},
		{
			name:    "missing strategy id",
			mutate:  func(cfg *Config) { cfg.Meta.StrategyID = "" },
			wantErr: "meta.strategy_id",
		},
		{
			name:    "end before start",
			mutate:  func(cfg *Config) { cfg.Schedule.EndDate = "2005-01-01" },
			wantErr: "schedule",
		},
		{
			name:    "zero period",
			mutate:  func(cfg *Config) { cfg.Schedule.Period = calendar.Period{} },
			wantErr: "schedule.period",
		},
		{
			name:    "zero portfolio size",
			mutate:  func(cfg *Config) { cfg.Fine.PortfolioSize = 0 },
			wantErr: "fine.portfolio_size",
		},
		{
			name:    "allocation above one",
			mutate:  func(cfg *Config) { cfg.Orders.BuyAllocation = 1.2 },
			wantErr: "orders.buy_allocation",
		},
		{
			name:    "buys before sells",
			mutate:  func(cfg *Config) { cfg.Orders.SellOffsetMinutes = 90; cfg.Orders.BuyOffsetMinutes = 60 },
			wantErr: "orders",
		},
		{
			name:    "bad open time",
			mutate:  func(cfg *Config) { cfg.Market.OpenTime = "9:30" },
			wantErr: "market.open_time",
		},
		{
			name:    "bad holiday",
			mutate:  func(cfg *Config) { cfg.Market.Holidays = []string{"July 4"} },
			wantErr: "market.holidays[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var vErr ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	assert.Empty(t, Warn(Default()))

	cfg := Default()
	cfg.Fine.MaxValueRatio = 1.1
	cfg.Orders.BuyAllocation = 0.3

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"WEAK_VALUE_SCREEN", "LARGE_CASH_BUFFER"}, codes)
}

func TestConfig_DecimalAccessors(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "1000000", cfg.Coarse.MinDollarVolumeDecimal().String())
	assert.Equal(t, "5", cfg.Coarse.MinPriceDecimal().String())
	assert.Equal(t, "0.7", cfg.Fine.MaxValueRatioDecimal().String())
	assert.Equal(t, "0.95", cfg.Orders.BuyAllocationDecimal().String())

	start, err := cfg.StartDate()
	require.NoError(t, err)
	assert.Equal(t, time.February, start.Month())
	assert.Equal(t, "America/New_York", start.Location().String())
}
