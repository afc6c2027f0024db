package strategyconfig

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/rebalancer/internal/calendar"
)

const dateLayout = "2006-01-02"

// Config는 리밸런싱 전략의 전체 설정
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Schedule Schedule `yaml:"schedule" json:"schedule"`
	Coarse   Coarse   `yaml:"coarse" json:"coarse"`
	Fine     Fine     `yaml:"fine" json:"fine"`
	Orders   Orders   `yaml:"orders" json:"orders"`
	Market   Market   `yaml:"market" json:"market"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Schedule 리밸런싱 날짜 범위
type Schedule struct {
	StartDate string          `yaml:"start_date" json:"start_date"` // YYYY-MM-DD
	EndDate   string          `yaml:"end_date" json:"end_date"`     // YYYY-MM-DD (미포함)
	Period    calendar.Period `yaml:"period" json:"period"`
}

// Coarse 1단계: 유동성/가격/시장 필터
type Coarse struct {
	Market          string  `yaml:"market" json:"market"`
	MinDollarVolume float64 `yaml:"min_dollar_volume" json:"min_dollar_volume"` // 초과 조건
	MinPrice        float64 `yaml:"min_price" json:"min_price"`                 // 초과 조건
}

// Fine 2단계: 밸류 스크린 + ROIC 랭킹
type Fine struct {
	MaxValueRatio float64 `yaml:"max_value_ratio" json:"max_value_ratio"` // PE / PE5Y 미만
	PortfolioSize int     `yaml:"portfolio_size" json:"portfolio_size"`
}

// Orders 지연 주문 정책
type Orders struct {
	BuyAllocation     float64 `yaml:"buy_allocation" json:"buy_allocation"` // 총 매수 비중 (나머지 현금)
	SellOffsetMinutes int     `yaml:"sell_offset_minutes" json:"sell_offset_minutes"`
	BuyOffsetMinutes  int     `yaml:"buy_offset_minutes" json:"buy_offset_minutes"`
}

// Market 거래소 캘린더
type Market struct {
	Timezone string   `yaml:"timezone" json:"timezone"`
	OpenTime string   `yaml:"open_time" json:"open_time"` // HH:MM
	Holidays []string `yaml:"holidays" json:"holidays"`   // YYYY-MM-DD
}

// Default returns the reference strategy parameters
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "value_rebalance_us",
			Version:    "1.0.0",
		},
		Schedule: Schedule{
			StartDate: "2006-02-04",
			EndDate:   "2018-09-10",
			Period:    calendar.Yearly,
		},
		Coarse: Coarse{
			Market:          "usa",
			MinDollarVolume: 1_000_000,
			MinPrice:        5,
		},
		Fine: Fine{
			MaxValueRatio: 0.7,
			PortfolioSize: 10,
		},
		Orders: Orders{
			BuyAllocation:     0.95,
			SellOffsetMinutes: 60,
			BuyOffsetMinutes:  90,
		},
		Market: Market{
			Timezone: "America/New_York",
			OpenTime: "09:30",
			Holidays: []string{},
		},
	}
}

// StartDate parses schedule.start_date
func (c *Config) StartDate() (time.Time, error) {
	return parseDate(c.Schedule.StartDate, c.Market.Timezone)
}

// EndDate parses schedule.end_date
func (c *Config) EndDate() (time.Time, error) {
	return parseDate(c.Schedule.EndDate, c.Market.Timezone)
}

// RebalanceDates expands the schedule into concrete dates
func (c *Config) RebalanceDates() ([]time.Time, error) {
	start, err := c.StartDate()
	if err != nil {
		return nil, err
	}
	end, err := c.EndDate()
	if err != nil {
		return nil, err
	}
	return calendar.RebalanceDates(start, end, c.Schedule.Period), nil
}

// MinDollarVolumeDecimal returns the liquidity floor as a decimal
func (c *Coarse) MinDollarVolumeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinDollarVolume)
}

// MinPriceDecimal returns the price floor as a decimal
func (c *Coarse) MinPriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinPrice)
}

// MaxValueRatioDecimal returns the value threshold as a decimal
func (f *Fine) MaxValueRatioDecimal() decimal.Decimal {
	return decimal.NewFromFloat(f.MaxValueRatio)
}

// BuyAllocationDecimal returns the aggregate buy fraction as a decimal
func (o *Orders) BuyAllocationDecimal() decimal.Decimal {
	return decimal.NewFromFloat(o.BuyAllocation)
}

func parseDate(value, timezone string) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = l
	}

	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}
