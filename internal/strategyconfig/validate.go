package strategyconfig

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var hhmmPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Market ===
	if _, err := time.LoadLocation(cfg.Market.Timezone); err != nil {
		return ValidationError{"market.timezone", err.Error()}
	}
	if err := validateHHMM(cfg.Market.OpenTime); err != nil {
		return ValidationError{"market.open_time", err.Error()}
	}
	for i, h := range cfg.Market.Holidays {
		if _, err := time.Parse(dateLayout, h); err != nil {
			return ValidationError{fmt.Sprintf("market.holidays[%d]", i), "must be YYYY-MM-DD"}
		}
	}

	// === Schedule ===
	start, err := cfg.StartDate()
	if err != nil {
		return ValidationError{"schedule.start_date", "must be YYYY-MM-DD"}
	}
	end, err := cfg.EndDate()
	if err != nil {
		return ValidationError{"schedule.end_date", "must be YYYY-MM-DD"}
	}
	if !start.Before(end) {
		return ValidationError{"schedule", "start_date must be before end_date"}
	}
	if !cfg.Schedule.Period.IsPositive() {
		return ValidationError{"schedule.period", "must move forward"}
	}

	// === Coarse ===
	if cfg.Coarse.Market == "" {
		return ValidationError{"coarse.market", "required"}
	}
	if cfg.Coarse.MinDollarVolume < 0 {
		return ValidationError{"coarse.min_dollar_volume", "must be >= 0"}
	}
	if cfg.Coarse.MinPrice < 0 {
		return ValidationError{"coarse.min_price", "must be >= 0"}
	}

	// === Fine ===
	if cfg.Fine.MaxValueRatio <= 0 {
		return ValidationError{"fine.max_value_ratio", "must be > 0"}
	}
	if cfg.Fine.PortfolioSize <= 0 {
		return ValidationError{"fine.portfolio_size", "must be > 0"}
	}

	// === Orders ===
	if cfg.Orders.BuyAllocation <= 0 || cfg.Orders.BuyAllocation > 1 {
		return ValidationError{"orders.buy_allocation", "must be in range (0, 1]"}
	}
	if cfg.Orders.SellOffsetMinutes < 0 {
		return ValidationError{"orders.sell_offset_minutes", "must be >= 0"}
	}
	// 매도가 매수보다 먼저 트리거되어야 함
	if cfg.Orders.SellOffsetMinutes >= cfg.Orders.BuyOffsetMinutes {
		return ValidationError{"orders", "sell_offset_minutes must be < buy_offset_minutes"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Coarse.MinDollarVolume < 1_000_000 {
		warnings = append(warnings, Warning{
			Code:    "LOW_LIQUIDITY_FLOOR",
			Message: "min_dollar_volume < 1,000,000: fills may move the market",
		})
	}

	if cfg.Fine.MaxValueRatio >= 1 {
		warnings = append(warnings, Warning{
			Code:    "WEAK_VALUE_SCREEN",
			Message: "max_value_ratio >= 1 admits stocks trading above their 5y average PE",
		})
	}

	if cfg.Orders.BuyAllocation < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "LARGE_CASH_BUFFER",
			Message: "buy_allocation < 0.5 keeps more than half of equity in cash",
		})
	}

	return warnings
}

func validateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}
