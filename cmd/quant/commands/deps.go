package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wonny/rebalancer/internal/brain"
	"github.com/wonny/rebalancer/internal/calendar"
	"github.com/wonny/rebalancer/internal/contracts"
	"github.com/wonny/rebalancer/internal/execution"
	"github.com/wonny/rebalancer/internal/portfolio"
	"github.com/wonny/rebalancer/internal/s0_data"
	"github.com/wonny/rebalancer/internal/s0_data/quality"
	"github.com/wonny/rebalancer/internal/s1_universe"
	"github.com/wonny/rebalancer/internal/selection"
	"github.com/wonny/rebalancer/internal/strategyconfig"
	"github.com/wonny/rebalancer/pkg/config"
	"github.com/wonny/rebalancer/pkg/database"
	"github.com/wonny/rebalancer/pkg/httputil"
	"github.com/wonny/rebalancer/pkg/logger"
	"github.com/wonny/rebalancer/pkg/redis"
)

// stateFile is used when neither a database nor --state is given
var stateFile string

// app holds the wired engine and its collaborators
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	strategy *strategyconfig.Config
	engine   *brain.Orchestrator
	hub      *execution.Hub
	cache    *redis.Cache
	orders   *execution.Repository // DB 미설정 시 nil
	rankings *selection.Repository // DB 미설정 시 nil

	db    *database.DB
	redis *redis.Client
}

// loadBase loads process config, logger and strategy; shared by every command
func loadBase() (*config.Config, *logger.Logger, *strategyconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load strategy %s: %w", cfg.StrategyFile, err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"message": w.Message,
		}).Warn("Strategy warning")
	}

	return cfg, log, strategy, nil
}

// buildApp wires the engine from config, strategy and optional infrastructure
func buildApp(ctx context.Context) (*app, error) {
	cfg, log, strategy, err := loadBase()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, strategy: strategy}

	// 1. Infrastructure (선택)
	a.db, err = database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Info("DATABASE_URL not set, running without persistence")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.redis, err = redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.cache = redis.NewCache(a.redis, "rebalancer")

	// 2. Data sources
	var (
		candidates   contracts.CandidateSource
		fundamentals contracts.FundamentalSource
		holdings     contracts.HoldingsProvider
	)
	switch {
	case dataFile != "":
		src, err := s0_data.LoadFileSource(dataFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		candidates, fundamentals, holdings = src, src, src
	case a.db != nil:
		dataRepo := s0_data.NewRepository(a.db.Pool)
		candidates, fundamentals = dataRepo, dataRepo
		holdings = portfolio.NewRepository(a.db.Pool)
	default:
		a.Close()
		return nil, errors.New("either DATABASE_URL or --data is required")
	}

	// 3. Strategy components
	dates, err := strategy.RebalanceDates()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("expand rebalance dates: %w", err)
	}

	cal, err := calendar.NewWeekdayCalendar(strategy.Market.Timezone, strategy.Market.OpenTime, strategy.Market.Holidays)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build market calendar: %w", err)
	}

	filter := s1_universe.NewFilter(
		s1_universe.Config{
			StrategyID:      strategy.Meta.StrategyID,
			Market:          strategy.Coarse.Market,
			MinDollarVolume: strategy.Coarse.MinDollarVolumeDecimal(),
			MinPrice:        strategy.Coarse.MinPriceDecimal(),
		},
		dates,
		selection.NewScreener(selection.ScreenerConfig{MaxValueRatio: strategy.Fine.MaxValueRatioDecimal()}, log),
		selection.NewRanker(selection.RankerConfig{PortfolioSize: strategy.Fine.PortfolioSize}, log),
		log,
	)

	orderScheduler := execution.NewScheduler(cal, execution.SchedulerConfig{
		SellOffsetMinutes: strategy.Orders.SellOffsetMinutes,
		BuyOffsetMinutes:  strategy.Orders.BuyOffsetMinutes,
		BuyAllocation:     strategy.Orders.BuyAllocationDecimal(),
	}, log)

	// 4. Order sinks (저장 → 캐시 무효화 → 외부 전달 → 스트림)
	a.hub = execution.NewHub(log)
	sinks := []contracts.OrderSink{execution.NewLogSink(log)}
	if a.db != nil {
		a.orders = execution.NewRepository(a.db.Pool)
		sinks = append(sinks, a.orders)
	}
	if a.redis.Enabled() {
		sinks = append(sinks, execution.NewCacheInvalidator(a.cache))
	}
	if cfg.OrderSink.URL != "" {
		client := httputil.New(log, cfg.OrderSink.Timeout).WithRateLimit(cfg.OrderSink.RPS, 1)
		sinks = append(sinks, execution.NewHTTPSink(client, cfg.OrderSink.URL, log))
	}
	sinks = append(sinks, a.hub)

	controller := brain.NewController(
		filter,
		holdings,
		portfolio.NewDiffer(log),
		orderScheduler,
		execution.NewMultiSink(sinks...),
		log,
	)

	// 5. Orchestrator
	deps := brain.Deps{
		StrategyID:   strategy.Meta.StrategyID,
		Filter:       filter,
		Controller:   controller,
		Candidates:   candidates,
		Fundamentals: fundamentals,
		Quality:      quality.NewGate(quality.DefaultConfig(), log),
	}
	switch {
	case a.db != nil:
		universeRepo := s1_universe.NewRepository(a.db.Pool)
		a.rankings = selection.NewRepository(a.db.Pool)
		deps.Store = universeRepo
		deps.Journal = brain.NewDBJournal(universeRepo, a.rankings, portfolio.NewRepository(a.db.Pool))
	case stateFile != "":
		deps.Store = s1_universe.NewFileStore(stateFile)
	}
	if a.redis.Enabled() {
		deps.Locker = redis.NewLocker(a.redis, "rebalancer")
	}

	a.engine = brain.NewOrchestrator(deps, log)
	if err := a.engine.Restore(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore engine: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": strategy.Meta.StrategyID,
		"dates":       len(dates),
		"sinks":       len(sinks),
		"database":    a.db != nil,
		"redis":       a.redis.Enabled(),
	}).Info("Engine initialized")

	return a, nil
}

// Close releases infrastructure connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close redis: %v\n", err)
		}
	}
}
