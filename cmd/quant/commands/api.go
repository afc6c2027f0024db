package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/rebalancer/internal/api"
	"github.com/wonny/rebalancer/internal/api/handlers"
	"github.com/wonny/rebalancer/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 목표 포트폴리오/일정/주문 조회 엔드포인트 제공
- 수동 틱 트리거 및 주문 스트림(WebSocket) 제공

Endpoints:
  GET  /health         - Health check
  GET  /api/target     - 목표 포트폴리오 및 엔진 상태
  GET  /api/schedule   - 남은 리밸런싱 날짜
  GET  /api/orders     - 예약 주문 조회 (?from=&to=)
  GET  /api/ranking    - 랭킹 조회 (?date=)
  POST /api/tick       - 틱 즉시 실행 ({"at": "..."})
  GET  /api/jobs       - 스케줄 작업 상태 (--with-scheduler)
  GET  /ws/orders      - 주문 스트림

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	withScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default is $PORT)")
	apiCmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "리밸런싱 스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Rebalancer API Server ===")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 1. Wire engine
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// 2. Order stream hub
	go a.hub.Run(ctx)

	loc, err := time.LoadLocation(a.strategy.Market.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	// 3. Optional in-process scheduler
	deps := api.RouterDeps{
		Rebalance:      handlers.NewRebalanceHandler(a.engine, a.orderLister(), a.rankingReader(), a.cache, loc, a.log),
		OrdersWS:       a.hub.ServeWS,
		AllowedOrigins: a.cfg.CORSOrigins,
	}

	var sched *scheduler.Scheduler
	if withScheduler {
		sched, err = newScheduler(a)
		if err != nil {
			return err
		}
		deps.Jobs = handlers.NewJobsHandler(sched)
		sched.Start()
		defer sched.Stop()
	}

	// 4. Server with graceful shutdown
	server := api.New(a.cfg, a.log, api.NewRouter(deps, a.log))

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}

// orderLister avoids handing a typed nil to the handler
func (a *app) orderLister() handlers.OrderLister {
	if a.orders == nil {
		return nil
	}
	return a.orders
}

func (a *app) rankingReader() handlers.RankingReader {
	if a.rankings == nil {
		return nil
	}
	return a.rankings
}
