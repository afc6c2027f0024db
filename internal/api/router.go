package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wonny/rebalancer/internal/api/handlers"
	"github.com/wonny/rebalancer/pkg/logger"
)

// RouterDeps holds the handlers mounted by NewRouter
// Jobs and OrdersWS may be nil.
type RouterDeps struct {
	Rebalance      *handlers.RebalanceHandler
	Jobs           *handlers.JobsHandler
	OrdersWS       http.HandlerFunc
	AllowedOrigins []string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Rebalance endpoints
	api.HandleFunc("/target", deps.Rebalance.GetTarget).Methods("GET")
	api.HandleFunc("/schedule", deps.Rebalance.GetSchedule).Methods("GET")
	api.HandleFunc("/orders", deps.Rebalance.GetOrders).Methods("GET")
	api.HandleFunc("/ranking", deps.Rebalance.GetRanking).Methods("GET")
	api.HandleFunc("/tick", deps.Rebalance.RunTick).Methods("POST")

	if deps.Jobs != nil {
		api.HandleFunc("/jobs", deps.Jobs.GetJobs).Methods("GET")
	}

	// 주문 스트림 (WebSocket)
	if deps.OrdersWS != nil {
		r.HandleFunc("/ws/orders", deps.OrdersWS)
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return c.Handler(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "rebalancer-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
