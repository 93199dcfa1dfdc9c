// Package server 组装路由、中间件与HTTP服务器
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/paiban/rota/internal/config"
	"github.com/paiban/rota/internal/database"
	"github.com/paiban/rota/internal/handler"
	"github.com/paiban/rota/internal/metrics"
	"github.com/paiban/rota/internal/middleware"
	"github.com/paiban/rota/pkg/logger"
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// NewRouter 创建路由
//
// 中间件执行顺序：requestID -> 日志 -> recover -> 限流 -> cors -> handler
func NewRouter(cfg *config.Config, h *handler.Handler, db *database.DB, build BuildInfo) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if cfg.API.RateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.API.RateLimit)))
	}
	if cfg.API.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.API.CORS.Origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", chimw.RequestIDHeader},
			ExposedHeaders: []string{chimw.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	// 系统端点
	r.Get("/health", healthHandler(db))
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, build)
	})
	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.API.Timeout > 0 {
			r.Use(chimw.Timeout(cfg.API.Timeout))
		}

		r.Post("/boundary", h.Boundary)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPlan)
				r.Delete("/", h.DeletePlan)
				r.Get("/operations", h.ListOperations)
				r.Post("/operations", h.ApplyOperation)
				r.Get("/audit", h.AuditPlan)
				r.Get("/stats", h.PlanStats)
				r.Get("/recommendations", h.Recommendations)
			})
		})
	})

	return r
}

// healthHandler 健康检查，同时刷新连接池指标
func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			logger.WithContext(r.Context()).Warn().Err(err).Msg("数据库健康检查失败")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "service": "rota"})
			return
		}
		s := db.Stats()
		metrics.SetDBConnections(s.InUse, s.Idle)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "rota", "driver": db.Driver()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Server HTTP服务器
type Server struct {
	http *http.Server
}

// New 创建服务器
func New(cfg *config.Config, h http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.App.Port),
			Handler:      h,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Run 启动服务器，ctx 结束后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", s.http.Addr).Msg("服务器启动")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}
	logger.Info().Msg("服务器已关闭")
	return nil
}
