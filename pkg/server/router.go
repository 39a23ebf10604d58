package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/handlers"
	customMiddleware "ramo-hub-backend/pkg/middleware"
	"ramo-hub-backend/pkg/utils"
)

// maxJSONBody JSON 请求体上限
const maxJSONBody = 1 << 20

// NewRouter 构建完整的 chi 路由器
func NewRouter(app *App) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, app)
	setupRoutes(router, app)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, app *App) {
	cfg := app.Config

	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.Logger(cfg, app.Log))
	router.Use(customMiddleware.Recovery(cfg, app.Log))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（Vercel函数有时间限制）
	router.Use(middleware.Timeout(requestTimeout(cfg)))

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// requestTimeout 在 Vercel 上留5秒缓冲；否则给写入后的刷新留足时间
func requestTimeout(cfg *config.Config) time.Duration {
	if database.IsVercelEnvironment() {
		return 25 * time.Second
	}
	return cfg.RefreshTimeout + 10*time.Second
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, app *App) {
	cfg, log := app.Config, app.Log

	// 创建处理器
	healthHandler := handlers.NewHealthHandler(cfg, app.Store, app.Hub)
	snapshotHandler := handlers.NewSnapshotHandler(cfg, app.Hub, log)
	projectsHandler := handlers.NewProjectsHandler(cfg, app.Actions, log)
	tasksHandler := handlers.NewTasksHandler(cfg, app.Actions, log)
	classifiedsHandler := handlers.NewClassifiedsHandler(cfg, app.Actions, log)
	financesHandler := handlers.NewFinancesHandler(cfg, app.Actions, log)
	chaptersHandler := handlers.NewChaptersHandler(cfg, app.Actions, log)

	// 健康检查与指标端点
	router.Get("/", healthHandler.HealthCheck)
	router.Handle("/metrics", app.Metrics.Handler())

	// 数据库连接池状态端点（调试用）
	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	// API路由组（全部需要认证）
	router.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.AuthMiddleware(cfg))

		r.Route("/snapshot", func(r chi.Router) {
			r.Get("/", snapshotHandler.GetSnapshot)
			r.Get("/status", snapshotHandler.GetStatus)
			r.Post("/refresh", snapshotHandler.Refresh) // ?quiet=true
		})

		r.Get("/me", snapshotHandler.Me)
		r.Route("/permissions", func(r chi.Router) {
			r.Get("/projects/{id}", snapshotHandler.ProjectPermissions)
			r.Get("/tasks/{id}", snapshotHandler.TaskPermissions)
		})

		r.Get("/finances", financesHandler.ListFinances) // ?chapter_id=&project_id=
		r.With(customMiddleware.RequireContentType("multipart/form-data")).
			Post("/finances/{id}/invoice", financesHandler.UploadInvoice)

		// JSON 写入路由
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeJSON)
			r.Use(customMiddleware.MaxBodySize(maxJSONBody))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectsHandler.CreateProject)
				r.Patch("/{id}", projectsHandler.UpdateProject)
				r.Put("/{id}/members", projectsHandler.SetMembers)
				r.Put("/{id}/chapters", projectsHandler.SetChapters)
				r.Delete("/{id}/links/{index}", projectsHandler.RemoveLink)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", tasksHandler.CreateTask)
				r.Patch("/{id}", tasksHandler.UpdateTask)
				r.Put("/{id}/assignees", tasksHandler.SetAssignees)
				r.Delete("/{id}", tasksHandler.DeleteTask)
			})

			r.Route("/classifieds", func(r chi.Router) {
				r.Post("/", classifiedsHandler.CreateClassified)
				r.Post("/{id}/offers", classifiedsHandler.AddOffer)
			})

			r.Post("/finances", financesHandler.CreateFinance)
			r.Post("/events", chaptersHandler.CreateEvent)
			r.Post("/goals", chaptersHandler.CreateGoal)
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), nil)
	})
}
