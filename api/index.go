package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/server"
	"ramo-hub-backend/pkg/utils"
)

// 进程级组件：只缓存初始化成功的实例，失败后下一个请求重试
var (
	appMu     sync.Mutex
	cachedApp *server.App
	router    http.Handler

	newApp = server.NewApp
)

// Handler 是Vercel函数的入口点
// 这个函数实现了"单体路由模式"，将所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	// 加载配置
	cfg := config.GetCached()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	app, h, err := loadApp(context.Background(), cfg)
	if err != nil {
		logger.Errorf("Initialization failed: %v", err)
		utils.WriteInternalServerErrorResponse(w, "Initialization error: "+err.Error())
		return
	}

	// 函数实例之间不共享后台轮询，按需刷新过期快照
	refreshIfStale(r.Context(), app)

	// 将请求传递给Chi路由器处理
	h.ServeHTTP(w, r)
}

// loadApp 返回已缓存的应用；尚未成功初始化时重新构建
func loadApp(ctx context.Context, cfg *config.Config) (*server.App, http.Handler, error) {
	appMu.Lock()
	defer appMu.Unlock()

	if cachedApp != nil {
		return cachedApp, router, nil
	}
	app, err := newApp(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(app.Log)
	cachedApp, router = app, server.NewRouter(app)
	return cachedApp, router, nil
}

// refreshIfStale 首次请求时加载快照；之后超过刷新间隔才静默刷新
func refreshIfStale(ctx context.Context, app *server.App) {
	snap := app.Hub.Current()
	if snap.Generation > 0 {
		interval := app.Config.RefreshInterval
		if interval <= 0 || time.Since(snap.FetchedAt) < interval {
			return
		}
	}
	if _, err := app.Hub.Refresh(ctx, snap.Generation > 0); err != nil {
		app.Log.Warn("Snapshot refresh before request did not complete", err)
	}
}
