package handlers

import (
	"context"
	"net/http"
	"time"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/utils"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	config *config.Config
	db     database.Store
	hub    Snapshots
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, db database.Store, hub Snapshots) *HealthHandler {
	return &HealthHandler{
		config: cfg,
		db:     db,
		hub:    hub,
	}
}

// HealthCheck 健康检查
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// 测试数据库连接
	dbStatus := "healthy"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	snap := h.hub.Current()
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"service":      "ramo-hub-backend",
		"version":      "1.0.0",
		"environment":  h.config.Environment,
		"database":     h.getDatabaseType(),
		"db_status":    dbStatus,
		"generation":   snap.Generation,
		"fetch_errors": len(snap.FetchErrors),
		"timestamp":    time.Now().Unix(),
		"status":       "healthy",
	})
}

// getDatabaseType 获取数据库类型
func (h *HealthHandler) getDatabaseType() string {
	switch {
	case h.config.DatabaseDriver == database.DriverSQLite:
		return "sqlite"
	case h.config.PostgresDSN != "":
		return "postgresql"
	case h.config.SupabaseURL != "" && h.config.SupabaseKey != "":
		return "supabase"
	case h.config.SQLitePath != "":
		return "sqlite"
	}
	return "unknown"
}
