package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
)

// Logger 创建日志中间件
func Logger(cfg *config.Config, log logger.Logger) func(http.Handler) http.Handler {
	// 开发环境使用Chi的默认彩色日志
	if cfg.IsDevelopment() {
		return middleware.Logger
	}
	return RequestLogger(log)
}

// RequestLogger 按状态码分级记录每个请求；5xx 走 Error，会上报 Rollbar
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// 包装ResponseWriter来捕获状态码
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			fields := map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
				"ip":         r.RemoteAddr,
			}
			if user, ok := GetUserFromContext(r.Context()); ok && user != nil {
				fields["profile_id"] = user.ID
			}

			switch status := ww.Status(); {
			case status >= 500:
				log.Error("HTTP request failed", fields)
			case status >= 400:
				log.Info("HTTP request rejected", fields)
			default:
				log.Info("HTTP request", fields)
			}
		})
	}
}
