package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/utils"
)

// Recovery 恢复中间件，处理panic并返回统一的错误响应
func Recovery(cfg *config.Config, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// 让 http.Server 正常中止连接
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := debug.Stack()
				log.Error("Panic while serving request", fmt.Errorf("panic: %v", rec), map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				})

				if cfg.IsDevelopment() {
					// 开发环境：返回堆栈
					utils.WriteErrorResponseWithCode(w, http.StatusInternalServerError,
						utils.CodeInternal,
						fmt.Sprintf("Internal server error: %v", rec),
						string(stack))
					return
				}
				utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
