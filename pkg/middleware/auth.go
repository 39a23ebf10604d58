package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/utils"
)

// ContextKey 用于在context中存储用户信息的键
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// bearerToken 从Authorization头提取令牌
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return tokenString, nil
}

// AuthMiddleware JWT认证中间件；令牌的 sub 即调用者的 profile id
func AuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return Authenticate(utils.NewJWTService(cfg.JWTSecret), cfg.Debug)
}

// Authenticate 使用给定的JWT服务认证请求
func Authenticate(jwtService *utils.JWTService, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				if debug {
					fmt.Printf("❌ Auth middleware: %v (%s)\n", err, r.URL.Path)
				}
				utils.WriteUnauthorizedResponse(w, err.Error())
				return
			}

			user, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				if debug {
					fmt.Printf("❌ Auth middleware: %v\n", err)
				}
				utils.WriteUnauthorizedResponse(w, "Invalid or expired token")
				return
			}

			if debug {
				fmt.Printf("✅ Auth middleware: authenticated profile %s (%s)\n", user.ID, user.Email)
			}

			// 将用户信息添加到请求context中
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser 把用户放入context
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext 从context中获取用户信息
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// RequireUser 要求用户必须已认证的辅助函数
func RequireUser(ctx context.Context) (*models.User, error) {
	user, ok := GetUserFromContext(ctx)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not authenticated")
	}
	return user, nil
}
