package middleware

import (
	"mime"
	"net/http"

	"ramo-hub-backend/pkg/utils"
)

// RequireContentType 要求带请求体的请求使用给定的 Content-Type 之一
func RequireContentType(types ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 只对POST、PUT、PATCH请求验证Content-Type
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				contentType := r.Header.Get("Content-Type")
				if contentType == "" {
					utils.WriteBadRequestResponse(w, "Content-Type header is required")
					return
				}
				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || !allowed[mediaType] {
					utils.WriteErrorResponseWithCode(w, http.StatusUnsupportedMediaType, utils.CodeBadRequest, "Unsupported Content-Type "+contentType, nil)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON 验证请求Content-Type为application/json
func ContentTypeJSON(next http.Handler) http.Handler {
	return RequireContentType("application/json")(next)
}

// MaxBodySize 限制请求体大小
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
