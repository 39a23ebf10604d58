package handlers

import (
	"errors"
	"net/http"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/storage"
	"ramo-hub-backend/pkg/utils"
	"ramo-hub-backend/pkg/validation"
)

// writeActionError 把动作返回的错误映射为HTTP响应
func writeActionError(w http.ResponseWriter, log logger.Logger, action string, err error) {
	var notification *actions.Notification
	var invalid *validation.Error

	switch {
	case errors.As(err, &notification):
		utils.WritePermissionDeniedResponse(w, notification.Message)
	case errors.As(err, &invalid):
		utils.WriteValidationErrorResponse(w, "Invalid input", invalid.Fields)
	case errors.Is(err, database.ErrNotFound):
		utils.WriteNotFoundResponse(w, err.Error())
	case errors.Is(err, database.ErrConflict):
		utils.WriteConflictResponse(w, action+" failed: "+err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		utils.WriteErrorResponseWithCode(w, http.StatusServiceUnavailable, utils.CodeStorage, "File uploads are not configured", nil)
	default:
		log.Error("Action failed", action, err)
		utils.WriteInternalServerErrorResponse(w, action+" failed")
	}
}

// decodeBody 解析JSON请求体；失败时已写出400
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := utils.ParseJSONBody(r, v); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pathID 解析路由中的 {id}；失败时已写出400
func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := utils.GetInt64URLParam(r, key)
	if err != nil {
		utils.WriteBadRequestResponse(w, err.Error())
		return 0, false
	}
	return id, true
}
