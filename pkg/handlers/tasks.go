package handlers

import (
	"net/http"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/utils"
)

// TasksHandler 任务处理器
type TasksHandler struct {
	config  *config.Config
	actions *actions.Actions
	log     logger.Logger
}

// NewTasksHandler 创建任务处理器
func NewTasksHandler(cfg *config.Config, a *actions.Actions, log logger.Logger) *TasksHandler {
	return &TasksHandler{
		config:  cfg,
		actions: a,
		log:     log,
	}
}

// CreateTask 创建任务
func (h *TasksHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewTask
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateTask(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createTask", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}

// UpdateTask 修改任务字段
func (h *TasksHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch actions.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	if err := h.actions.UpdateTask(r.Context(), actor, id, patch); err != nil {
		writeActionError(w, h.log, "updateTask", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}

// SetAssignees 替换任务负责人
func (h *TasksHandler) SetAssignees(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		ProfileIDs []string `json:"profileIds"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.actions.SetTaskAssignees(r.Context(), actor, id, req.ProfileIDs); err != nil {
		writeActionError(w, h.log, "setTaskAssignees", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}

// DeleteTask 删除任务
func (h *TasksHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.actions.DeleteTask(r.Context(), actor, id); err != nil {
		writeActionError(w, h.log, "deleteTask", err)
		return
	}
	utils.WriteNoContentResponse(w)
}
