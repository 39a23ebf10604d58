package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/middleware"
	"ramo-hub-backend/pkg/utils"
)

// actorID 返回已认证调用者的 profile id；失败时已写出401
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return "", false
	}
	return user.ID, true
}

// ProjectsHandler 项目处理器
type ProjectsHandler struct {
	config  *config.Config
	actions *actions.Actions
	log     logger.Logger
}

// NewProjectsHandler 创建项目处理器
func NewProjectsHandler(cfg *config.Config, a *actions.Actions, log logger.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		config:  cfg,
		actions: a,
		log:     log,
	}
}

// CreateProject 创建项目
func (h *ProjectsHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewProject
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateProject(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createProject", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}

// UpdateProject 修改项目字段
func (h *ProjectsHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch actions.ProjectPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	if err := h.actions.UpdateProject(r.Context(), actor, id, patch); err != nil {
		writeActionError(w, h.log, "updateProject", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}

// SetMembers 替换项目成员
func (h *ProjectsHandler) SetMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Members []actions.Member `json:"members"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.actions.SetProjectMembers(r.Context(), actor, id, req.Members); err != nil {
		writeActionError(w, h.log, "setProjectMembers", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}

// SetChapters 替换项目所属的分会
func (h *ProjectsHandler) SetChapters(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		ChapterIDs []int64 `json:"chapterIds"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.actions.SetProjectChapters(r.Context(), actor, id, req.ChapterIDs); err != nil {
		writeActionError(w, h.log, "setProjectChapters", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}

// RemoveLink 按位置删除项目链接
func (h *ProjectsHandler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "path parameter index must be an integer")
		return
	}

	if err := h.actions.RemoveProjectLink(r.Context(), actor, id, index); err != nil {
		writeActionError(w, h.log, "removeProjectLink", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{"id": id})
}
