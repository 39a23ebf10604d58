package handlers

import (
	"net/http"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/utils"
)

// ChaptersHandler 分会活动与目标处理器
type ChaptersHandler struct {
	config  *config.Config
	actions *actions.Actions
	log     logger.Logger
}

// NewChaptersHandler 创建分会处理器
func NewChaptersHandler(cfg *config.Config, a *actions.Actions, log logger.Logger) *ChaptersHandler {
	return &ChaptersHandler{
		config:  cfg,
		actions: a,
		log:     log,
	}
}

// CreateEvent 记录活动
func (h *ChaptersHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewEvent
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateEvent(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createEvent", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}

// CreateGoal 新增分会目标
func (h *ChaptersHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewGoal
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateGoal(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createGoal", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}
