package handlers

import (
	"net/http"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/utils"
)

// ClassifiedsHandler 分类信息（互助墙）处理器
type ClassifiedsHandler struct {
	config  *config.Config
	actions *actions.Actions
	log     logger.Logger
}

// NewClassifiedsHandler 创建分类信息处理器
func NewClassifiedsHandler(cfg *config.Config, a *actions.Actions, log logger.Logger) *ClassifiedsHandler {
	return &ClassifiedsHandler{
		config:  cfg,
		actions: a,
		log:     log,
	}
}

// CreateClassified 发布分类信息
func (h *ClassifiedsHandler) CreateClassified(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewClassified
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateClassified(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createClassified", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}

// AddOffer 追加一条带签名与时间的回复
func (h *ClassifiedsHandler) AddOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req actions.Offer
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.actions.AddClassifiedOffer(r.Context(), actor, id, req); err != nil {
		writeActionError(w, h.log, "addClassifiedOffer", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}
