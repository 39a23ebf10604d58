package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/middleware"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/permissions"
	"ramo-hub-backend/pkg/utils"
)

// Snapshots 已发布快照的读取与刷新
type Snapshots interface {
	Current() *models.Snapshot
	Loading() bool
	Refresh(ctx context.Context, quiet bool) (*models.Snapshot, error)
}

// SnapshotHandler 快照处理器
type SnapshotHandler struct {
	config *config.Config
	hub    Snapshots
	log    logger.Logger
}

// NewSnapshotHandler 创建快照处理器
func NewSnapshotHandler(cfg *config.Config, hub Snapshots, log logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		config: cfg,
		hub:    hub,
		log:    log,
	}
}

func snapshotMeta(snap *models.Snapshot) utils.Meta {
	return utils.Meta{Generation: snap.Generation, FetchedAt: snap.FetchedAt}
}

func writeSnapshot(w http.ResponseWriter, snap *models.Snapshot, data interface{}) {
	w.Header().Set("X-Snapshot-Generation", strconv.FormatUint(snap.Generation, 10))
	utils.WriteSnapshotResponse(w, data, snapshotMeta(snap))
}

// GetSnapshot 返回完整的已发布快照
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.hub.Current()
	writeSnapshot(w, snap, snap)
}

// GetStatus 返回加载状态、代数与抓取错误
func (h *SnapshotHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.hub.Current()
	writeSnapshot(w, snap, map[string]interface{}{
		"loading":     h.hub.Loading(),
		"generation":  snap.Generation,
		"fetchedAt":   snap.FetchedAt,
		"fetchErrors": snap.FetchErrors,
	})
}

// Refresh 触发一次刷新并返回刷新后的快照状态
func (h *SnapshotHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	quiet, err := strconv.ParseBool(utils.GetQueryParam(r, "quiet", "false"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "quiet must be a boolean")
		return
	}

	snap, err := h.hub.Refresh(r.Context(), quiet)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// 客户端已断开
			return
		}
		h.log.Warn("Snapshot refresh did not complete", err)
		utils.WriteErrorResponseWithCode(w, http.StatusGatewayTimeout, "REFRESH_TIMEOUT", "Snapshot refresh did not complete", err.Error())
		return
	}

	writeSnapshot(w, snap, map[string]interface{}{
		"generation":  snap.Generation,
		"fetchedAt":   snap.FetchedAt,
		"fetchErrors": snap.FetchErrors,
	})
}

// Me 返回当前用户的资料与派生的全局能力
func (h *SnapshotHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	snap := h.hub.Current()
	profile := snap.Profile(user.ID)
	if profile == nil {
		utils.WriteNotFoundResponse(w, "No profile for the authenticated user")
		return
	}

	writeSnapshot(w, snap, map[string]interface{}{
		"profile":          profile,
		"isGlobalAdmin":    permissions.IsGlobalAdmin(profile),
		"canCreateProject": permissions.CanCreateProject(profile),
	})
}

// ProjectPermissions 返回当前用户在项目上的能力
func (h *SnapshotHandler) ProjectPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	snap := h.hub.Current()
	project := snap.Project(id)
	if project == nil {
		utils.WriteNotFoundResponse(w, "Project not found")
		return
	}

	var profile *models.Profile
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		profile = snap.Profile(user.ID)
	}
	writeSnapshot(w, snap, permissions.CheckProjectPermissions(profile, project))
}

// TaskPermissions 返回当前用户在任务上的能力
func (h *SnapshotHandler) TaskPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	snap := h.hub.Current()
	task := snap.Task(id)
	if task == nil {
		utils.WriteNotFoundResponse(w, "Task not found")
		return
	}

	var profile *models.Profile
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		profile = snap.Profile(user.ID)
	}
	writeSnapshot(w, snap, permissions.CheckTaskPermissions(profile, task, task.Project))
}
