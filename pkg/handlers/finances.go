package handlers

import (
	"errors"
	"net/http"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/utils"
)

// MaxInvoiceSize 上传的发票文件大小上限
const MaxInvoiceSize = 10 << 20

// FinancesHandler 财务处理器
type FinancesHandler struct {
	config  *config.Config
	actions *actions.Actions
	log     logger.Logger
}

// NewFinancesHandler 创建财务处理器
func NewFinancesHandler(cfg *config.Config, a *actions.Actions, log logger.Logger) *FinancesHandler {
	return &FinancesHandler{
		config:  cfg,
		actions: a,
		log:     log,
	}
}

// ListFinances 按分会或项目列出财务记录
func (h *FinancesHandler) ListFinances(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	chapterID, err := utils.GetInt64QueryParam(r, "chapter_id")
	if err != nil {
		utils.WriteBadRequestResponse(w, err.Error())
		return
	}
	projectID, err := utils.GetInt64QueryParam(r, "project_id")
	if err != nil {
		utils.WriteBadRequestResponse(w, err.Error())
		return
	}

	finances, err := h.actions.ListFinances(r.Context(), actor, chapterID, projectID)
	if err != nil {
		writeActionError(w, h.log, "listFinances", err)
		return
	}
	balance := make(map[models.Currency]float64)
	for _, f := range finances {
		balance[f.Currency] += f.SignedAmount()
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"finances": finances,
		"count":    len(finances),
		"balance":  balance,
	})
}

// CreateFinance 新增财务记录
func (h *FinancesHandler) CreateFinance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req actions.NewFinance
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.actions.CreateFinance(r.Context(), actor, req)
	if err != nil {
		writeActionError(w, h.log, "createFinance", err)
		return
	}
	utils.WriteCreatedResponse(w, map[string]interface{}{"id": id})
}

// UploadInvoice 接收 multipart 表单中的 file 字段并保存为发票
func (h *FinancesHandler) UploadInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxInvoiceSize+1<<20)
	if err := r.ParseMultipartForm(MaxInvoiceSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "Invoice is too large")
			return
		}
		utils.WriteBadRequestResponse(w, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteBadRequestResponse(w, "file is required")
		return
	}
	defer file.Close()

	url, err := h.actions.UploadInvoice(r.Context(), actor, id, actions.Invoice{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeActionError(w, h.log, "uploadInvoice", err)
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"id":         id,
		"invoiceUrl": url,
	})
}
