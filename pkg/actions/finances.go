package actions

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/hydrator"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/permissions"
	"ramo-hub-backend/pkg/storage"
	"ramo-hub-backend/pkg/validation"
)

// NewFinance is the input of CreateFinance
type NewFinance struct {
	Type          string  `json:"type" validate:"required,oneof=entry exit"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Currency      string  `json:"currency" validate:"omitempty,oneof=BRL USD"`
	Description   string  `json:"description" validate:"notblank,max=500"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
	Notes         string  `json:"notes" validate:"max=2000"`
	ChapterID     *int64  `json:"chapterId"`
	ProjectID     *int64  `json:"projectId"`
	Reimbursement string  `json:"reimbursementStatus" validate:"omitempty,oneof=not_required requested_section requested_external paid"`
}

// Invoice is an uploaded receipt for a finance entry
type Invoice struct {
	Filename    string    `json:"filename" validate:"notblank,max=255"`
	ContentType string    `json:"contentType" validate:"required"`
	Body        io.Reader `json:"-" validate:"required"`
}

var invoiceExtensions = map[string]bool{".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// ListFinances reads finance entries on demand and resolves their references
// against the published snapshot. It writes nothing and does not refresh.
func (a *Actions) ListFinances(ctx context.Context, actorID string, chapterID, projectID *int64) ([]*models.Finance, error) {
	snap, actor := a.actor(actorID)
	allowed := permissions.CanViewFinances(actor, chapterID)
	if !allowed && projectID != nil {
		allowed = permissions.CheckProjectPermissions(actor, snap.Project(*projectID)).CanEdit
	}
	if !allowed {
		return nil, denied("Você não tem permissão para ver estas finanças.")
	}
	rows, err := a.fetcher.FetchFinances(ctx, chapterID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listFinances: %w", err)
	}
	return hydrator.HydrateFinances(rows, snap), nil
}

// CreateFinance records an entry or expense
func (a *Actions) CreateFinance(ctx context.Context, actorID string, in NewFinance) (int64, error) {
	snap, actor := a.actor(actorID)
	if !permissions.CanManageFinances(actor, in.ChapterID) {
		return 0, denied("Você não tem permissão para lançar finanças neste capítulo.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	if in.ProjectID != nil && snap.Project(*in.ProjectID) == nil {
		return 0, validation.NewError("projectId", "unknown project")
	}

	currency := models.CurrencyBRL
	if in.Currency != "" {
		currency = models.Currency(in.Currency)
	}
	values := database.Values{
		"type":                 in.Type,
		"amount":               in.Amount,
		"currency":             string(currency),
		"description":          in.Description,
		"date":                 parseDate(in.Date),
		"notes":                in.Notes,
		"reimbursement_status": string(models.ParseReimbursementStatus(in.Reimbursement)),
		"created_by":           actor.ID,
	}
	if in.ChapterID != nil {
		values["chapter_id"] = *in.ChapterID
	}
	if in.ProjectID != nil {
		values["project_id"] = *in.ProjectID
	}
	return a.insert(ctx, "createFinance", database.TableFinances, values)
}

// UploadInvoice stores the file in object storage and then records its URL
// on the finance entry; the URL update is the action's one write
func (a *Actions) UploadInvoice(ctx context.Context, actorID string, financeID int64, in Invoice) (string, error) {
	_, actor := a.actor(actorID)

	var rows []models.FinanceRow
	err := a.store.Select(ctx, database.TableFinances, database.Query{Filters: []database.Filter{database.Eq("id", financeID)}}, &rows)
	if err != nil {
		return "", fmt.Errorf("uploadInvoice: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("finance %d: %w", financeID, database.ErrNotFound)
	}
	if !permissions.CanManageFinances(actor, rows[0].ChapterID) {
		return "", denied("Você não tem permissão para anexar comprovantes a este lançamento.")
	}
	if err := validation.Struct(in); err != nil {
		return "", err
	}
	if !invoiceExtensions[strings.ToLower(path.Ext(in.Filename))] {
		return "", validation.NewError("filename", "must be a PDF or an image")
	}

	key := storage.ObjectKey(fmt.Sprintf("invoices/%d", financeID), in.Filename)
	url, err := a.blobs.Put(ctx, key, in.Body, in.ContentType)
	if err != nil {
		a.log.Error("Failed to upload invoice", key, err)
		return "", fmt.Errorf("uploadInvoice: %w", err)
	}

	err = a.write(ctx, "uploadInvoice", func(ctx context.Context) error {
		return a.store.Update(ctx, database.TableFinances, financeID, database.Values{"invoice_url": url})
	})
	if err != nil {
		// nothing references the object; remove it even if ctx is done
		if delErr := a.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			a.log.Warn("Orphaned invoice left in storage", key, delErr)
		}
		return "", err
	}
	return url, nil
}
