package models

// FinanceType is the direction of a transaction
type FinanceType string

const (
	FinanceEntry FinanceType = "entry"
	FinanceExit  FinanceType = "exit"
)

// Currency of a transaction
type Currency string

const (
	CurrencyBRL Currency = "BRL"
	CurrencyUSD Currency = "USD"
)

// ReimbursementStatus tracks whether an expense has been paid back
type ReimbursementStatus string

const (
	ReimbursementNotRequired       ReimbursementStatus = "not_required"
	ReimbursementRequestedSection  ReimbursementStatus = "requested_section"
	ReimbursementRequestedExternal ReimbursementStatus = "requested_external"
	ReimbursementPaid              ReimbursementStatus = "paid"
)

// ParseReimbursementStatus falls back to ReimbursementNotRequired
func ParseReimbursementStatus(s string) ReimbursementStatus {
	switch st := ReimbursementStatus(s); st {
	case ReimbursementNotRequired, ReimbursementRequestedSection, ReimbursementRequestedExternal, ReimbursementPaid:
		return st
	default:
		return ReimbursementNotRequired
	}
}

// FinanceRow is a row of the finances table
type FinanceRow struct {
	ID            int64    `json:"id" db:"id"`
	Type          string   `json:"type" db:"type"`
	Amount        float64  `json:"amount" db:"amount"`
	Currency      string   `json:"currency" db:"currency"`
	Description   string   `json:"description" db:"description"`
	Date          NullTime `json:"date" db:"date"`
	InvoiceURL    string   `json:"invoice_url" db:"invoice_url"`
	Notes         string   `json:"notes" db:"notes"`
	ChapterID     *int64   `json:"chapter_id" db:"chapter_id"`
	ProjectID     *int64   `json:"project_id" db:"project_id"`
	Reimbursement string   `json:"reimbursement_status" db:"reimbursement_status"`
	CreatedBy     *string  `json:"created_by" db:"created_by"`
}

// Finance is a hydrated transaction
type Finance struct {
	ID            int64               `json:"id"`
	Type          FinanceType         `json:"type"`
	Amount        float64             `json:"amount"`
	Currency      Currency            `json:"currency"`
	Description   string              `json:"description"`
	Date          NullTime            `json:"date"`
	InvoiceURL    string              `json:"invoiceUrl,omitempty"`
	Notes         string              `json:"notes"`
	Chapter       *Chapter            `json:"chapter"`
	Project       *Project            `json:"project"`
	Reimbursement ReimbursementStatus `json:"reimbursementStatus"`
	Creator       *Profile            `json:"creator"`
}

// SignedAmount is negative for exits
func (f *Finance) SignedAmount() float64 {
	if f.Type == FinanceExit {
		return -f.Amount
	}
	return f.Amount
}
