package model

import "github.com/google/uuid"

// BudgetPoolStats is a read model for the pool usage dashboard and the
// workbook export. Computed from source rows on read.
type BudgetPoolStats struct {
	PoolID        uuid.UUID `json:"pool_id"`
	Name          string    `json:"name"`
	FinancialYear int       `json:"financial_year"`
	TotalAmount   float64   `json:"total_amount"`
	UsedAmount    float64   `json:"used_amount"`
	Remaining     float64   `json:"remaining"`
	ProjectCount  int64     `json:"project_count"`
}

type PurchaseOrderStats struct {
	TotalCount     int64   `json:"total_count"`
	DraftCount     int64   `json:"draft_count"`
	SubmittedCount int64   `json:"submitted_count"`
	ApprovedCount  int64   `json:"approved_count"`
	TotalAmount    float64 `json:"total_amount"`
	ApprovedAmount float64 `json:"approved_amount"`
}
