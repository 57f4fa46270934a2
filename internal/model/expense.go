package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/workflow"
)

type ExpenseStatus string

const (
	ExpenseStatusDraft     ExpenseStatus = "Draft"
	ExpenseStatusSubmitted ExpenseStatus = "Submitted"
	ExpenseStatusApproved  ExpenseStatus = "Approved"
	ExpenseStatusPaid      ExpenseStatus = "Paid"
)

// Rejection sends an expense back to Draft for resubmission.
var ExpenseFlow = workflow.NewMachine("Expense", map[ExpenseStatus][]ExpenseStatus{
	ExpenseStatusDraft:     {ExpenseStatusSubmitted},
	ExpenseStatusSubmitted: {ExpenseStatusApproved, ExpenseStatusDraft},
	ExpenseStatusApproved:  {ExpenseStatusPaid},
})

type Expense struct {
	ID                uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string        `json:"name" gorm:"size:200;not null"`
	Description       string        `json:"description" gorm:"type:text"`
	TotalAmount       float64       `json:"total_amount" gorm:"type:numeric(18,2);not null;default:0"`
	Status            ExpenseStatus `json:"status" gorm:"size:32;not null;default:Draft"`
	InvoiceNumber     string        `json:"invoice_number" gorm:"size:64"`
	InvoiceDate       *time.Time    `json:"invoice_date"`
	RequiresChargeOut bool          `json:"requires_charge_out" gorm:"not null;default:false"`
	PurchaseOrderID   uuid.UUID     `json:"purchase_order_id" gorm:"type:uuid;not null;index"`
	ExpenseDate       *time.Time    `json:"expense_date"`
	ApprovedDate      *time.Time    `json:"approved_date"`
	PaidDate          *time.Time    `json:"paid_date"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	PurchaseOrder *PurchaseOrder `json:"purchase_order,omitempty" gorm:"foreignKey:PurchaseOrderID"`
	Items         []ExpenseItem  `json:"items,omitempty" gorm:"foreignKey:ExpenseID"`
}

// ChargeOutEligible reports whether this expense may appear on a charge-out
// item: it must be flagged for charge-out and already approved or paid.
func (e Expense) ChargeOutEligible() bool {
	return e.RequiresChargeOut &&
		(e.Status == ExpenseStatusApproved || e.Status == ExpenseStatusPaid)
}

type ExpenseItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ExpenseID uuid.UUID `json:"expense_id" gorm:"type:uuid;not null;index"`
	ItemName  string    `json:"item_name" gorm:"size:200;not null"`
	Amount    float64   `json:"amount" gorm:"type:numeric(18,2);not null"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
