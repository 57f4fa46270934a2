package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/workflow"
)

// OperatingCompany is a group company that IT costs are charged out to.
type OperatingCompany struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChargeOutStatus string

const (
	ChargeOutStatusDraft     ChargeOutStatus = "Draft"
	ChargeOutStatusSubmitted ChargeOutStatus = "Submitted"
	ChargeOutStatusConfirmed ChargeOutStatus = "Confirmed"
	ChargeOutStatusPaid      ChargeOutStatus = "Paid"
	ChargeOutStatusRejected  ChargeOutStatus = "Rejected"
)

var ChargeOutFlow = workflow.NewMachine("ChargeOut", map[ChargeOutStatus][]ChargeOutStatus{
	ChargeOutStatusDraft:     {ChargeOutStatusSubmitted},
	ChargeOutStatusSubmitted: {ChargeOutStatusConfirmed, ChargeOutStatusRejected},
	ChargeOutStatusConfirmed: {ChargeOutStatusPaid},
})

// ChargeOut recharges approved expenses of a project to an operating company.
// TotalAmount always equals the sum of item amounts; every item mutation
// recomputes it in the same transaction.
type ChargeOut struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string          `json:"name" gorm:"size:200;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	DebitNoteNumber *string         `json:"debit_note_number" gorm:"size:64"`
	IssueDate       *time.Time      `json:"issue_date"`
	PaymentDate     *time.Time      `json:"payment_date"`
	Status          ChargeOutStatus `json:"status" gorm:"size:32;not null;default:Draft"`
	TotalAmount     float64         `json:"total_amount" gorm:"type:numeric(18,2);not null;default:0"`
	ProjectID       uuid.UUID       `json:"project_id" gorm:"type:uuid;not null;index"`
	OpCoID          uuid.UUID       `json:"op_co_id" gorm:"type:uuid;not null;index"`
	ConfirmedBy     *uuid.UUID      `json:"confirmed_by" gorm:"type:uuid"`
	ConfirmedAt     *time.Time      `json:"confirmed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Project   *Project          `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	OpCo      *OperatingCompany `json:"op_co,omitempty" gorm:"foreignKey:OpCoID"`
	Confirmer *User             `json:"confirmer,omitempty" gorm:"foreignKey:ConfirmedBy"`
	Items     []ChargeOutItem   `json:"items,omitempty" gorm:"foreignKey:ChargeOutID;constraint:OnDelete:CASCADE"`
}

func (c ChargeOut) Deletable() bool {
	return c.Status == ChargeOutStatusDraft || c.Status == ChargeOutStatusRejected
}

type ChargeOutItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ChargeOutID uuid.UUID `json:"charge_out_id" gorm:"type:uuid;not null;index"`
	ExpenseID   uuid.UUID `json:"expense_id" gorm:"type:uuid;not null;index"`
	Amount      float64   `json:"amount" gorm:"type:numeric(18,2);not null"`
	Description string    `json:"description" gorm:"type:text"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Expense *Expense `json:"expense,omitempty" gorm:"foreignKey:ExpenseID"`
}
