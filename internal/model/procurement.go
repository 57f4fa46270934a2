package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/workflow"
)

type Vendor struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"size:200;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:128"`
	ContactEmail  string    `json:"contact_email" gorm:"size:256"`
	Phone         string    `json:"phone" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Quote struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FilePath   string    `json:"file_path" gorm:"size:512"`
	UploadDate time.Time `json:"upload_date"`
	Amount     float64   `json:"amount" gorm:"type:numeric(18,2);not null"`
	VendorID   uuid.UUID `json:"vendor_id" gorm:"type:uuid;not null;index"`
	ProjectID  uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Vendor *Vendor `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

type POStatus string

const (
	POStatusDraft     POStatus = "Draft"
	POStatusSubmitted POStatus = "Submitted"
	POStatusApproved  POStatus = "Approved"
)

var PurchaseOrderFlow = workflow.NewMachine("PurchaseOrder", map[POStatus][]POStatus{
	POStatusDraft:     {POStatusSubmitted},
	POStatusSubmitted: {POStatusApproved},
})

type PurchaseOrder struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PONumber     string     `json:"po_number" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	Description  string     `json:"description" gorm:"type:text"`
	Date         time.Time  `json:"date"`
	TotalAmount  float64    `json:"total_amount" gorm:"type:numeric(18,2);not null;default:0"`
	Status       POStatus   `json:"status" gorm:"size:32;not null;default:Draft"`
	ProjectID    uuid.UUID  `json:"project_id" gorm:"type:uuid;not null;index"`
	VendorID     uuid.UUID  `json:"vendor_id" gorm:"type:uuid;not null;index"`
	QuoteID      *uuid.UUID `json:"quote_id" gorm:"type:uuid"`
	ApprovedDate *time.Time `json:"approved_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Project  *Project            `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Vendor   *Vendor             `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Quote    *Quote              `json:"quote,omitempty" gorm:"foreignKey:QuoteID"`
	Items    []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID"`
	Expenses []Expense           `json:"expenses,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

type PurchaseOrderItem struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id" gorm:"type:uuid;not null;index"`
	ItemName        string    `json:"item_name" gorm:"size:200;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	Quantity        float64   `json:"quantity" gorm:"type:numeric(12,2);not null"`
	UnitPrice       float64   `json:"unit_price" gorm:"type:numeric(18,4);not null"`
	Subtotal        float64   `json:"subtotal" gorm:"type:numeric(18,2);not null"`
	SortOrder       int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
