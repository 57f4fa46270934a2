package model

import (
	"time"

	"github.com/google/uuid"
)

// OMExpenseCategory is the managed list of operations-and-maintenance expense
// categories. Codes are uppercase identifiers and stay unique.
type OMExpenseCategory struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Code        string    `json:"code" gorm:"size:20;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"size:500"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (OMExpenseCategory) TableName() string { return "om_expense_categories" }

// OMExpense is a recurring O&M cost header for one financial year.
// TotalBudgetAmount and TotalActualSpent always equal the sums over the
// items; every item or monthly write recomputes them in the same
// transaction.
type OMExpense struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string     `json:"name" gorm:"size:200;not null"`
	Description       string     `json:"description" gorm:"type:text"`
	FinancialYear     int        `json:"financial_year" gorm:"not null;index"`
	Category          string     `json:"category" gorm:"size:100;not null;index"`
	TotalBudgetAmount float64    `json:"total_budget_amount" gorm:"type:numeric(18,2);not null;default:0"`
	TotalActualSpent  float64    `json:"total_actual_spent" gorm:"type:numeric(18,2);not null;default:0"`
	YoYGrowthRate     *float64   `json:"yoy_growth_rate" gorm:"column:yoy_growth_rate;type:numeric(9,4)"`
	VendorID          *uuid.UUID `json:"vendor_id" gorm:"type:uuid"`
	SourceExpenseID   *uuid.UUID `json:"source_expense_id" gorm:"type:uuid;index"`
	DefaultOpCoID     *uuid.UUID `json:"default_op_co_id" gorm:"type:uuid"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Vendor        *Vendor           `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	SourceExpense *Expense          `json:"source_expense,omitempty" gorm:"foreignKey:SourceExpenseID"`
	DefaultOpCo   *OperatingCompany `json:"default_op_co,omitempty" gorm:"foreignKey:DefaultOpCoID"`
	Items         []OMExpenseItem   `json:"items,omitempty" gorm:"foreignKey:OMExpenseID"`
}

func (OMExpense) TableName() string { return "om_expenses" }

// OMExpenseItem is one line of an O&M expense, billed to a single operating
// company. ActualSpent always equals the sum of its monthly records.
type OMExpenseItem struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OMExpenseID  uuid.UUID  `json:"om_expense_id" gorm:"column:om_expense_id;type:uuid;not null;index"`
	Name         string     `json:"name" gorm:"size:200;not null"`
	Description  string     `json:"description" gorm:"type:text"`
	SortOrder    int        `json:"sort_order" gorm:"not null;default:0"`
	BudgetAmount float64    `json:"budget_amount" gorm:"type:numeric(18,2);not null"`
	ActualSpent  float64    `json:"actual_spent" gorm:"type:numeric(18,2);not null;default:0"`
	LastFYActual *float64   `json:"last_fy_actual" gorm:"column:last_fy_actual;type:numeric(18,2)"`
	OpCoID       uuid.UUID  `json:"op_co_id" gorm:"type:uuid;not null"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Ongoing      bool       `json:"ongoing" gorm:"not null;default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	OpCo    *OperatingCompany  `json:"op_co,omitempty" gorm:"foreignKey:OpCoID"`
	Monthly []OMExpenseMonthly `json:"monthly,omitempty" gorm:"foreignKey:ItemID"`
}

func (OMExpenseItem) TableName() string { return "om_expense_items" }

// OMExpenseMonthly records the actual spend of one item in one month (1-12).
// Every item keeps exactly twelve rows, created with the item.
type OMExpenseMonthly struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ItemID       uuid.UUID `json:"item_id" gorm:"column:om_expense_item_id;type:uuid;not null;uniqueIndex:om_monthly_item_month"`
	Month        int       `json:"month" gorm:"not null;uniqueIndex:om_monthly_item_month"`
	ActualAmount float64   `json:"actual_amount" gorm:"type:numeric(18,2);not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OMExpenseMonthly) TableName() string { return "om_expense_monthlies" }

// MonthlyTotal is one bucket of the per-year monthly spend aggregation.
type MonthlyTotal struct {
	Month       int     `json:"month"`
	TotalAmount float64 `json:"total_amount"`
}

// YoYGrowth is the result of comparing an O&M expense against the previous
// financial year's record of the same name, category and year.
type YoYGrowth struct {
	GrowthRate     *float64 `json:"yoy_growth_rate"`
	Message        string   `json:"message,omitempty"`
	CurrentYear    int      `json:"current_year"`
	CurrentAmount  float64  `json:"current_amount"`
	PreviousYear   *int     `json:"previous_year"`
	PreviousAmount *float64 `json:"previous_amount"`
}
