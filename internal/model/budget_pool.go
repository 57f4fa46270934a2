package model

import (
	"time"

	"github.com/google/uuid"
)

// BudgetPool is the yearly funding envelope projects draw from. UsedAmount is
// a materialized aggregate: it only moves inside the same transaction as the
// expense approval that consumes it.
type BudgetPool struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"size:200;not null"`
	TotalAmount   float64   `json:"total_amount" gorm:"type:numeric(18,2);not null"`
	UsedAmount    float64   `json:"used_amount" gorm:"type:numeric(18,2);not null;default:0"`
	FinancialYear int       `json:"financial_year" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Projects []Project `json:"projects,omitempty" gorm:"foreignKey:BudgetPoolID"`
}

func (p BudgetPool) RemainingAmount() float64 {
	return p.TotalAmount - p.UsedAmount
}
