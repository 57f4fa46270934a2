package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/workflow"
)

type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "Draft"
	ProjectStatusInProgress ProjectStatus = "InProgress"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusArchived   ProjectStatus = "Archived"
)

var ProjectFlow = workflow.NewMachine("Project", map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:      {ProjectStatusInProgress, ProjectStatusArchived},
	ProjectStatusInProgress: {ProjectStatusCompleted, ProjectStatusArchived},
	ProjectStatusCompleted:  {ProjectStatusArchived},
})

type Project struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string        `json:"name" gorm:"size:200;not null"`
	Description     string        `json:"description" gorm:"type:text"`
	Status          ProjectStatus `json:"status" gorm:"size:32;not null;default:Draft"`
	ManagerID       uuid.UUID     `json:"manager_id" gorm:"type:uuid;not null;index"`
	SupervisorID    uuid.UUID     `json:"supervisor_id" gorm:"type:uuid;not null;index"`
	BudgetPoolID    uuid.UUID     `json:"budget_pool_id" gorm:"type:uuid;not null;index"`
	RequestedBudget float64       `json:"requested_budget" gorm:"type:numeric(18,2);default:0"`
	ApprovedBudget  *float64      `json:"approved_budget" gorm:"type:numeric(18,2)"`
	StartDate       *time.Time    `json:"start_date"`
	EndDate         *time.Time    `json:"end_date"`
	ChargeOutDate   *time.Time    `json:"charge_out_date"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Manager        *User            `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	Supervisor     *User            `json:"supervisor,omitempty" gorm:"foreignKey:SupervisorID"`
	BudgetPool     *BudgetPool      `json:"budget_pool,omitempty" gorm:"foreignKey:BudgetPoolID"`
	Proposals      []BudgetProposal `json:"proposals,omitempty" gorm:"foreignKey:ProjectID"`
	PurchaseOrders []PurchaseOrder  `json:"purchase_orders,omitempty" gorm:"foreignKey:ProjectID"`
}

// ProjectBudgetUsage compares the approved budget against committed (PO) and
// actually paid amounts. Recomputed from source rows on read.
type ProjectBudgetUsage struct {
	ProjectID      uuid.UUID `json:"project_id"`
	ApprovedBudget float64   `json:"approved_budget"`
	CommittedPO    float64   `json:"committed_po"`
	PaidExpenses   float64   `json:"paid_expenses"`
	Remaining      float64   `json:"remaining"`
}
