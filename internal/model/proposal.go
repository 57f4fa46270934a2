package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/itops-hk/itpm-service/internal/workflow"
)

type ProposalStatus string

const (
	ProposalStatusDraft            ProposalStatus = "Draft"
	ProposalStatusPendingApproval  ProposalStatus = "PendingApproval"
	ProposalStatusApproved         ProposalStatus = "Approved"
	ProposalStatusRejected         ProposalStatus = "Rejected"
	ProposalStatusMoreInfoRequired ProposalStatus = "MoreInfoRequired"
)

var ProposalFlow = workflow.NewMachine("BudgetProposal", map[ProposalStatus][]ProposalStatus{
	ProposalStatusDraft:            {ProposalStatusPendingApproval},
	ProposalStatusMoreInfoRequired: {ProposalStatusPendingApproval},
	ProposalStatusPendingApproval:  {ProposalStatusApproved, ProposalStatusRejected, ProposalStatusMoreInfoRequired},
})

// BudgetProposal asks for funding on a project. Approval writes the granted
// amount back onto the project inside the same transaction.
type BudgetProposal struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title           string         `json:"title" gorm:"size:200;not null"`
	Amount          float64        `json:"amount" gorm:"type:numeric(18,2);not null"`
	Status          ProposalStatus `json:"status" gorm:"size:32;not null;default:Draft"`
	ProjectID       uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	ApprovedAmount  *float64       `json:"approved_amount" gorm:"type:numeric(18,2)"`
	ApprovedBy      *uuid.UUID     `json:"approved_by" gorm:"type:uuid"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	RejectionReason *string        `json:"rejection_reason" gorm:"type:text"`
	MeetingDate     *time.Time     `json:"meeting_date"`
	MeetingNotes    *string        `json:"meeting_notes" gorm:"type:text"`
	PresentedBy     *string        `json:"presented_by" gorm:"size:128"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Project      *Project  `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Comments     []Comment `json:"comments,omitempty" gorm:"foreignKey:BudgetProposalID"`
	HistoryItems []History `json:"history_items,omitempty" gorm:"foreignKey:BudgetProposalID"`
}

func (p BudgetProposal) Editable() bool {
	return p.Status == ProposalStatusDraft || p.Status == ProposalStatusMoreInfoRequired
}

type Comment struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Content          string    `json:"content" gorm:"type:text;not null"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	BudgetProposalID uuid.UUID `json:"budget_proposal_id" gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// History is the append-only audit trail of proposal actions. Rows are only
// ever inserted.
type History struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Action           string    `json:"action" gorm:"size:64;not null"`
	Details          *string   `json:"details" gorm:"type:text"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	BudgetProposalID uuid.UUID `json:"budget_proposal_id" gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

const (
	HistoryActionSubmitted        = "SUBMITTED"
	HistoryActionApproved         = "APPROVED"
	HistoryActionRejected         = "REJECTED"
	HistoryActionMoreInfoRequired = "MORE_INFO_REQUIRED"
)
