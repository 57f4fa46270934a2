package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyProposalSubmitted NotificationType = "PROPOSAL_SUBMITTED"
	NotifyProposalApproved  NotificationType = "PROPOSAL_APPROVED"
	NotifyProposalRejected  NotificationType = "PROPOSAL_REJECTED"
	NotifyProposalMoreInfo  NotificationType = "PROPOSAL_MORE_INFO"
	NotifyExpenseSubmitted  NotificationType = "EXPENSE_SUBMITTED"
	NotifyExpenseApproved   NotificationType = "EXPENSE_APPROVED"
	NotifyExpenseRejected   NotificationType = "EXPENSE_REJECTED"
)

type EntityType string

const (
	EntityProposal EntityType = "PROPOSAL"
	EntityExpense  EntityType = "EXPENSE"
	EntityProject  EntityType = "PROJECT"
)

// Notification records are inserted inside the transaction that performs the
// triggering state change; email delivery happens after commit and is
// best-effort.
type Notification struct {
	ID         uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type       NotificationType `json:"type" gorm:"size:64;not null"`
	Title      string           `json:"title" gorm:"size:200;not null"`
	Message    string           `json:"message" gorm:"type:text;not null"`
	Link       string           `json:"link" gorm:"size:512"`
	EntityType EntityType       `json:"entity_type" gorm:"size:32;not null"`
	EntityID   uuid.UUID        `json:"entity_id" gorm:"type:uuid;not null"`
	IsRead     bool             `json:"is_read" gorm:"not null;default:false"`
	EmailSent  bool             `json:"email_sent" gorm:"not null;default:false"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
