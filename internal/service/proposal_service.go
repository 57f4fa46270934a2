package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

// ProposalStore is the persistence surface the proposal workflow needs.
// Implemented by repository.ProposalRepository; tests substitute a fake.
type ProposalStore interface {
	List(ctx context.Context, filter repository.ProposalFilter) ([]model.BudgetProposal, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BudgetProposal, error)
	Create(ctx context.Context, proposal *model.BudgetProposal) error
	Update(ctx context.Context, proposal *model.BudgetProposal) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, comment *model.Comment) error
	ApplyTransition(ctx context.Context, t repository.ProposalTransition) error
}

// Notifier delivers a committed notification record out of band. Failures are
// the notifier's problem, never the caller's.
type Notifier interface {
	Dispatch(ctx context.Context, notification model.Notification)
}

type ProposalService struct {
	store    ProposalStore
	projects ProjectStore
	notifier Notifier
}

func NewProposalService(store ProposalStore, projects ProjectStore, notifier Notifier) *ProposalService {
	return &ProposalService{store: store, projects: projects, notifier: notifier}
}

func (s *ProposalService) List(ctx context.Context, filter repository.ProposalFilter) ([]model.BudgetProposal, error) {
	return s.store.List(ctx, filter)
}

func (s *ProposalService) Get(ctx context.Context, id uuid.UUID) (*model.BudgetProposal, error) {
	proposal, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該預算提案")
		}
		return nil, err
	}
	return proposal, nil
}

type CreateProposalInput struct {
	Title     string
	Amount    float64
	ProjectID uuid.UUID
}

func (s *ProposalService) Create(ctx context.Context, principal model.Principal, input CreateProposalInput) (*model.BudgetProposal, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	if _, err := s.projects.Get(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到指定的專案")
		}
		return nil, err
	}

	proposal := &model.BudgetProposal{
		ID:        uuid.New(),
		Title:     input.Title,
		Amount:    input.Amount,
		Status:    model.ProposalStatusDraft,
		ProjectID: input.ProjectID,
	}
	if err := s.store.Create(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

type UpdateProposalInput struct {
	ID     uuid.UUID
	Title  *string
	Amount *float64
}

func (s *ProposalService) Update(ctx context.Context, principal model.Principal, input UpdateProposalInput) (*model.BudgetProposal, error) {
	proposal, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !proposal.Editable() {
		return nil, invalid("只有草稿或需要更多資訊狀態的提案可以編輯")
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		proposal.Title = *input.Title
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
		}
		proposal.Amount = *input.Amount
	}

	if err := s.store.Update(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

// Submit moves a Draft or MoreInfoRequired proposal into PendingApproval,
// writing the audit row and the supervisor's notification in the same
// transaction as the status change.
func (s *ProposalService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.BudgetProposal, error) {
	if !principal.Can(model.ActionSubmitProposal) {
		return nil, ErrPermissionDenied
	}

	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ProposalFlow.Allowed(proposal.Status, model.ProposalStatusPendingApproval) {
		return nil, badTransition("只有草稿或需要更多資訊狀態的提案可以提交")
	}
	if proposal.Project == nil {
		return nil, notFound("找不到指定的專案")
	}

	proposal.Status = model.ProposalStatusPendingApproval

	submitter := principal.Name
	if submitter == "" {
		submitter = "專案經理"
	}
	details := fmt.Sprintf("提交預算提案「%s」", proposal.Title)
	history := &model.History{
		ID:               uuid.New(),
		Action:           model.HistoryActionSubmitted,
		Details:          &details,
		UserID:           principal.UserID,
		BudgetProposalID: proposal.ID,
	}
	notification := &model.Notification{
		ID:         uuid.New(),
		UserID:     proposal.Project.SupervisorID,
		Type:       model.NotifyProposalSubmitted,
		Title:      "新的預算提案待審批",
		Message:    fmt.Sprintf("%s 提交了預算提案「%s」，請審核。", submitter, proposal.Title),
		Link:       "/proposals/" + proposal.ID.String(),
		EntityType: model.EntityProposal,
		EntityID:   proposal.ID,
	}

	err = s.store.ApplyTransition(ctx, repository.ProposalTransition{
		Proposal:     proposal,
		History:      history,
		Notification: notification,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, *notification)
	return proposal, nil
}

type ApproveProposalInput struct {
	ID             uuid.UUID
	Action         model.ProposalStatus
	Comment        *string
	ApprovedAmount *float64
}

// Approve decides a pending proposal. On approval the granted amount is
// written onto the project and the project moves to InProgress, atomically
// with the proposal's own status change.
func (s *ProposalService) Approve(ctx context.Context, principal model.Principal, input ApproveProposalInput) (*model.BudgetProposal, error) {
	if !principal.Can(model.ActionApproveProposal) {
		return nil, ErrPermissionDenied
	}

	switch input.Action {
	case model.ProposalStatusApproved, model.ProposalStatusRejected, model.ProposalStatusMoreInfoRequired:
	default:
		return nil, fmt.Errorf("%w: invalid action %q", ErrInvalidInput, input.Action)
	}

	proposal, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !model.ProposalFlow.Allowed(proposal.Status, input.Action) {
		return nil, badTransition("只有待審批狀態的提案可以進行審批")
	}
	if proposal.Project == nil {
		return nil, notFound("找不到指定的專案")
	}

	now := time.Now()
	proposal.Status = input.Action

	var project *model.Project
	var historyAction string
	var notification *model.Notification

	switch input.Action {
	case model.ProposalStatusApproved:
		amount := proposal.Amount
		if input.ApprovedAmount != nil {
			amount = *input.ApprovedAmount
		}
		proposal.ApprovedAmount = &amount
		proposal.ApprovedBy = &principal.UserID
		proposal.ApprovedAt = &now

		project = proposal.Project
		project.ApprovedBudget = &amount
		project.Status = model.ProjectStatusInProgress

		historyAction = model.HistoryActionApproved
		message := fmt.Sprintf("您的預算提案「%s」已被批准", proposal.Title)
		if input.ApprovedAmount != nil {
			message += fmt.Sprintf("，批准金額：$%s", formatAmount(*input.ApprovedAmount))
		}
		message += "。"
		notification = s.decisionNotification(proposal, model.NotifyProposalApproved, "預算提案已批准", message)

	case model.ProposalStatusRejected:
		proposal.RejectionReason = input.Comment

		historyAction = model.HistoryActionRejected
		message := fmt.Sprintf("您的預算提案「%s」已被駁回。", proposal.Title)
		if input.Comment != nil && *input.Comment != "" {
			message += fmt.Sprintf("原因：%s", *input.Comment)
		}
		notification = s.decisionNotification(proposal, model.NotifyProposalRejected, "預算提案已駁回", message)

	case model.ProposalStatusMoreInfoRequired:
		historyAction = model.HistoryActionMoreInfoRequired
		message := fmt.Sprintf("您的預算提案「%s」需要補充更多資訊。", proposal.Title)
		if input.Comment != nil && *input.Comment != "" {
			message += fmt.Sprintf("說明：%s", *input.Comment)
		}
		notification = s.decisionNotification(proposal, model.NotifyProposalMoreInfo, "預算提案需要補充資訊", message)
	}

	history := &model.History{
		ID:               uuid.New(),
		Action:           historyAction,
		Details:          input.Comment,
		UserID:           principal.UserID,
		BudgetProposalID: proposal.ID,
	}

	var comment *model.Comment
	if input.Comment != nil && *input.Comment != "" {
		comment = &model.Comment{
			ID:               uuid.New(),
			Content:          *input.Comment,
			UserID:           principal.UserID,
			BudgetProposalID: proposal.ID,
		}
	}

	err = s.store.ApplyTransition(ctx, repository.ProposalTransition{
		Proposal:     proposal,
		Project:      project,
		History:      history,
		Comment:      comment,
		Notification: notification,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, *notification)
	return proposal, nil
}

func (s *ProposalService) decisionNotification(proposal *model.BudgetProposal, typ model.NotificationType, title, message string) *model.Notification {
	return &model.Notification{
		ID:         uuid.New(),
		UserID:     proposal.Project.ManagerID,
		Type:       typ,
		Title:      title,
		Message:    message,
		Link:       "/proposals/" + proposal.ID.String(),
		EntityType: model.EntityProposal,
		EntityID:   proposal.ID,
	}
}

// Delete removes a Draft proposal. Only the owning project manager may do it,
// unless the caller is an admin.
func (s *ProposalService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if proposal.Status != model.ProposalStatusDraft {
		return forbidden("只有草稿狀態的提案可以刪除")
	}
	if !principal.IsAdmin() && proposal.Project != nil && proposal.Project.ManagerID != principal.UserID {
		return ErrPermissionDenied
	}
	return s.store.Delete(ctx, id)
}

func (s *ProposalService) AddComment(ctx context.Context, principal model.Principal, id uuid.UUID, content string) (*model.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:               uuid.New(),
		Content:          content,
		UserID:           principal.UserID,
		BudgetProposalID: proposal.ID,
	}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

type MeetingNotesInput struct {
	ID           uuid.UUID
	MeetingDate  *time.Time
	MeetingNotes *string
	PresentedBy  *string
}

// UpdateMeetingNotes records the review meeting metadata on a proposal.
func (s *ProposalService) UpdateMeetingNotes(ctx context.Context, principal model.Principal, input MeetingNotesInput) (*model.BudgetProposal, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}
	proposal, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.MeetingDate != nil {
		proposal.MeetingDate = input.MeetingDate
	}
	if input.MeetingNotes != nil {
		proposal.MeetingNotes = input.MeetingNotes
	}
	if input.PresentedBy != nil {
		proposal.PresentedBy = input.PresentedBy
	}

	if err := s.store.Update(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}
