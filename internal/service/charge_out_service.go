package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

type ChargeOutStore interface {
	List(ctx context.Context, filter repository.ChargeOutFilter) ([]model.ChargeOut, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ChargeOut, error)
	CreateWithItems(ctx context.Context, chargeOut *model.ChargeOut, items []model.ChargeOutItem) error
	Update(ctx context.Context, chargeOut *model.ChargeOut) error
	ReplaceItems(ctx context.Context, chargeOut *model.ChargeOut, deleteIDs []uuid.UUID, upserts []model.ChargeOutItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	EligibleExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error)
	ExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Expense, error)
}

type OperatingCompanyStore interface {
	GetOperatingCompany(ctx context.Context, id uuid.UUID) (*model.OperatingCompany, error)
}

// PDFGenerator renders the debit note document for a charge-out.
type PDFGenerator interface {
	DebitNote(chargeOut model.ChargeOut) ([]byte, error)
}

type ChargeOutService struct {
	store     ChargeOutStore
	projects  ProjectStore
	companies OperatingCompanyStore
	pdf       PDFGenerator
}

func NewChargeOutService(store ChargeOutStore, projects ProjectStore, companies OperatingCompanyStore, pdf PDFGenerator) *ChargeOutService {
	return &ChargeOutService{store: store, projects: projects, companies: companies, pdf: pdf}
}

type ChargeOutPage struct {
	ChargeOuts []model.ChargeOut `json:"charge_outs"`
	Total      int64             `json:"total"`
}

func (s *ChargeOutService) List(ctx context.Context, filter repository.ChargeOutFilter) (*ChargeOutPage, error) {
	chargeOuts, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ChargeOutPage{ChargeOuts: chargeOuts, Total: total}, nil
}

func (s *ChargeOutService) Get(ctx context.Context, id uuid.UUID) (*model.ChargeOut, error) {
	chargeOut, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ChargeOut 不存在")
		}
		return nil, err
	}
	return chargeOut, nil
}

type ChargeOutItemInput struct {
	ID          *uuid.UUID
	ExpenseID   uuid.UUID
	Amount      float64
	Description string
	Delete      bool
}

type CreateChargeOutInput struct {
	Name        string
	Description string
	ProjectID   uuid.UUID
	OpCoID      uuid.UUID
	Items       []ChargeOutItemInput
}

// Create builds the charge-out header and its items in one transaction. The
// header total is the item sum from the start.
func (s *ChargeOutService) Create(ctx context.Context, principal model.Principal, input CreateChargeOutInput) (*model.ChargeOut, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個費用項目")
	}

	if _, err := s.projects.Get(ctx, input.ProjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(fmt.Sprintf("項目不存在 (ID: %s)", input.ProjectID))
		}
		return nil, err
	}
	if _, err := s.companies.GetOperatingCompany(ctx, input.OpCoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(fmt.Sprintf("OpCo 不存在 (ID: %s)", input.OpCoID))
		}
		return nil, err
	}

	if err := s.validateItemExpenses(ctx, input.Items); err != nil {
		return nil, err
	}

	total := 0.0
	items := make([]model.ChargeOutItem, 0, len(input.Items))
	for i, item := range input.Items {
		if item.Amount <= 0 {
			return nil, fmt.Errorf("%w: item amount must be positive", ErrInvalidInput)
		}
		items = append(items, model.ChargeOutItem{
			ID:          uuid.New(),
			ExpenseID:   item.ExpenseID,
			Amount:      item.Amount,
			Description: item.Description,
			SortOrder:   i,
		})
		total += item.Amount
	}

	chargeOut := &model.ChargeOut{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Status:      model.ChargeOutStatusDraft,
		TotalAmount: total,
		ProjectID:   input.ProjectID,
		OpCoID:      input.OpCoID,
	}
	if err := s.store.CreateWithItems(ctx, chargeOut, items); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

type UpdateChargeOutInput struct {
	ID              uuid.UUID
	Name            *string
	Description     *string
	DebitNoteNumber *string
	IssueDate       *time.Time
	PaymentDate     *time.Time
}

func (s *ChargeOutService) Update(ctx context.Context, principal model.Principal, input UpdateChargeOutInput) (*model.ChargeOut, error) {
	chargeOut, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if chargeOut.Status != model.ChargeOutStatusDraft {
		return nil, invalid(fmt.Sprintf("只有草稿狀態可以編輯（當前狀態：%s）", chargeOut.Status))
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		chargeOut.Name = *input.Name
	}
	if input.Description != nil {
		chargeOut.Description = *input.Description
	}
	if input.DebitNoteNumber != nil {
		chargeOut.DebitNoteNumber = input.DebitNoteNumber
	}
	if input.IssueDate != nil {
		chargeOut.IssueDate = input.IssueDate
	}
	if input.PaymentDate != nil {
		chargeOut.PaymentDate = input.PaymentDate
	}

	if err := s.store.Update(ctx, chargeOut); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

// UpdateItems applies a full-replace batch of item edits. Rows flagged for
// deletion go, rows with an id are updated, the rest are created, and the
// parent total is recomputed from what survives, all in one transaction.
func (s *ChargeOutService) UpdateItems(ctx context.Context, principal model.Principal, id uuid.UUID, inputs []ChargeOutItemInput) (*model.ChargeOut, error) {
	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if chargeOut.Status != model.ChargeOutStatusDraft {
		return nil, invalid(fmt.Sprintf("只有草稿狀態可以編輯明細（當前狀態：%s）", chargeOut.Status))
	}

	var kept []ChargeOutItemInput
	var deleteIDs []uuid.UUID
	for _, input := range inputs {
		if input.Delete {
			if input.ID != nil {
				deleteIDs = append(deleteIDs, *input.ID)
			}
			continue
		}
		kept = append(kept, input)
	}

	if err := s.validateItemExpenses(ctx, kept); err != nil {
		return nil, err
	}

	upserts := make([]model.ChargeOutItem, 0, len(kept))
	for i, input := range kept {
		if input.Amount <= 0 {
			return nil, fmt.Errorf("%w: item amount must be positive", ErrInvalidInput)
		}
		itemID := uuid.New()
		if input.ID != nil {
			itemID = *input.ID
		}
		upserts = append(upserts, model.ChargeOutItem{
			ID:          itemID,
			ChargeOutID: chargeOut.ID,
			ExpenseID:   input.ExpenseID,
			Amount:      input.Amount,
			Description: input.Description,
			SortOrder:   i,
		})
	}

	if err := s.store.ReplaceItems(ctx, chargeOut, deleteIDs, upserts); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ChargeOutService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ChargeOut, error) {
	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ChargeOutFlow.Allowed(chargeOut.Status, model.ChargeOutStatusSubmitted) {
		return nil, badTransition(fmt.Sprintf("只有草稿狀態可以提交（當前狀態：%s）", chargeOut.Status))
	}
	if len(chargeOut.Items) == 0 {
		return nil, invalid("至少需要一個費用項目才能提交")
	}

	chargeOut.Status = model.ChargeOutStatusSubmitted
	if err := s.store.Update(ctx, chargeOut); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

func (s *ChargeOutService) Confirm(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ChargeOut, error) {
	if !principal.Can(model.ActionConfirmChargeOut) {
		return nil, ErrPermissionDenied
	}

	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ChargeOutFlow.Allowed(chargeOut.Status, model.ChargeOutStatusConfirmed) {
		return nil, badTransition(fmt.Sprintf("只有已提交狀態可以確認（當前狀態：%s）", chargeOut.Status))
	}

	now := time.Now()
	chargeOut.Status = model.ChargeOutStatusConfirmed
	chargeOut.ConfirmedBy = &principal.UserID
	chargeOut.ConfirmedAt = &now

	if err := s.store.Update(ctx, chargeOut); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

func (s *ChargeOutService) Reject(ctx context.Context, principal model.Principal, id uuid.UUID, reason string) (*model.ChargeOut, error) {
	if !principal.Can(model.ActionRejectChargeOut) {
		return nil, ErrPermissionDenied
	}

	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ChargeOutFlow.Allowed(chargeOut.Status, model.ChargeOutStatusRejected) {
		return nil, badTransition(fmt.Sprintf("只有已提交狀態可以拒絕（當前狀態：%s）", chargeOut.Status))
	}

	chargeOut.Status = model.ChargeOutStatusRejected
	if reason != "" {
		chargeOut.Description = fmt.Sprintf("%s\n\n拒絕原因：%s", chargeOut.Description, reason)
	}

	if err := s.store.Update(ctx, chargeOut); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

func (s *ChargeOutService) MarkAsPaid(ctx context.Context, principal model.Principal, id uuid.UUID, paymentDate time.Time) (*model.ChargeOut, error) {
	if paymentDate.IsZero() {
		return nil, invalid("支付日期不能為空")
	}

	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ChargeOutFlow.Allowed(chargeOut.Status, model.ChargeOutStatusPaid) {
		return nil, badTransition(fmt.Sprintf("只有已確認狀態可以標記為已支付（當前狀態：%s）", chargeOut.Status))
	}

	chargeOut.Status = model.ChargeOutStatusPaid
	chargeOut.PaymentDate = &paymentDate

	if err := s.store.Update(ctx, chargeOut); err != nil {
		return nil, err
	}
	return chargeOut, nil
}

func (s *ChargeOutService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !chargeOut.Deletable() {
		return forbidden(fmt.Sprintf("只有草稿或已拒絕狀態可以刪除（當前狀態：%s）", chargeOut.Status))
	}
	return s.store.Delete(ctx, id)
}

func (s *ChargeOutService) EligibleExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	return s.store.EligibleExpenses(ctx, projectID)
}

func (s *ChargeOutService) DebitNotePDF(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	chargeOut, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	content, err := s.pdf.DebitNote(*chargeOut)
	if err != nil {
		return "", nil, err
	}

	name := chargeOut.ID.String()
	if chargeOut.DebitNoteNumber != nil && *chargeOut.DebitNoteNumber != "" {
		name = *chargeOut.DebitNoteNumber
	}
	return fmt.Sprintf("debit-note-%s.pdf", name), content, nil
}

// validateItemExpenses rejects the batch when any referenced expense is
// missing or not flagged for charge-out.
func (s *ChargeOutService) validateItemExpenses(ctx context.Context, items []ChargeOutItemInput) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ExpenseID == uuid.Nil {
			return fmt.Errorf("%w: expense id is required", ErrInvalidInput)
		}
		ids = append(ids, item.ExpenseID)
	}

	expenses, err := s.store.ExpensesByIDs(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]model.Expense, len(expenses))
	for _, expense := range expenses {
		byID[expense.ID] = expense
	}

	var notFlagged []string
	for _, id := range ids {
		expense, ok := byID[id]
		if !ok {
			return notFound("部分費用記錄不存在")
		}
		if !expense.RequiresChargeOut {
			notFlagged = append(notFlagged, expense.Name)
		}
	}
	if len(notFlagged) > 0 {
		return invalid(fmt.Sprintf("以下費用未標記為需要轉嫁：%s", strings.Join(notFlagged, "、")))
	}
	return nil
}
