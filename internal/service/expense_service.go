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

type ExpenseStore interface {
	List(ctx context.Context, filter repository.ExpenseFilter) ([]model.Expense, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	ItemCount(ctx context.Context, expenseID uuid.UUID) (int64, error)
	CreateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error
	UpdateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	ApplyTransition(ctx context.Context, t repository.ExpenseTransition) error
}

type ExpenseService struct {
	store    ExpenseStore
	orders   PurchaseOrderStore
	notifier Notifier
}

func NewExpenseService(store ExpenseStore, orders PurchaseOrderStore, notifier Notifier) *ExpenseService {
	return &ExpenseService{store: store, orders: orders, notifier: notifier}
}

type ExpensePage struct {
	Expenses []model.Expense `json:"expenses"`
	Total    int64           `json:"total"`
}

func (s *ExpenseService) List(ctx context.Context, filter repository.ExpenseFilter) (*ExpensePage, error) {
	expenses, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ExpensePage{Expenses: expenses, Total: total}, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	expense, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該費用記錄")
		}
		return nil, err
	}
	return expense, nil
}

type ExpenseItemInput struct {
	ItemName string
	Amount   float64
}

type CreateExpenseInput struct {
	Name              string
	Description       string
	PurchaseOrderID   uuid.UUID
	InvoiceNumber     string
	InvoiceDate       *time.Time
	ExpenseDate       *time.Time
	RequiresChargeOut bool
	Items             []ExpenseItemInput
}

func (s *ExpenseService) Create(ctx context.Context, principal model.Principal, input CreateExpenseInput) (*model.Expense, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個費用項目")
	}

	if _, err := s.orders.Get(ctx, input.PurchaseOrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到指定的採購單")
		}
		return nil, err
	}

	items, total, err := buildExpenseItems(input.Items)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		ID:                uuid.New(),
		Name:              input.Name,
		Description:       input.Description,
		TotalAmount:       total,
		Status:            model.ExpenseStatusDraft,
		InvoiceNumber:     input.InvoiceNumber,
		InvoiceDate:       input.InvoiceDate,
		ExpenseDate:       input.ExpenseDate,
		RequiresChargeOut: input.RequiresChargeOut,
		PurchaseOrderID:   input.PurchaseOrderID,
	}
	if err := s.store.CreateWithItems(ctx, expense, items); err != nil {
		return nil, err
	}
	return expense, nil
}

type UpdateExpenseInput struct {
	ID                uuid.UUID
	Name              *string
	Description       *string
	InvoiceNumber     *string
	InvoiceDate       *time.Time
	ExpenseDate       *time.Time
	RequiresChargeOut *bool
	Items             []ExpenseItemInput
}

func (s *ExpenseService) Update(ctx context.Context, principal model.Principal, input UpdateExpenseInput) (*model.Expense, error) {
	expense, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if expense.Status != model.ExpenseStatusDraft {
		return nil, invalid("只有草稿狀態的費用才能修改")
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個費用項目")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		expense.Name = *input.Name
	}
	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.InvoiceNumber != nil {
		expense.InvoiceNumber = *input.InvoiceNumber
	}
	if input.InvoiceDate != nil {
		expense.InvoiceDate = input.InvoiceDate
	}
	if input.ExpenseDate != nil {
		expense.ExpenseDate = input.ExpenseDate
	}
	if input.RequiresChargeOut != nil {
		expense.RequiresChargeOut = *input.RequiresChargeOut
	}

	items, total, err := buildExpenseItems(input.Items)
	if err != nil {
		return nil, err
	}
	expense.TotalAmount = total

	if err := s.store.UpdateWithItems(ctx, expense, items); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	expense, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if expense.Status != model.ExpenseStatusDraft {
		return forbidden("只有草稿狀態的費用才能刪除")
	}
	return s.store.Delete(ctx, id)
}

// Submit sends a draft expense to the project's supervisor for approval.
func (s *ExpenseService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Expense, error) {
	if !principal.Can(model.ActionSubmitExpense) {
		return nil, ErrPermissionDenied
	}

	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ExpenseFlow.Allowed(expense.Status, model.ExpenseStatusSubmitted) {
		return nil, badTransition("只有草稿狀態的費用才能提交審批")
	}
	itemCount, err := s.store.ItemCount(ctx, expense.ID)
	if err != nil {
		return nil, err
	}
	if itemCount == 0 {
		return nil, invalid("費用記錄至少需要一個費用項目才能提交")
	}

	project := expenseProject(expense)
	if project == nil {
		return nil, notFound("找不到指定的專案")
	}

	submitter := principal.Name
	if submitter == "" {
		submitter = "專案經理"
	}

	expense.Status = model.ExpenseStatusSubmitted
	notification := &model.Notification{
		ID:         uuid.New(),
		UserID:     project.SupervisorID,
		Type:       model.NotifyExpenseSubmitted,
		Title:      "新的費用待審批",
		Message:    fmt.Sprintf("%s 提交了金額為 NT$ %s 的費用記錄，請審核。", submitter, formatAmount(expense.TotalAmount)),
		Link:       "/expenses/" + expense.ID.String(),
		EntityType: model.EntityExpense,
		EntityID:   expense.ID,
	}

	err = s.store.ApplyTransition(ctx, repository.ExpenseTransition{
		Expense:      expense,
		Notification: notification,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, *notification)
	return expense, nil
}

// Approve moves a submitted expense to Approved and deducts its total from
// the project's budget pool inside the same transaction. The remaining-funds
// check runs against the loaded pool row before the write.
func (s *ExpenseService) Approve(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Expense, error) {
	if !principal.Can(model.ActionApproveExpense) {
		return nil, ErrPermissionDenied
	}

	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ExpenseFlow.Allowed(expense.Status, model.ExpenseStatusApproved) {
		return nil, badTransition("只有已提交審批狀態的費用才能批准")
	}

	project := expenseProject(expense)
	if project == nil {
		return nil, notFound("找不到指定的專案")
	}
	pool := project.BudgetPool
	if pool == nil {
		return nil, notFound("找不到該預算池")
	}
	if pool.UsedAmount+expense.TotalAmount > pool.TotalAmount {
		return nil, insufficientBudget(fmt.Sprintf(
			"預算池餘額不足。總預算: %s，已使用: %s，需要: %s",
			formatAmount(pool.TotalAmount), formatAmount(pool.UsedAmount), formatAmount(expense.TotalAmount),
		))
	}

	now := time.Now()
	expense.Status = model.ExpenseStatusApproved
	expense.ApprovedDate = &now

	notification := &model.Notification{
		ID:         uuid.New(),
		UserID:     project.ManagerID,
		Type:       model.NotifyExpenseApproved,
		Title:      "費用已批准",
		Message:    fmt.Sprintf("您的費用記錄（金額 NT$ %s）已被批准並從預算池扣款。", formatAmount(expense.TotalAmount)),
		Link:       "/expenses/" + expense.ID.String(),
		EntityType: model.EntityExpense,
		EntityID:   expense.ID,
	}

	err = s.store.ApplyTransition(ctx, repository.ExpenseTransition{
		Expense:      expense,
		PoolID:       pool.ID,
		PoolDelta:    expense.TotalAmount,
		Notification: notification,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, *notification)
	return expense, nil
}

// Reject returns a submitted expense to Draft so the manager can rework it.
func (s *ExpenseService) Reject(ctx context.Context, principal model.Principal, id uuid.UUID, comment string) (*model.Expense, error) {
	if !principal.Can(model.ActionRejectExpense) {
		return nil, ErrPermissionDenied
	}
	if comment == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}

	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ExpenseFlow.Allowed(expense.Status, model.ExpenseStatusDraft) {
		return nil, badTransition("只有已提交審批狀態的費用才能拒絕")
	}

	project := expenseProject(expense)
	if project == nil {
		return nil, notFound("找不到指定的專案")
	}

	expense.Status = model.ExpenseStatusDraft
	notification := &model.Notification{
		ID:         uuid.New(),
		UserID:     project.ManagerID,
		Type:       model.NotifyExpenseRejected,
		Title:      "費用被退回",
		Message:    fmt.Sprintf("您的費用記錄（金額 NT$ %s）已被退回，拒絕原因：%s", formatAmount(expense.TotalAmount), comment),
		Link:       "/expenses/" + expense.ID.String(),
		EntityType: model.EntityExpense,
		EntityID:   expense.ID,
	}

	err = s.store.ApplyTransition(ctx, repository.ExpenseTransition{
		Expense:      expense,
		Notification: notification,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, *notification)
	return expense, nil
}

func (s *ExpenseService) MarkAsPaid(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Expense, error) {
	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.ExpenseFlow.Allowed(expense.Status, model.ExpenseStatusPaid) {
		return nil, badTransition("只有已批准狀態的費用才能標記為已支付")
	}

	now := time.Now()
	expense.Status = model.ExpenseStatusPaid
	expense.PaidDate = &now

	if err := s.store.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func expenseProject(expense *model.Expense) *model.Project {
	if expense.PurchaseOrder == nil {
		return nil
	}
	return expense.PurchaseOrder.Project
}

func buildExpenseItems(inputs []ExpenseItemInput) ([]model.ExpenseItem, float64, error) {
	items := make([]model.ExpenseItem, 0, len(inputs))
	total := 0.0
	for i, input := range inputs {
		if input.ItemName == "" {
			return nil, 0, fmt.Errorf("%w: item name is required", ErrInvalidInput)
		}
		if input.Amount <= 0 {
			return nil, 0, fmt.Errorf("%w: item amount must be positive", ErrInvalidInput)
		}
		items = append(items, model.ExpenseItem{
			ID:        uuid.New(),
			ItemName:  input.ItemName,
			Amount:    input.Amount,
			SortOrder: i,
		})
		total += input.Amount
	}
	return items, total, nil
}
