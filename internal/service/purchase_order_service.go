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

type PurchaseOrderStore interface {
	List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	CreateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error
	UpdateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error
	Update(ctx context.Context, order *model.PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExpenseCount(ctx context.Context, id uuid.UUID) (int64, error)
	Stats(ctx context.Context) (*model.PurchaseOrderStats, error)
}

type PurchaseOrderService struct {
	store PurchaseOrderStore
}

func NewPurchaseOrderService(store PurchaseOrderStore) *PurchaseOrderService {
	return &PurchaseOrderService{store: store}
}

func (s *PurchaseOrderService) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	return s.store.List(ctx, filter)
}

func (s *PurchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該採購單")
		}
		return nil, err
	}
	return order, nil
}

type PurchaseOrderItemInput struct {
	ItemName    string
	Description string
	Quantity    float64
	UnitPrice   float64
}

type CreatePurchaseOrderInput struct {
	PONumber    string
	Name        string
	Description string
	Date        time.Time
	ProjectID   uuid.UUID
	VendorID    uuid.UUID
	QuoteID     *uuid.UUID
	Items       []PurchaseOrderItemInput
}

func (s *PurchaseOrderService) Create(ctx context.Context, principal model.Principal, input CreatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	if input.PONumber == "" {
		return nil, fmt.Errorf("%w: po number is required", ErrInvalidInput)
	}
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.ProjectID == uuid.Nil || input.VendorID == uuid.Nil {
		return nil, fmt.Errorf("%w: project and vendor are required", ErrInvalidInput)
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個採購品項")
	}

	items, total, err := buildPurchaseOrderItems(input.Items)
	if err != nil {
		return nil, err
	}

	order := &model.PurchaseOrder{
		ID:          uuid.New(),
		PONumber:    input.PONumber,
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date,
		TotalAmount: total,
		Status:      model.POStatusDraft,
		ProjectID:   input.ProjectID,
		VendorID:    input.VendorID,
		QuoteID:     input.QuoteID,
	}
	if err := s.store.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}
	return order, nil
}

type UpdatePurchaseOrderInput struct {
	ID          uuid.UUID
	PONumber    *string
	Name        *string
	Description *string
	Date        *time.Time
	VendorID    *uuid.UUID
	QuoteID     *uuid.UUID
	Items       []PurchaseOrderItemInput
}

func (s *PurchaseOrderService) Update(ctx context.Context, principal model.Principal, input UpdatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	order, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.POStatusDraft {
		return nil, invalid("只有草稿狀態的採購單才能修改")
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個採購品項")
	}

	if input.PONumber != nil {
		if *input.PONumber == "" {
			return nil, fmt.Errorf("%w: po number is required", ErrInvalidInput)
		}
		order.PONumber = *input.PONumber
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		order.Name = *input.Name
	}
	if input.Description != nil {
		order.Description = *input.Description
	}
	if input.Date != nil {
		order.Date = *input.Date
	}
	if input.VendorID != nil {
		order.VendorID = *input.VendorID
	}
	if input.QuoteID != nil {
		order.QuoteID = input.QuoteID
	}

	items, total, err := buildPurchaseOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = total

	if err := s.store.UpdateWithItems(ctx, order, items); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PurchaseOrderService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != model.POStatusDraft {
		return forbidden("只有草稿狀態的採購單才能刪除")
	}

	expenses, err := s.store.ExpenseCount(ctx, id)
	if err != nil {
		return err
	}
	if expenses > 0 {
		return invalid(fmt.Sprintf("無法刪除採購單，因為有 %d 筆費用記錄與之關聯", expenses))
	}
	return s.store.Delete(ctx, id)
}

func (s *PurchaseOrderService) Submit(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.PurchaseOrderFlow.Allowed(order.Status, model.POStatusSubmitted) {
		return nil, badTransition("只有草稿狀態的採購單才能提交")
	}
	if len(order.Items) == 0 {
		return nil, invalid("無法提交空的採購單，請至少添加一個品項")
	}

	order.Status = model.POStatusSubmitted
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PurchaseOrderService) Approve(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.PurchaseOrder, error) {
	if !principal.Can(model.ActionApprovePO) {
		return nil, ErrPermissionDenied
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.PurchaseOrderFlow.Allowed(order.Status, model.POStatusApproved) {
		return nil, badTransition("只有已提交的採購單才能批准")
	}

	now := time.Now()
	order.Status = model.POStatusApproved
	order.ApprovedDate = &now

	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PurchaseOrderService) Stats(ctx context.Context) (*model.PurchaseOrderStats, error) {
	return s.store.Stats(ctx)
}

func buildPurchaseOrderItems(inputs []PurchaseOrderItemInput) ([]model.PurchaseOrderItem, float64, error) {
	items := make([]model.PurchaseOrderItem, 0, len(inputs))
	total := 0.0
	for i, input := range inputs {
		if input.ItemName == "" {
			return nil, 0, fmt.Errorf("%w: item name is required", ErrInvalidInput)
		}
		if input.Quantity <= 0 || input.UnitPrice < 0 {
			return nil, 0, fmt.Errorf("%w: item quantity and unit price must be valid", ErrInvalidInput)
		}
		subtotal := input.Quantity * input.UnitPrice
		items = append(items, model.PurchaseOrderItem{
			ID:          uuid.New(),
			ItemName:    input.ItemName,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			Subtotal:    subtotal,
			SortOrder:   i,
		})
		total += subtotal
	}
	return items, total, nil
}
