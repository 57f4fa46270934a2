package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops-hk/itpm-service/internal/model"
)

func purchaseOrderInput() CreatePurchaseOrderInput {
	return CreatePurchaseOrderInput{
		PONumber:  "PO-2026-001",
		Name:      "硬體採購",
		Date:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ProjectID: uuid.New(),
		VendorID:  uuid.New(),
		Items: []PurchaseOrderItemInput{
			{ItemName: "伺服器", Quantity: 2, UnitPrice: 15000},
			{ItemName: "交換器", Quantity: 1, UnitPrice: 8000},
		},
	}
}

func TestPurchaseOrderService_Create_SubtotalsAndTotal(t *testing.T) {
	store := newFakePurchaseOrderStore()
	svc := NewPurchaseOrderService(store)

	order, err := svc.Create(context.Background(), managerPrincipal(), purchaseOrderInput())
	require.NoError(t, err)
	assert.Equal(t, model.POStatusDraft, order.Status)
	assert.Equal(t, 38000.0, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 30000.0, order.Items[0].Subtotal)
	assert.Equal(t, 8000.0, order.Items[1].Subtotal)
}

func TestPurchaseOrderService_Create_RequiresItems(t *testing.T) {
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore())

	input := purchaseOrderInput()
	input.Items = nil
	_, err := svc.Create(context.Background(), managerPrincipal(), input)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "至少需要一個採購品項", err.Error())
}

func TestPurchaseOrderService_Update_DraftOnly(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusSubmitted}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	_, err := svc.Update(context.Background(), managerPrincipal(), UpdatePurchaseOrderInput{
		ID:    order.ID,
		Items: []PurchaseOrderItemInput{{ItemName: "伺服器", Quantity: 1, UnitPrice: 15000}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "只有草稿狀態的採購單才能修改", err.Error())
}

func TestPurchaseOrderService_Submit(t *testing.T) {
	order := &model.PurchaseOrder{
		ID:       uuid.New(),
		PONumber: "PO-2026-001",
		Status:   model.POStatusDraft,
		Items:    []model.PurchaseOrderItem{{ID: uuid.New(), ItemName: "伺服器", Quantity: 1, UnitPrice: 15000, Subtotal: 15000}},
	}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	got, err := svc.Submit(context.Background(), managerPrincipal(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusSubmitted, got.Status)
}

func TestPurchaseOrderService_Submit_EmptyOrder(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusDraft}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	_, err := svc.Submit(context.Background(), managerPrincipal(), order.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "無法提交空的採購單，請至少添加一個品項", err.Error())
}

func TestPurchaseOrderService_Approve(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusSubmitted}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	got, err := svc.Approve(context.Background(), supervisorPrincipal(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POStatusApproved, got.Status)
	require.NotNil(t, got.ApprovedDate)
}

func TestPurchaseOrderService_Approve_ManagerForbidden(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusSubmitted}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	_, err := svc.Approve(context.Background(), managerPrincipal(), order.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestPurchaseOrderService_Approve_OnlySubmitted(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusDraft}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	_, err := svc.Approve(context.Background(), supervisorPrincipal(), order.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "只有已提交的採購單才能批准", err.Error())
}

func TestPurchaseOrderService_Delete_DraftOnly(t *testing.T) {
	order := &model.PurchaseOrder{ID: uuid.New(), PONumber: "PO-2026-001", Status: model.POStatusApproved}
	svc := NewPurchaseOrderService(newFakePurchaseOrderStore(order))

	err := svc.Delete(context.Background(), managerPrincipal(), order.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "只有草稿狀態的採購單才能刪除", err.Error())
}
