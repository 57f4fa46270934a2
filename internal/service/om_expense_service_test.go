package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops-hk/itpm-service/internal/model"
)

func omExpenseFixture(opCoID uuid.UUID) *model.OMExpense {
	expenseID := uuid.New()
	items := []model.OMExpenseItem{
		{ID: uuid.New(), OMExpenseID: expenseID, Name: "授權費", SortOrder: 0, BudgetAmount: 120000, OpCoID: opCoID},
		{ID: uuid.New(), OMExpenseID: expenseID, Name: "維護費", SortOrder: 1, BudgetAmount: 30000, OpCoID: opCoID},
	}
	for i := range items {
		items[i].Monthly = zeroedMonthly(items[i].ID)
	}
	return &model.OMExpense{
		ID:                expenseID,
		Name:              "防毒軟件年費",
		FinancialYear:     2026,
		Category:          "軟件授權",
		TotalBudgetAmount: 150000,
		Items:             items,
	}
}

func newOMServiceForTest(store *fakeOMExpenseStore, companies *fakeOpCoStore) *OMExpenseService {
	return NewOMExpenseService(store, companies, newFakeVendorStore(), newFakeExpenseStore())
}

func TestOMExpenseService_Create_ComputesTotals(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	store := newFakeOMExpenseStore()
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	got, err := svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Name:          "防毒軟件年費",
		FinancialYear: 2026,
		Category:      "軟件授權",
		Items: []OMExpenseItemInput{
			{Name: "授權費", BudgetAmount: 120000, OpCoID: opCo.ID},
			{Name: "維護費", BudgetAmount: 30000, OpCoID: opCo.ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 150000.0, got.TotalBudgetAmount)
	assert.Equal(t, 0.0, got.TotalActualSpent)
	require.Len(t, got.Items, 2)
	for _, item := range got.Items {
		assert.Len(t, item.Monthly, 12)
	}
}

func TestOMExpenseService_Create_Validation(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	svc := newOMServiceForTest(newFakeOMExpenseStore(), newFakeOpCoStore(opCo))
	item := OMExpenseItemInput{Name: "授權費", BudgetAmount: 100, OpCoID: opCo.ID}

	_, err := svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Category: "軟件授權", Items: []OMExpenseItemInput{item},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "OM費用名稱不能為空", err.Error())

	_, err = svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Name: "x", Items: []OMExpenseItemInput{item},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "類別不能為空", err.Error())

	_, err = svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Name: "x", Category: "軟件授權",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "至少需要一個明細項目", err.Error())

	_, err = svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Name: "x", Category: "軟件授權",
		Items: []OMExpenseItemInput{{Name: "授權費", BudgetAmount: -1, OpCoID: opCo.ID}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `明細項目 "授權費": 預算金額不能為負`, err.Error())
}

func TestOMExpenseService_Create_UnknownOpCo(t *testing.T) {
	svc := newOMServiceForTest(newFakeOMExpenseStore(), newFakeOpCoStore())
	missing := uuid.New()

	_, err := svc.Create(context.Background(), managerPrincipal(), CreateOMExpenseInput{
		Name: "x", Category: "軟件授權",
		Items: []OMExpenseItemInput{{Name: "授權費", BudgetAmount: 100, OpCoID: missing}},
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "以下 OpCo 不存在: "+missing.String(), err.Error())
}

func TestOMExpenseService_AddItem_RecomputesTotals(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	got, err := svc.AddItem(context.Background(), managerPrincipal(), expense.ID, OMExpenseItemInput{
		Name: "備援授權", BudgetAmount: 50000, OpCoID: opCo.ID,
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, 200000.0, got.TotalBudgetAmount)
	assert.Equal(t, 2, got.Items[2].SortOrder)
	assert.Len(t, got.Items[2].Monthly, 12)
}

func TestOMExpenseService_RemoveItem(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	got, err := svc.RemoveItem(context.Background(), managerPrincipal(), expense.Items[1].ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 120000.0, got.TotalBudgetAmount)

	_, err = svc.RemoveItem(context.Background(), managerPrincipal(), got.Items[0].ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "不能刪除最後一個明細項目，OM 費用至少需要一個明細項目", err.Error())
}

func TestOMExpenseService_ReorderItems(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	first, second := expense.Items[0].ID, expense.Items[1].ID
	got, err := svc.ReorderItems(context.Background(), managerPrincipal(), expense.ID, []uuid.UUID{second, first})
	require.NoError(t, err)
	for _, item := range got.Items {
		switch item.ID {
		case second:
			assert.Equal(t, 0, item.SortOrder)
		case first:
			assert.Equal(t, 1, item.SortOrder)
		}
	}

	stranger := uuid.New()
	_, err = svc.ReorderItems(context.Background(), managerPrincipal(), expense.ID, []uuid.UUID{first, stranger})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "以下項目 ID 不屬於此 OM 費用: "+stranger.String(), err.Error())
}

func TestOMExpenseService_UpdateItemMonthly(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	records := make([]MonthlyAmountInput, 0, 12)
	for month := 1; month <= 12; month++ {
		records = append(records, MonthlyAmountInput{Month: month, ActualAmount: 1000})
	}
	got, err := svc.UpdateItemMonthly(context.Background(), managerPrincipal(), expense.Items[0].ID, records)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, got.Items[0].ActualSpent)
	assert.Equal(t, 12000.0, got.TotalActualSpent)
	assert.Equal(t, 150000.0, got.TotalBudgetAmount)
}

func TestOMExpenseService_UpdateItemMonthly_IncompleteMonths(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	svc := newOMServiceForTest(newFakeOMExpenseStore(expense), newFakeOpCoStore(opCo))
	itemID := expense.Items[0].ID

	_, err := svc.UpdateItemMonthly(context.Background(), managerPrincipal(), itemID, []MonthlyAmountInput{
		{Month: 1, ActualAmount: 1000},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "必須提供完整的 1-12 月數據", err.Error())

	_, err = svc.UpdateItemMonthly(context.Background(), managerPrincipal(), itemID, []MonthlyAmountInput{
		{Month: 13, ActualAmount: 1000},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	records := make([]MonthlyAmountInput, 0, 12)
	for month := 1; month <= 12; month++ {
		records = append(records, MonthlyAmountInput{Month: month, ActualAmount: 1000})
	}
	records[3].ActualAmount = -5
	_, err = svc.UpdateItemMonthly(context.Background(), managerPrincipal(), itemID, records)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "實際金額不能為負", err.Error())
}

func TestOMExpenseService_YoYGrowth(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	current := omExpenseFixture(opCo.ID)
	current.TotalActualSpent = 120000
	previous := omExpenseFixture(opCo.ID)
	previous.FinancialYear = 2025
	previous.TotalActualSpent = 100000
	store := newFakeOMExpenseStore(current, previous)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	growth, err := svc.YoYGrowth(context.Background(), managerPrincipal(), current.ID)
	require.NoError(t, err)
	require.NotNil(t, growth.GrowthRate)
	assert.InDelta(t, 20.0, *growth.GrowthRate, 0.0001)
	assert.Equal(t, 2026, growth.CurrentYear)
	require.NotNil(t, growth.PreviousYear)
	assert.Equal(t, 2025, *growth.PreviousYear)

	stored, err := store.Get(context.Background(), current.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.YoYGrowthRate)
	assert.InDelta(t, 20.0, *stored.YoYGrowthRate, 0.0001)
}

func TestOMExpenseService_YoYGrowth_NoComparableData(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	current := omExpenseFixture(opCo.ID)
	current.TotalActualSpent = 120000
	svc := newOMServiceForTest(newFakeOMExpenseStore(current), newFakeOpCoStore(opCo))

	growth, err := svc.YoYGrowth(context.Background(), managerPrincipal(), current.ID)
	require.NoError(t, err)
	assert.Nil(t, growth.GrowthRate)
	assert.Equal(t, "無上年度數據可比較，或上年度實際支出為 0", growth.Message)
	assert.Equal(t, 120000.0, growth.CurrentAmount)
}

func TestOMExpenseService_DeleteMany(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	_, err := svc.DeleteMany(context.Background(), managerPrincipal(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "至少選擇一筆記錄", err.Error())

	_, err = svc.DeleteMany(context.Background(), managerPrincipal(), []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "找不到任何要刪除的 OM 費用記錄", err.Error())

	deleted, err := svc.DeleteMany(context.Background(), managerPrincipal(), []uuid.UUID{expense.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestOMExpenseService_MonthlyTotals(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	records := make([]MonthlyAmountInput, 0, 12)
	for month := 1; month <= 12; month++ {
		records = append(records, MonthlyAmountInput{Month: month, ActualAmount: float64(month * 100)})
	}
	_, err := svc.UpdateItemMonthly(context.Background(), managerPrincipal(), expense.Items[0].ID, records)
	require.NoError(t, err)

	totals, err := svc.MonthlyTotals(context.Background(), 2026, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, totals, 12)
	assert.Equal(t, 100.0, totals[0].TotalAmount)
	assert.Equal(t, 1200.0, totals[11].TotalAmount)
}

func TestOMExpenseService_CreateCategory(t *testing.T) {
	store := newFakeOMExpenseStore()
	svc := newOMServiceForTest(store, newFakeOpCoStore())

	category, err := svc.CreateCategory(context.Background(), supervisorPrincipal(), OMCategoryInput{
		Code: "SOFTWARE_LICENSE", Name: "軟件授權",
	})
	require.NoError(t, err)
	assert.True(t, category.Active)

	_, err = svc.CreateCategory(context.Background(), supervisorPrincipal(), OMCategoryInput{
		Code: "SOFTWARE_LICENSE", Name: "重複",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `類別代碼 "SOFTWARE_LICENSE" 已存在`, err.Error())

	_, err = svc.CreateCategory(context.Background(), supervisorPrincipal(), OMCategoryInput{
		Code: "lower-case", Name: "格式錯誤",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "類別代碼只能包含大寫字母、數字和底線", err.Error())
}

func TestOMExpenseService_CreateCategory_PermissionDenied(t *testing.T) {
	svc := newOMServiceForTest(newFakeOMExpenseStore(), newFakeOpCoStore())

	_, err := svc.CreateCategory(context.Background(), managerPrincipal(), OMCategoryInput{
		Code: "HARDWARE", Name: "硬件",
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestOMExpenseService_DeleteCategory_BlockedWhileUsed(t *testing.T) {
	opCo := &model.OperatingCompany{ID: uuid.New(), Code: "HKE", Name: "港燈電力"}
	expense := omExpenseFixture(opCo.ID)
	store := newFakeOMExpenseStore(expense)
	svc := newOMServiceForTest(store, newFakeOpCoStore(opCo))

	category, err := svc.CreateCategory(context.Background(), supervisorPrincipal(), OMCategoryInput{
		Code: "SOFTWARE_LICENSE", Name: "軟件授權",
	})
	require.NoError(t, err)

	err = svc.DeleteCategory(context.Background(), supervisorPrincipal(), category.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `無法刪除類別 "軟件授權"，因為有 1 筆關聯的 OM 費用。請先刪除相關費用記錄或將其改用其他類別。`, err.Error())

	_, err = svc.DeleteMany(context.Background(), supervisorPrincipal(), []uuid.UUID{expense.ID})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(context.Background(), supervisorPrincipal(), category.ID))
}
