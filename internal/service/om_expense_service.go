package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

type OMExpenseStore interface {
	List(ctx context.Context, filter repository.OMExpenseFilter) ([]model.OMExpense, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.OMExpense, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.OMExpenseItem, error)
	CreateWithItems(ctx context.Context, expense *model.OMExpense, items []model.OMExpenseItem) error
	UpdateHeader(ctx context.Context, expense *model.OMExpense) error
	AddItem(ctx context.Context, item *model.OMExpenseItem) error
	UpdateItem(ctx context.Context, item *model.OMExpenseItem) error
	RemoveItem(ctx context.Context, item *model.OMExpenseItem) error
	ReorderItems(ctx context.Context, expenseID uuid.UUID, itemIDs []uuid.UUID) error
	ReplaceMonthly(ctx context.Context, item *model.OMExpenseItem, amounts map[int]float64) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	BySourceExpense(ctx context.Context, expenseID uuid.UUID) ([]model.OMExpense, error)
	FindPrevious(ctx context.Context, name, category string, financialYear int) (*model.OMExpense, error)
	MonthlyTotals(ctx context.Context, financialYear int, opCoID uuid.UUID) ([]model.MonthlyTotal, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]model.OMExpenseCategory, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.OMExpenseCategory, error)
	GetCategoryByCode(ctx context.Context, code string) (*model.OMExpenseCategory, error)
	CreateCategory(ctx context.Context, category *model.OMExpenseCategory) error
	UpdateCategory(ctx context.Context, category *model.OMExpenseCategory) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CategoryUsage(ctx context.Context, name string) (int64, error)
}

type VendorLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
}

// OMExpenseService manages recurring operations-and-maintenance costs: a
// header per cost and financial year, items billed to operating companies,
// and twelve monthly actuals per item. Header totals are recomputed with
// every item or monthly write.
type OMExpenseService struct {
	store     OMExpenseStore
	companies OperatingCompanyStore
	vendors   VendorLookup
	expenses  ExpenseStore
}

func NewOMExpenseService(store OMExpenseStore, companies OperatingCompanyStore, vendors VendorLookup, expenses ExpenseStore) *OMExpenseService {
	return &OMExpenseService{store: store, companies: companies, vendors: vendors, expenses: expenses}
}

type OMExpensePage struct {
	Expenses []model.OMExpense `json:"om_expenses"`
	Total    int64             `json:"total"`
}

func (s *OMExpenseService) List(ctx context.Context, filter repository.OMExpenseFilter) (*OMExpensePage, error) {
	expenses, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OMExpensePage{Expenses: expenses, Total: total}, nil
}

func (s *OMExpenseService) Get(ctx context.Context, id uuid.UUID) (*model.OMExpense, error) {
	expense, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("OM 費用不存在")
		}
		return nil, err
	}
	return expense, nil
}

type OMExpenseItemInput struct {
	Name         string
	Description  string
	SortOrder    *int
	BudgetAmount float64
	LastFYActual *float64
	OpCoID       uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	Ongoing      bool
}

type CreateOMExpenseInput struct {
	Name            string
	Description     string
	FinancialYear   int
	Category        string
	VendorID        *uuid.UUID
	SourceExpenseID *uuid.UUID
	DefaultOpCoID   *uuid.UUID
	Items           []OMExpenseItemInput
}

// Create writes the header with its items; every item starts with twelve
// zeroed monthly records. The header budget total is the item sum, actuals
// start at zero.
func (s *OMExpenseService) Create(ctx context.Context, principal model.Principal, input CreateOMExpenseInput) (*model.OMExpense, error) {
	if input.Name == "" {
		return nil, invalid("OM費用名稱不能為空")
	}
	if input.Category == "" {
		return nil, invalid("類別不能為空")
	}
	if len(input.Items) == 0 {
		return nil, invalid("至少需要一個明細項目")
	}

	if err := s.checkItemOpCos(ctx, input.Items); err != nil {
		return nil, err
	}
	if input.DefaultOpCoID != nil {
		if _, err := s.companies.GetOperatingCompany(ctx, *input.DefaultOpCoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("預設 OpCo 不存在")
			}
			return nil, err
		}
	}
	if input.VendorID != nil {
		if _, err := s.vendors.Get(ctx, *input.VendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("供應商不存在")
			}
			return nil, err
		}
	}
	if input.SourceExpenseID != nil {
		if _, err := s.expenses.Get(ctx, *input.SourceExpenseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("來源費用記錄不存在")
			}
			return nil, err
		}
	}

	totalBudget := 0.0
	items := make([]model.OMExpenseItem, 0, len(input.Items))
	for i, itemInput := range input.Items {
		item, err := buildOMItem(itemInput, i)
		if err != nil {
			return nil, invalid(fmt.Sprintf("明細項目 %q: %s", itemInput.Name, err))
		}
		totalBudget += item.BudgetAmount
		items = append(items, *item)
	}

	expense := &model.OMExpense{
		ID:                uuid.New(),
		Name:              input.Name,
		Description:       input.Description,
		FinancialYear:     input.FinancialYear,
		Category:          input.Category,
		TotalBudgetAmount: totalBudget,
		VendorID:          input.VendorID,
		SourceExpenseID:   input.SourceExpenseID,
		DefaultOpCoID:     input.DefaultOpCoID,
	}
	if err := s.store.CreateWithItems(ctx, expense, items); err != nil {
		return nil, err
	}
	return s.Get(ctx, expense.ID)
}

type UpdateOMExpenseInput struct {
	ID            uuid.UUID
	Name          *string
	Description   *string
	Category      *string
	VendorID      *uuid.UUID
	DefaultOpCoID *uuid.UUID
}

func (s *OMExpenseService) Update(ctx context.Context, principal model.Principal, input UpdateOMExpenseInput) (*model.OMExpense, error) {
	expense, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, invalid("OM費用名稱不能為空")
		}
		expense.Name = *input.Name
	}
	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, invalid("類別不能為空")
		}
		expense.Category = *input.Category
	}
	if input.VendorID != nil {
		if _, err := s.vendors.Get(ctx, *input.VendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("供應商不存在")
			}
			return nil, err
		}
		expense.VendorID = input.VendorID
	}
	if input.DefaultOpCoID != nil {
		if _, err := s.companies.GetOperatingCompany(ctx, *input.DefaultOpCoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("預設 OpCo 不存在")
			}
			return nil, err
		}
		expense.DefaultOpCoID = input.DefaultOpCoID
	}

	if err := s.store.UpdateHeader(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// AddItem appends a detail line and refreshes the header budget total.
func (s *OMExpenseService) AddItem(ctx context.Context, principal model.Principal, expenseID uuid.UUID, input OMExpenseItemInput) (*model.OMExpense, error) {
	expense, err := s.Get(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.companies.GetOperatingCompany(ctx, input.OpCoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("OpCo 不存在")
		}
		return nil, err
	}

	maxSort := -1
	for _, existing := range expense.Items {
		if existing.SortOrder > maxSort {
			maxSort = existing.SortOrder
		}
	}
	item, err := buildOMItem(input, maxSort+1)
	if err != nil {
		return nil, invalid(err.Error())
	}
	item.OMExpenseID = expense.ID

	if err := s.store.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, expenseID)
}

type UpdateOMItemInput struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	BudgetAmount *float64
	LastFYActual *float64
	OpCoID       *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	Ongoing      *bool
}

func (s *OMExpenseService) UpdateItem(ctx context.Context, principal model.Principal, input UpdateOMItemInput) (*model.OMExpense, error) {
	item, err := s.getItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, invalid("項目名稱不能為空")
		}
		item.Name = *input.Name
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.BudgetAmount != nil {
		if *input.BudgetAmount < 0 {
			return nil, invalid("預算金額不能為負")
		}
		item.BudgetAmount = *input.BudgetAmount
	}
	if input.LastFYActual != nil {
		item.LastFYActual = input.LastFYActual
	}
	if input.OpCoID != nil {
		if _, err := s.companies.GetOperatingCompany(ctx, *input.OpCoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("OpCo 不存在")
			}
			return nil, err
		}
		item.OpCoID = *input.OpCoID
	}
	if input.StartDate != nil {
		item.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		item.EndDate = input.EndDate
	}
	if input.Ongoing != nil {
		item.Ongoing = *input.Ongoing
	}
	if item.StartDate != nil && item.EndDate != nil && !item.StartDate.Before(*item.EndDate) {
		return nil, invalid("結束日期必須晚於開始日期")
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, item.OMExpenseID)
}

// RemoveItem deletes a detail line with its monthly records. The last line
// cannot be removed; a header always keeps at least one item.
func (s *OMExpenseService) RemoveItem(ctx context.Context, principal model.Principal, itemID uuid.UUID) (*model.OMExpense, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	expense, err := s.Get(ctx, item.OMExpenseID)
	if err != nil {
		return nil, err
	}
	if len(expense.Items) <= 1 {
		return nil, invalid("不能刪除最後一個明細項目，OM 費用至少需要一個明細項目")
	}

	if err := s.store.RemoveItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, item.OMExpenseID)
}

// ReorderItems rewrites sort orders from the given sequence. Every ID must
// belong to the header.
func (s *OMExpenseService) ReorderItems(ctx context.Context, principal model.Principal, expenseID uuid.UUID, itemIDs []uuid.UUID) (*model.OMExpense, error) {
	expense, err := s.Get(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	known := make(map[uuid.UUID]bool, len(expense.Items))
	for _, item := range expense.Items {
		known[item.ID] = true
	}
	var invalidIDs []string
	for _, id := range itemIDs {
		if !known[id] {
			invalidIDs = append(invalidIDs, id.String())
		}
	}
	if len(invalidIDs) > 0 {
		return nil, invalid(fmt.Sprintf("以下項目 ID 不屬於此 OM 費用: %s", strings.Join(invalidIDs, ", ")))
	}

	if err := s.store.ReorderItems(ctx, expenseID, itemIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, expenseID)
}

type MonthlyAmountInput struct {
	Month        int
	ActualAmount float64
}

// UpdateItemMonthly replaces the item's twelve monthly actuals. The input
// must cover every month exactly once; the item's actual spend and the
// header total follow in the same transaction.
func (s *OMExpenseService) UpdateItemMonthly(ctx context.Context, principal model.Principal, itemID uuid.UUID, records []MonthlyAmountInput) (*model.OMExpense, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	amounts := make(map[int]float64, len(records))
	for _, record := range records {
		if record.Month < 1 || record.Month > 12 {
			return nil, invalid("必須提供完整的 1-12 月數據")
		}
		if _, dup := amounts[record.Month]; dup {
			return nil, invalid("必須提供完整的 1-12 月數據")
		}
		if record.ActualAmount < 0 {
			return nil, invalid("實際金額不能為負")
		}
		amounts[record.Month] = record.ActualAmount
	}
	if len(amounts) != 12 {
		return nil, invalid("必須提供完整的 1-12 月數據")
	}

	if err := s.store.ReplaceMonthly(ctx, item, amounts); err != nil {
		return nil, err
	}
	return s.Get(ctx, item.OMExpenseID)
}

func (s *OMExpenseService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// DeleteMany removes a batch of headers in one transaction and reports how
// many existed. IDs that match nothing at all are an error.
func (s *OMExpenseService) DeleteMany(ctx context.Context, principal model.Principal, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid("至少選擇一筆記錄")
	}
	deleted, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, notFound("找不到任何要刪除的 OM 費用記錄")
	}
	return deleted, nil
}

func (s *OMExpenseService) BySourceExpense(ctx context.Context, expenseID uuid.UUID) ([]model.OMExpense, error) {
	return s.store.BySourceExpense(ctx, expenseID)
}

func (s *OMExpenseService) MonthlyTotals(ctx context.Context, financialYear int, opCoID uuid.UUID) ([]model.MonthlyTotal, error) {
	return s.store.MonthlyTotals(ctx, financialYear, opCoID)
}

// YoYGrowth compares the header's actual spend against the previous
// financial year's record of the same name and category, and stores the
// growth rate on the header. Without comparable data the rate stays nil.
func (s *OMExpenseService) YoYGrowth(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.YoYGrowth, error) {
	expense, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previousYear := expense.FinancialYear - 1
	previous, err := s.store.FindPrevious(ctx, expense.Name, expense.Category, previousYear)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if previous == nil || previous.TotalActualSpent == 0 {
		return &model.YoYGrowth{
			Message:       "無上年度數據可比較，或上年度實際支出為 0",
			CurrentYear:   expense.FinancialYear,
			CurrentAmount: expense.TotalActualSpent,
		}, nil
	}

	rate := (expense.TotalActualSpent - previous.TotalActualSpent) / previous.TotalActualSpent * 100
	expense.YoYGrowthRate = &rate
	if err := s.store.UpdateHeader(ctx, expense); err != nil {
		return nil, err
	}

	return &model.YoYGrowth{
		GrowthRate:     &rate,
		CurrentYear:    expense.FinancialYear,
		CurrentAmount:  expense.TotalActualSpent,
		PreviousYear:   &previousYear,
		PreviousAmount: &previous.TotalActualSpent,
	}, nil
}

var omCategoryCode = regexp.MustCompile(`^[A-Z0-9_]+$`)

func (s *OMExpenseService) ListCategories(ctx context.Context, activeOnly bool) ([]model.OMExpenseCategory, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

func (s *OMExpenseService) GetCategory(ctx context.Context, id uuid.UUID) (*model.OMExpenseCategory, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("費用類別不存在")
		}
		return nil, err
	}
	return category, nil
}

type OMCategoryInput struct {
	Code        string
	Name        string
	Description string
	SortOrder   int
}

func (s *OMExpenseService) CreateCategory(ctx context.Context, principal model.Principal, input OMCategoryInput) (*model.OMExpenseCategory, error) {
	if !principal.Can(model.ActionManageOMCategories) {
		return nil, ErrPermissionDenied
	}
	if input.Code == "" {
		return nil, invalid("類別代碼不能為空")
	}
	if !omCategoryCode.MatchString(input.Code) {
		return nil, invalid("類別代碼只能包含大寫字母、數字和底線")
	}
	if input.Name == "" {
		return nil, invalid("類別名稱不能為空")
	}

	if _, err := s.store.GetCategoryByCode(ctx, input.Code); err == nil {
		return nil, invalid(fmt.Sprintf("類別代碼 %q 已存在", input.Code))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &model.OMExpenseCategory{
		ID:          uuid.New(),
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		SortOrder:   input.SortOrder,
		Active:      true,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

type UpdateOMCategoryInput struct {
	ID          uuid.UUID
	Code        *string
	Name        *string
	Description *string
	SortOrder   *int
	Active      *bool
}

func (s *OMExpenseService) UpdateCategory(ctx context.Context, principal model.Principal, input UpdateOMCategoryInput) (*model.OMExpenseCategory, error) {
	if !principal.Can(model.ActionManageOMCategories) {
		return nil, ErrPermissionDenied
	}
	category, err := s.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Code != nil && *input.Code != category.Code {
		if !omCategoryCode.MatchString(*input.Code) {
			return nil, invalid("類別代碼只能包含大寫字母、數字和底線")
		}
		if _, err := s.store.GetCategoryByCode(ctx, *input.Code); err == nil {
			return nil, invalid(fmt.Sprintf("類別代碼 %q 已被使用", *input.Code))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		category.Code = *input.Code
	}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, invalid("類別名稱不能為空")
		}
		category.Name = *input.Name
	}
	if input.Description != nil {
		category.Description = *input.Description
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.Active != nil {
		category.Active = *input.Active
	}

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses while any O&M expense still uses the category.
func (s *OMExpenseService) DeleteCategory(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.Can(model.ActionManageOMCategories) {
		return ErrPermissionDenied
	}
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	used, err := s.store.CategoryUsage(ctx, category.Name)
	if err != nil {
		return err
	}
	if used > 0 {
		return invalid(fmt.Sprintf("無法刪除類別 %q，因為有 %d 筆關聯的 OM 費用。請先刪除相關費用記錄或將其改用其他類別。", category.Name, used))
	}
	return s.store.DeleteCategory(ctx, id)
}

func (s *OMExpenseService) getItem(ctx context.Context, id uuid.UUID) (*model.OMExpenseItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("明細項目不存在")
		}
		return nil, err
	}
	return item, nil
}

func (s *OMExpenseService) checkItemOpCos(ctx context.Context, items []OMExpenseItemInput) error {
	seen := make(map[uuid.UUID]bool)
	var missing []string
	for _, item := range items {
		if item.OpCoID == uuid.Nil || seen[item.OpCoID] {
			continue
		}
		seen[item.OpCoID] = true
		if _, err := s.companies.GetOperatingCompany(ctx, item.OpCoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				missing = append(missing, item.OpCoID.String())
				continue
			}
			return err
		}
	}
	if len(missing) > 0 {
		return notFound(fmt.Sprintf("以下 OpCo 不存在: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func buildOMItem(input OMExpenseItemInput, defaultSort int) (*model.OMExpenseItem, error) {
	if input.Name == "" {
		return nil, errors.New("項目名稱不能為空")
	}
	if input.BudgetAmount < 0 {
		return nil, errors.New("預算金額不能為負")
	}

	item := &model.OMExpenseItem{
		ID:           uuid.New(),
		Name:         input.Name,
		Description:  input.Description,
		SortOrder:    defaultSort,
		BudgetAmount: input.BudgetAmount,
		LastFYActual: input.LastFYActual,
		OpCoID:       input.OpCoID,
		Ongoing:      input.Ongoing,
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	item.StartDate = input.StartDate
	item.EndDate = input.EndDate
	if item.StartDate != nil && item.EndDate != nil && !item.StartDate.Before(*item.EndDate) {
		return nil, errors.New("結束日期必須晚於開始日期")
	}
	return item, nil
}
