package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type OMExpenseFilter struct {
	FinancialYear int
	Category      string
	OpCoID        uuid.UUID
	Limit         int
	Offset        int
}

type OMExpenseRepository struct {
	db *gorm.DB
}

func NewOMExpenseRepository(db *gorm.DB) *OMExpenseRepository {
	return &OMExpenseRepository{db: db}
}

func (r *OMExpenseRepository) List(ctx context.Context, filter OMExpenseFilter) ([]model.OMExpense, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.OMExpense{})

	if filter.FinancialYear != 0 {
		query = query.Where("financial_year = ?", filter.FinancialYear)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.OpCoID != uuid.Nil {
		query = query.Where(
			"default_op_co_id = ? OR id IN (SELECT om_expense_id FROM om_expense_items WHERE op_co_id = ?)",
			filter.OpCoID, filter.OpCoID,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Vendor").Preload("DefaultOpCo").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("financial_year DESC, category ASC, name ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var expenses []model.OMExpense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

func (r *OMExpenseRepository) Get(ctx context.Context, id uuid.UUID) (*model.OMExpense, error) {
	var expense model.OMExpense
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("SourceExpense").
		Preload("DefaultOpCo").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Items.OpCo").
		Preload("Items.Monthly", func(db *gorm.DB) *gorm.DB { return db.Order("month ASC") }).
		First(&expense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *OMExpenseRepository) GetItem(ctx context.Context, id uuid.UUID) (*model.OMExpenseItem, error) {
	var item model.OMExpenseItem
	err := r.db.WithContext(ctx).
		Preload("Monthly", func(db *gorm.DB) *gorm.DB { return db.Order("month ASC") }).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateWithItems writes the header, its items and twelve zeroed monthly
// rows per item in one transaction.
func (r *OMExpenseRepository) CreateWithItems(ctx context.Context, expense *model.OMExpense, items []model.OMExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(expense).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OMExpenseID = expense.ID
			if err := tx.Omit(clause.Associations).Create(&items[i]).Error; err != nil {
				return err
			}
			if err := createMonthlyRows(tx, items[i].ID); err != nil {
				return err
			}
		}
		expense.Items = items
		return nil
	})
}

func (r *OMExpenseRepository) UpdateHeader(ctx context.Context, expense *model.OMExpense) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(expense).Error
}

// AddItem appends an item with its twelve monthly rows and refreshes the
// header totals in the same transaction.
func (r *OMExpenseRepository) AddItem(ctx context.Context, item *model.OMExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		if err := createMonthlyRows(tx, item.ID); err != nil {
			return err
		}
		return recomputeHeaderTotals(tx, item.OMExpenseID)
	})
}

func (r *OMExpenseRepository) UpdateItem(ctx context.Context, item *model.OMExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return err
		}
		return recomputeHeaderTotals(tx, item.OMExpenseID)
	})
}

func (r *OMExpenseRepository) RemoveItem(ctx context.Context, item *model.OMExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("om_expense_item_id = ?", item.ID).Delete(&model.OMExpenseMonthly{}).Error
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.OMExpenseItem{}, "id = ?", item.ID).Error; err != nil {
			return err
		}
		return recomputeHeaderTotals(tx, item.OMExpenseID)
	})
}

func (r *OMExpenseRepository) ReorderItems(ctx context.Context, expenseID uuid.UUID, itemIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, itemID := range itemIDs {
			err := tx.Model(&model.OMExpenseItem{}).
				Where("id = ? AND om_expense_id = ?", itemID, expenseID).
				Update("sort_order", i).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceMonthly overwrites the item's twelve monthly amounts, then
// recomputes the item's actual spend and the header totals so the
// aggregates never drift from the monthly rows.
func (r *OMExpenseRepository) ReplaceMonthly(ctx context.Context, item *model.OMExpenseItem, amounts map[int]float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actual := 0.0
		for month := 1; month <= 12; month++ {
			amount := amounts[month]
			actual += amount
			row := model.OMExpenseMonthly{
				ID:           uuid.New(),
				ItemID:       item.ID,
				Month:        month,
				ActualAmount: amount,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "om_expense_item_id"}, {Name: "month"}},
				DoUpdates: clause.AssignmentColumns([]string{"actual_amount", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}

		err := tx.Model(&model.OMExpenseItem{}).Where("id = ?", item.ID).
			Update("actual_spent", actual).Error
		if err != nil {
			return err
		}
		item.ActualSpent = actual
		return recomputeHeaderTotals(tx, item.OMExpenseID)
	})
}

func (r *OMExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteExpenseTree(tx, []uuid.UUID{id})
	})
}

// DeleteMany removes the given headers with their items and monthly rows
// and reports how many headers actually existed.
func (r *OMExpenseRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		err := tx.Model(&model.OMExpense{}).Where("id IN ?", ids).Pluck("id", &existing).Error
		if err != nil {
			return err
		}
		deleted = int64(len(existing))
		if len(existing) == 0 {
			return nil
		}
		return deleteExpenseTree(tx, existing)
	})
	return deleted, err
}

func (r *OMExpenseRepository) BySourceExpense(ctx context.Context, expenseID uuid.UUID) ([]model.OMExpense, error) {
	var expenses []model.OMExpense
	err := r.db.WithContext(ctx).
		Where("source_expense_id = ?", expenseID).
		Order("financial_year DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// FindPrevious looks up the same expense (by name and category) in the
// given financial year, for year-over-year comparison.
func (r *OMExpenseRepository) FindPrevious(ctx context.Context, name, category string, financialYear int) (*model.OMExpense, error) {
	var expense model.OMExpense
	err := r.db.WithContext(ctx).
		Where("name = ? AND category = ? AND financial_year = ?", name, category, financialYear).
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *OMExpenseRepository) MonthlyTotals(ctx context.Context, financialYear int, opCoID uuid.UUID) ([]model.MonthlyTotal, error) {
	query := r.db.WithContext(ctx).
		Table("om_expense_monthlies m").
		Select("m.month AS month, COALESCE(SUM(m.actual_amount), 0) AS total_amount").
		Joins("JOIN om_expense_items i ON i.id = m.om_expense_item_id").
		Joins("JOIN om_expenses e ON e.id = i.om_expense_id").
		Where("e.financial_year = ?", financialYear)
	if opCoID != uuid.Nil {
		query = query.Where("i.op_co_id = ?", opCoID)
	}

	var rows []model.MonthlyTotal
	if err := query.Group("m.month").Order("m.month ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	byMonth := make(map[int]float64, len(rows))
	for _, row := range rows {
		byMonth[row.Month] = row.TotalAmount
	}
	totals := make([]model.MonthlyTotal, 12)
	for month := 1; month <= 12; month++ {
		totals[month-1] = model.MonthlyTotal{Month: month, TotalAmount: byMonth[month]}
	}
	return totals, nil
}

func (r *OMExpenseRepository) ListCategories(ctx context.Context, activeOnly bool) ([]model.OMExpenseCategory, error) {
	query := r.db.WithContext(ctx).Model(&model.OMExpenseCategory{})
	if activeOnly {
		query = query.Where("active = true")
	}
	var categories []model.OMExpenseCategory
	if err := query.Order("sort_order ASC, code ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *OMExpenseRepository) GetCategory(ctx context.Context, id uuid.UUID) (*model.OMExpenseCategory, error) {
	var category model.OMExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *OMExpenseRepository) GetCategoryByCode(ctx context.Context, code string) (*model.OMExpenseCategory, error) {
	var category model.OMExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *OMExpenseRepository) CreateCategory(ctx context.Context, category *model.OMExpenseCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *OMExpenseRepository) UpdateCategory(ctx context.Context, category *model.OMExpenseCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *OMExpenseRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.OMExpenseCategory{}, "id = ?", id).Error
}

// CategoryUsage counts the headers filed under the category name.
func (r *OMExpenseRepository) CategoryUsage(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OMExpense{}).
		Where("category = ?", name).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func createMonthlyRows(tx *gorm.DB, itemID uuid.UUID) error {
	rows := make([]model.OMExpenseMonthly, 12)
	for month := 1; month <= 12; month++ {
		rows[month-1] = model.OMExpenseMonthly{
			ID:     uuid.New(),
			ItemID: itemID,
			Month:  month,
		}
	}
	return tx.Create(&rows).Error
}

func recomputeHeaderTotals(tx *gorm.DB, expenseID uuid.UUID) error {
	var totals struct {
		Budget float64
		Actual float64
	}
	err := tx.Model(&model.OMExpenseItem{}).
		Select("COALESCE(SUM(budget_amount), 0) AS budget, COALESCE(SUM(actual_spent), 0) AS actual").
		Where("om_expense_id = ?", expenseID).
		Scan(&totals).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.OMExpense{}).Where("id = ?", expenseID).
		Updates(map[string]interface{}{
			"total_budget_amount": totals.Budget,
			"total_actual_spent":  totals.Actual,
		}).Error
}

func deleteExpenseTree(tx *gorm.DB, ids []uuid.UUID) error {
	err := tx.Where(
		"om_expense_item_id IN (SELECT id FROM om_expense_items WHERE om_expense_id IN ?)", ids,
	).Delete(&model.OMExpenseMonthly{}).Error
	if err != nil {
		return err
	}
	if err := tx.Where("om_expense_id IN ?", ids).Delete(&model.OMExpenseItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.OMExpense{}, "id IN ?", ids).Error
}
