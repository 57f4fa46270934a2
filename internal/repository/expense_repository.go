package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type ExpenseFilter struct {
	Status          model.ExpenseStatus
	PurchaseOrderID uuid.UUID
	ProjectID       uuid.UUID
	Search          string
	Limit           int
	Offset          int
}

// ExpenseTransition bundles the rows written by an expense status change.
// PoolDelta, when non-zero, is added to the budget pool's used amount inside
// the same transaction as the status write.
type ExpenseTransition struct {
	Expense      *model.Expense
	PoolID       uuid.UUID
	PoolDelta    float64
	Notification *model.Notification
}

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) List(ctx context.Context, filter ExpenseFilter) ([]model.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Expense{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PurchaseOrderID != uuid.Nil {
		query = query.Where("purchase_order_id = ?", filter.PurchaseOrderID)
	}
	if filter.ProjectID != uuid.Nil {
		query = query.Where(
			"purchase_order_id IN (SELECT id FROM purchase_orders WHERE project_id = ?)",
			filter.ProjectID,
		)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR invoice_number ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("PurchaseOrder").Preload("PurchaseOrder.Project").
		Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var expenses []model.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// Get loads the expense with its purchase order, project and budget pool so
// services can check approval preconditions off the loaded row.
func (r *ExpenseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("PurchaseOrder").
		Preload("PurchaseOrder.Project").
		Preload("PurchaseOrder.Project.BudgetPool").
		First(&expense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *ExpenseRepository) CreateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(expense).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ExpenseID = expense.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		expense.Items = items
		return nil
	})
}

func (r *ExpenseRepository) UpdateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&model.ExpenseItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ExpenseID = expense.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(expense).Error; err != nil {
			return err
		}
		expense.Items = items
		return nil
	})
}

func (r *ExpenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(expense).Error
}

func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", id).Delete(&model.ExpenseItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Expense{}, "id = ?", id).Error
	})
}

func (r *ExpenseRepository) ItemCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ExpenseItem{}).
		Where("expense_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ExpenseRepository) ApplyTransition(ctx context.Context, t ExpenseTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(t.Expense).Error; err != nil {
			return err
		}
		if t.PoolID != uuid.Nil && t.PoolDelta != 0 {
			err := tx.Exec(`
				UPDATE budget_pools SET used_amount = used_amount + ? WHERE id = ?
			`, t.PoolDelta, t.PoolID).Error
			if err != nil {
				return err
			}
		}
		if t.Notification != nil {
			if err := tx.Create(t.Notification).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
