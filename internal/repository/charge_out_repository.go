package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type ChargeOutFilter struct {
	Status    model.ChargeOutStatus
	ProjectID uuid.UUID
	OpCoID    uuid.UUID
	Search    string
	Limit     int
	Offset    int
}

type ChargeOutRepository struct {
	db *gorm.DB
}

func NewChargeOutRepository(db *gorm.DB) *ChargeOutRepository {
	return &ChargeOutRepository{db: db}
}

func (r *ChargeOutRepository) List(ctx context.Context, filter ChargeOutFilter) ([]model.ChargeOut, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ChargeOut{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != uuid.Nil {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.OpCoID != uuid.Nil {
		query = query.Where("op_co_id = ?", filter.OpCoID)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR debit_note_number ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Project").Preload("OpCo").Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var chargeOuts []model.ChargeOut
	if err := query.Find(&chargeOuts).Error; err != nil {
		return nil, 0, err
	}
	return chargeOuts, total, nil
}

func (r *ChargeOutRepository) Get(ctx context.Context, id uuid.UUID) (*model.ChargeOut, error) {
	var chargeOut model.ChargeOut
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Project.Manager").
		Preload("OpCo").
		Preload("Confirmer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Items.Expense").
		First(&chargeOut, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &chargeOut, nil
}

func (r *ChargeOutRepository) CreateWithItems(ctx context.Context, chargeOut *model.ChargeOut, items []model.ChargeOutItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(chargeOut).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ChargeOutID = chargeOut.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		chargeOut.Items = items
		return nil
	})
}

func (r *ChargeOutRepository) Update(ctx context.Context, chargeOut *model.ChargeOut) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(chargeOut).Error
}

// ReplaceItems applies a full-replace batch: delete the flagged rows, upsert
// the rest, then recompute the parent's total from the surviving rows. All of
// it commits in one transaction so the total never drifts from the item sum.
func (r *ChargeOutRepository) ReplaceItems(ctx context.Context, chargeOut *model.ChargeOut, deleteIDs []uuid.UUID, upserts []model.ChargeOutItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(deleteIDs) > 0 {
			err := tx.Where("charge_out_id = ? AND id IN ?", chargeOut.ID, deleteIDs).
				Delete(&model.ChargeOutItem{}).Error
			if err != nil {
				return err
			}
		}

		for i := range upserts {
			upserts[i].ChargeOutID = chargeOut.ID
			if err := tx.Omit(clause.Associations).Save(&upserts[i]).Error; err != nil {
				return err
			}
		}

		var remaining []model.ChargeOutItem
		err := tx.Where("charge_out_id = ?", chargeOut.ID).
			Order("sort_order ASC").Find(&remaining).Error
		if err != nil {
			return err
		}

		total := 0.0
		for _, item := range remaining {
			total += item.Amount
		}

		chargeOut.TotalAmount = total
		chargeOut.Items = remaining
		return tx.Model(&model.ChargeOut{}).Where("id = ?", chargeOut.ID).
			Update("total_amount", total).Error
	})
}

func (r *ChargeOutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("charge_out_id = ?", id).Delete(&model.ChargeOutItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChargeOut{}, "id = ?", id).Error
	})
}

// EligibleExpenses lists the project's expenses that may be charged out:
// flagged for charge-out and already approved or paid.
func (r *ChargeOutRepository) EligibleExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).
		Where(
			"requires_charge_out = true AND status IN ? AND purchase_order_id IN (SELECT id FROM purchase_orders WHERE project_id = ?)",
			[]model.ExpenseStatus{model.ExpenseStatusApproved, model.ExpenseStatusPaid},
			projectID,
		).
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *ChargeOutRepository) ExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Expense, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var expenses []model.Expense
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}
