package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type PurchaseOrderFilter struct {
	Status    model.POStatus
	ProjectID uuid.UUID
	VendorID  uuid.UUID
	Search    string
}

type PurchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

func (r *PurchaseOrderRepository) List(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Preload("Project").
		Preload("Vendor")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != uuid.Nil {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.VendorID != uuid.Nil {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.Search != "" {
		query = query.Where("po_number ILIKE ? OR name ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var orders []model.PurchaseOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PurchaseOrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Vendor").
		Preload("Quote").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Expenses").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateWithItems inserts the header and its items atomically.
func (r *PurchaseOrderRepository) CreateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PurchaseOrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

// UpdateWithItems replaces the item set and rewrites the header atomically.
func (r *PurchaseOrderRepository) UpdateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", order.ID).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PurchaseOrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	})
}

func (r *PurchaseOrderRepository) Update(ctx context.Context, order *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *PurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&model.PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.PurchaseOrder{}, "id = ?", id).Error
	})
}

func (r *PurchaseOrderRepository) ExpenseCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Expense{}).
		Where("purchase_order_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PurchaseOrderRepository) Stats(ctx context.Context) (*model.PurchaseOrderStats, error) {
	var stats model.PurchaseOrderStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_count,
			COUNT(*) FILTER (WHERE status = 'Draft') AS draft_count,
			COUNT(*) FILTER (WHERE status = 'Submitted') AS submitted_count,
			COUNT(*) FILTER (WHERE status = 'Approved') AS approved_count,
			COALESCE(SUM(total_amount), 0) AS total_amount,
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'Approved'), 0) AS approved_amount
		FROM purchase_orders
	`).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
