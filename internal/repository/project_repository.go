package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type ProjectFilter struct {
	Status       model.ProjectStatus
	ManagerID    uuid.UUID
	BudgetPoolID uuid.UUID
	Search       string
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := r.db.WithContext(ctx).Model(&model.Project{}).
		Preload("Manager").
		Preload("Supervisor").
		Preload("BudgetPool")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ManagerID != uuid.Nil {
		query = query.Where("manager_id = ?", filter.ManagerID)
	}
	if filter.BudgetPoolID != uuid.Nil {
		query = query.Where("budget_pool_id = ?", filter.BudgetPoolID)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var projects []model.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Preload("Supervisor").
		Preload("BudgetPool").
		Preload("Proposals", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("PurchaseOrders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("PurchaseOrders.Vendor").
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error
}

// Attachments counts the dependent rows that block deletion.
func (r *ProjectRepository) Attachments(ctx context.Context, id uuid.UUID) (proposals int64, purchaseOrders int64, err error) {
	if err = r.db.WithContext(ctx).Model(&model.BudgetProposal{}).
		Where("project_id = ?", id).Count(&proposals).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("project_id = ?", id).Count(&purchaseOrders).Error; err != nil {
		return 0, 0, err
	}
	return proposals, purchaseOrders, nil
}

// BudgetUsage recomputes the committed and paid aggregates from source rows.
func (r *ProjectRepository) BudgetUsage(ctx context.Context, id uuid.UUID) (*model.ProjectBudgetUsage, error) {
	var usage model.ProjectBudgetUsage
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			p.id AS project_id,
			COALESCE(p.approved_budget, 0) AS approved_budget,
			COALESCE((
				SELECT SUM(po.total_amount)
				FROM purchase_orders po
				WHERE po.project_id = p.id AND po.status = 'Approved'
			), 0) AS committed_po,
			COALESCE((
				SELECT SUM(e.total_amount)
				FROM expenses e
				JOIN purchase_orders po ON po.id = e.purchase_order_id
				WHERE po.project_id = p.id AND e.status = 'Paid'
			), 0) AS paid_expenses
		FROM projects p
		WHERE p.id = ?
	`, id).Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	if usage.ProjectID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	usage.Remaining = usage.ApprovedBudget - usage.PaidExpenses
	return &usage, nil
}

// UnpaidExpenseCount counts expenses of the project that have not reached Paid.
func (r *ProjectRepository) UnpaidExpenseCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Expense{}).
		Joins("JOIN purchase_orders po ON po.id = expenses.purchase_order_id").
		Where("po.project_id = ? AND expenses.status <> ?", id, model.ExpenseStatusPaid).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
