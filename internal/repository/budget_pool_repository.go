package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

type BudgetPoolRepository struct {
	db *gorm.DB
}

func NewBudgetPoolRepository(db *gorm.DB) *BudgetPoolRepository {
	return &BudgetPoolRepository{db: db}
}

func (r *BudgetPoolRepository) List(ctx context.Context, financialYear int) ([]model.BudgetPool, error) {
	query := r.db.WithContext(ctx).Model(&model.BudgetPool{}).
		Preload("Projects")
	if financialYear != 0 {
		query = query.Where("financial_year = ?", financialYear)
	}

	var pools []model.BudgetPool
	if err := query.Order("financial_year DESC, name ASC").Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *BudgetPoolRepository) Get(ctx context.Context, id uuid.UUID) (*model.BudgetPool, error) {
	var pool model.BudgetPool
	err := r.db.WithContext(ctx).
		Preload("Projects").
		First(&pool, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *BudgetPoolRepository) Create(ctx context.Context, pool *model.BudgetPool) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(pool).Error
}

func (r *BudgetPoolRepository) Update(ctx context.Context, pool *model.BudgetPool) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(pool).Error
}

func (r *BudgetPoolRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.BudgetPool{}, "id = ?", id).Error
}

func (r *BudgetPoolRepository) ProjectCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("budget_pool_id = ?", id).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BudgetPoolRepository) Stats(ctx context.Context) ([]model.BudgetPoolStats, error) {
	var stats []model.BudgetPoolStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			bp.id AS pool_id,
			bp.name,
			bp.financial_year,
			bp.total_amount,
			bp.used_amount,
			bp.total_amount - bp.used_amount AS remaining,
			COALESCE((
				SELECT COUNT(*) FROM projects p WHERE p.budget_pool_id = bp.id
			), 0) AS project_count
		FROM budget_pools bp
		ORDER BY bp.financial_year DESC, bp.name ASC
	`).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
