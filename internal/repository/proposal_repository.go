package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/itops-hk/itpm-service/internal/model"
)

// ProposalFilter narrows List results. Zero values mean "no filter".
type ProposalFilter struct {
	Status    model.ProposalStatus
	ProjectID uuid.UUID
	Search    string
}

// ProposalTransition bundles every row touched by a proposal status change.
// ApplyTransition writes all of it in one transaction so the proposal, the
// project aggregate, the audit trail and the notification commit together.
type ProposalTransition struct {
	Proposal     *model.BudgetProposal
	Project      *model.Project
	History      *model.History
	Comment      *model.Comment
	Notification *model.Notification
}

type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) List(ctx context.Context, filter ProposalFilter) ([]model.BudgetProposal, error) {
	query := r.db.WithContext(ctx).Model(&model.BudgetProposal{}).
		Preload("Project")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ProjectID != uuid.Nil {
		query = query.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filter.Search+"%")
	}

	var proposals []model.BudgetProposal
	if err := query.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *ProposalRepository) Get(ctx context.Context, id uuid.UUID) (*model.BudgetProposal, error) {
	var proposal model.BudgetProposal
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Project.Manager").
		Preload("Project.Supervisor").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		Preload("HistoryItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("HistoryItems.User").
		First(&proposal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *model.BudgetProposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *ProposalRepository) Update(ctx context.Context, proposal *model.BudgetProposal) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(proposal).Error
}

func (r *ProposalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_proposal_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("budget_proposal_id = ?", id).Delete(&model.History{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BudgetProposal{}, "id = ?", id).Error
	})
}

func (r *ProposalRepository) AddComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *ProposalRepository) ApplyTransition(ctx context.Context, t ProposalTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(t.Proposal).Error; err != nil {
			return err
		}
		if t.Project != nil {
			if err := tx.Omit(clause.Associations).Save(t.Project).Error; err != nil {
				return err
			}
		}
		if t.History != nil {
			if err := tx.Create(t.History).Error; err != nil {
				return err
			}
		}
		if t.Comment != nil {
			if err := tx.Create(t.Comment).Error; err != nil {
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
