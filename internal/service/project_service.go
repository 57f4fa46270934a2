package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

type ProjectStore interface {
	List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Attachments(ctx context.Context, id uuid.UUID) (proposals int64, purchaseOrders int64, err error)
	BudgetUsage(ctx context.Context, id uuid.UUID) (*model.ProjectBudgetUsage, error)
	UnpaidExpenseCount(ctx context.Context, id uuid.UUID) (int64, error)
}

// ExcelGenerator builds the downloadable summary workbooks.
type ExcelGenerator interface {
	ProjectsWorkbook(projects []model.Project) ([]byte, error)
	BudgetPoolsWorkbook(stats []model.BudgetPoolStats) ([]byte, error)
}

type ProjectService struct {
	store ProjectStore
	excel ExcelGenerator
}

func NewProjectService(store ProjectStore, excel ExcelGenerator) *ProjectService {
	return &ProjectService{store: store, excel: excel}
}

func (s *ProjectService) List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	return s.store.List(ctx, filter)
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該專案")
		}
		return nil, err
	}
	return project, nil
}

type CreateProjectInput struct {
	Name            string
	Description     string
	ManagerID       uuid.UUID
	SupervisorID    uuid.UUID
	BudgetPoolID    uuid.UUID
	RequestedBudget float64
	StartDate       *time.Time
	EndDate         *time.Time
}

func (s *ProjectService) Create(ctx context.Context, principal model.Principal, input CreateProjectInput) (*model.Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.ManagerID == uuid.Nil || input.SupervisorID == uuid.Nil {
		return nil, fmt.Errorf("%w: manager and supervisor are required", ErrInvalidInput)
	}
	if input.BudgetPoolID == uuid.Nil {
		return nil, fmt.Errorf("%w: budget pool is required", ErrInvalidInput)
	}
	if input.RequestedBudget < 0 {
		return nil, fmt.Errorf("%w: requested budget must not be negative", ErrInvalidInput)
	}

	project := &model.Project{
		ID:              uuid.New(),
		Name:            input.Name,
		Description:     input.Description,
		Status:          model.ProjectStatusDraft,
		ManagerID:       input.ManagerID,
		SupervisorID:    input.SupervisorID,
		BudgetPoolID:    input.BudgetPoolID,
		RequestedBudget: input.RequestedBudget,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
	}
	if err := s.store.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

type UpdateProjectInput struct {
	ID              uuid.UUID
	Name            *string
	Description     *string
	RequestedBudget *float64
	StartDate       *time.Time
	EndDate         *time.Time
}

func (s *ProjectService) Update(ctx context.Context, principal model.Principal, input UpdateProjectInput) (*model.Project, error) {
	project, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.RequestedBudget != nil {
		if *input.RequestedBudget < 0 {
			return nil, fmt.Errorf("%w: requested budget must not be negative", ErrInvalidInput)
		}
		project.RequestedBudget = *input.RequestedBudget
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}

	if err := s.store.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	proposals, purchaseOrders, err := s.store.Attachments(ctx, id)
	if err != nil {
		return err
	}
	if proposals > 0 || purchaseOrders > 0 {
		return invalid(fmt.Sprintf("無法刪除專案：此專案有 %d 個預算提案和 %d 個採購單與之關聯", proposals, purchaseOrders))
	}
	return s.store.Delete(ctx, id)
}

func (s *ProjectService) BudgetUsage(ctx context.Context, id uuid.UUID) (*model.ProjectBudgetUsage, error) {
	usage, err := s.store.BudgetUsage(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該專案")
		}
		return nil, err
	}
	return usage, nil
}

// CompleteChargeOut closes out a project once every expense has been paid,
// stamping the charge-out date and moving the project to Completed.
func (s *ProjectService) CompleteChargeOut(ctx context.Context, principal model.Principal, id uuid.UUID, chargeOutDate time.Time) (*model.Project, error) {
	if !principal.IsSupervisor() {
		return nil, ErrPermissionDenied
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.ProjectFlow.Step(project.Status, model.ProjectStatusCompleted); err != nil {
		return nil, badTransition(fmt.Sprintf("只有進行中的專案可以結案（當前狀態：%s）", project.Status))
	}

	unpaid, err := s.store.UnpaidExpenseCount(ctx, id)
	if err != nil {
		return nil, err
	}
	if unpaid > 0 {
		return nil, invalid(fmt.Sprintf("尚有 %d 筆費用未支付，無法完成專案轉嫁", unpaid))
	}

	project.Status = model.ProjectStatusCompleted
	project.ChargeOutDate = &chargeOutDate

	if err := s.store.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) ExportXLSX(ctx context.Context, filter repository.ProjectFilter) (string, []byte, error) {
	projects, err := s.store.List(ctx, filter)
	if err != nil {
		return "", nil, err
	}
	content, err := s.excel.ProjectsWorkbook(projects)
	if err != nil {
		return "", nil, err
	}
	fileName := fmt.Sprintf("projects-%s.xlsx", time.Now().Format("20060102"))
	return fileName, content, nil
}
