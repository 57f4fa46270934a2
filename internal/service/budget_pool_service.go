package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
)

type BudgetPoolStore interface {
	List(ctx context.Context, financialYear int) ([]model.BudgetPool, error)
	Get(ctx context.Context, id uuid.UUID) (*model.BudgetPool, error)
	Create(ctx context.Context, pool *model.BudgetPool) error
	Update(ctx context.Context, pool *model.BudgetPool) error
	Delete(ctx context.Context, id uuid.UUID) error
	ProjectCount(ctx context.Context, id uuid.UUID) (int64, error)
	Stats(ctx context.Context) ([]model.BudgetPoolStats, error)
}

type BudgetPoolService struct {
	store BudgetPoolStore
	excel ExcelGenerator
}

func NewBudgetPoolService(store BudgetPoolStore, excel ExcelGenerator) *BudgetPoolService {
	return &BudgetPoolService{store: store, excel: excel}
}

func (s *BudgetPoolService) List(ctx context.Context, financialYear int) ([]model.BudgetPool, error) {
	return s.store.List(ctx, financialYear)
}

func (s *BudgetPoolService) Get(ctx context.Context, id uuid.UUID) (*model.BudgetPool, error) {
	pool, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該預算池")
		}
		return nil, err
	}
	return pool, nil
}

type BudgetPoolInput struct {
	Name          string
	TotalAmount   float64
	FinancialYear int
	Description   string
}

func (s *BudgetPoolService) Create(ctx context.Context, principal model.Principal, input BudgetPoolInput) (*model.BudgetPool, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total amount must be positive", ErrInvalidInput)
	}
	if input.FinancialYear == 0 {
		return nil, fmt.Errorf("%w: financial year is required", ErrInvalidInput)
	}

	pool := &model.BudgetPool{
		ID:            uuid.New(),
		Name:          input.Name,
		TotalAmount:   input.TotalAmount,
		FinancialYear: input.FinancialYear,
		Description:   input.Description,
	}
	if err := s.store.Create(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

type UpdateBudgetPoolInput struct {
	ID          uuid.UUID
	Name        *string
	TotalAmount *float64
	Description *string
}

func (s *BudgetPoolService) Update(ctx context.Context, principal model.Principal, input UpdateBudgetPoolInput) (*model.BudgetPool, error) {
	pool, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		pool.Name = *input.Name
	}
	if input.TotalAmount != nil {
		if *input.TotalAmount < pool.UsedAmount {
			return nil, invalid(fmt.Sprintf("總預算不能低於已使用金額（已使用：%s）", formatAmount(pool.UsedAmount)))
		}
		pool.TotalAmount = *input.TotalAmount
	}
	if input.Description != nil {
		pool.Description = *input.Description
	}

	if err := s.store.Update(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

func (s *BudgetPoolService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.store.ProjectCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return invalid(fmt.Sprintf("無法刪除預算池，因為有 %d 個專案與之關聯", count))
	}
	return s.store.Delete(ctx, id)
}

func (s *BudgetPoolService) Stats(ctx context.Context) ([]model.BudgetPoolStats, error) {
	return s.store.Stats(ctx)
}

func (s *BudgetPoolService) ExportXLSX(ctx context.Context) (string, []byte, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return "", nil, err
	}
	content, err := s.excel.BudgetPoolsWorkbook(stats)
	if err != nil {
		return "", nil, err
	}
	fileName := fmt.Sprintf("budget-pools-%s.xlsx", time.Now().Format("20060102"))
	return fileName, content, nil
}
