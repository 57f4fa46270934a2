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

// VendorStore covers the procurement reference data: vendors, their quotes
// and the operating companies charge-outs are billed to.
type VendorStore interface {
	List(ctx context.Context) ([]model.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	GetByName(ctx context.Context, name string) (*model.Vendor, error)
	Create(ctx context.Context, vendor *model.Vendor) error
	Update(ctx context.Context, vendor *model.Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
	References(ctx context.Context, id uuid.UUID) (quotes int64, purchaseOrders int64, err error)
	ListQuotes(ctx context.Context, projectID uuid.UUID) ([]model.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	CreateQuote(ctx context.Context, quote *model.Quote) error
	UpdateQuote(ctx context.Context, quote *model.Quote) error
	DeleteQuote(ctx context.Context, id uuid.UUID) error
	QuoteSelected(ctx context.Context, id uuid.UUID) (bool, error)
	ListOperatingCompanies(ctx context.Context, activeOnly bool) ([]model.OperatingCompany, error)
	GetOperatingCompany(ctx context.Context, id uuid.UUID) (*model.OperatingCompany, error)
}

type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// CatalogService handles the thin reference-data CRUD around the workflow
// entities.
type CatalogService struct {
	vendors  VendorStore
	users    UserStore
	projects ProjectStore
}

func NewCatalogService(vendors VendorStore, users UserStore, projects ProjectStore) *CatalogService {
	return &CatalogService{vendors: vendors, users: users, projects: projects}
}

func (s *CatalogService) ListVendors(ctx context.Context) ([]model.Vendor, error) {
	return s.vendors.List(ctx)
}

func (s *CatalogService) GetVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, err := s.vendors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該供應商")
		}
		return nil, err
	}
	return vendor, nil
}

type VendorInput struct {
	Name          string
	ContactPerson string
	ContactEmail  string
	Phone         string
}

func (s *CatalogService) CreateVendor(ctx context.Context, principal model.Principal, input VendorInput) (*model.Vendor, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if _, err := s.vendors.GetByName(ctx, input.Name); err == nil {
		return nil, invalid("供應商名稱已存在")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vendor := &model.Vendor{
		ID:            uuid.New(),
		Name:          input.Name,
		ContactPerson: input.ContactPerson,
		ContactEmail:  input.ContactEmail,
		Phone:         input.Phone,
	}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *CatalogService) UpdateVendor(ctx context.Context, principal model.Principal, id uuid.UUID, input VendorInput) (*model.Vendor, error) {
	vendor, err := s.GetVendor(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" && input.Name != vendor.Name {
		if _, err := s.vendors.GetByName(ctx, input.Name); err == nil {
			return nil, invalid("供應商名稱已存在")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		vendor.Name = input.Name
	}
	vendor.ContactPerson = input.ContactPerson
	vendor.ContactEmail = input.ContactEmail
	vendor.Phone = input.Phone

	if err := s.vendors.Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *CatalogService) DeleteVendor(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.GetVendor(ctx, id); err != nil {
		return err
	}

	quotes, purchaseOrders, err := s.vendors.References(ctx, id)
	if err != nil {
		return err
	}
	if quotes > 0 || purchaseOrders > 0 {
		return invalid(fmt.Sprintf("無法刪除供應商，因為有 %d 個報價單和 %d 個採購單與之關聯", quotes, purchaseOrders))
	}
	return s.vendors.Delete(ctx, id)
}

func (s *CatalogService) ListQuotes(ctx context.Context, projectID uuid.UUID) ([]model.Quote, error) {
	return s.vendors.ListQuotes(ctx, projectID)
}

type QuoteInput struct {
	FilePath  string
	Amount    float64
	VendorID  uuid.UUID
	ProjectID uuid.UUID
}

// CreateQuote uploads a vendor quote against a project. Quotes are only
// accepted once the project has an approved budget.
func (s *CatalogService) CreateQuote(ctx context.Context, principal model.Principal, input QuoteInput) (*model.Quote, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if input.VendorID == uuid.Nil {
		return nil, fmt.Errorf("%w: vendor is required", ErrInvalidInput)
	}

	project, err := s.projects.Get(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該專案")
		}
		return nil, err
	}
	if project.ApprovedBudget == nil {
		return nil, invalid("只有已批准提案的專案才能上傳報價單")
	}

	quote := &model.Quote{
		ID:         uuid.New(),
		FilePath:   input.FilePath,
		UploadDate: time.Now(),
		Amount:     input.Amount,
		VendorID:   input.VendorID,
		ProjectID:  input.ProjectID,
	}
	if err := s.vendors.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *CatalogService) UpdateQuote(ctx context.Context, principal model.Principal, id uuid.UUID, amount float64) (*model.Quote, error) {
	quote, err := s.vendors.GetQuote(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("找不到該報價單")
		}
		return nil, err
	}

	selected, err := s.vendors.QuoteSelected(ctx, id)
	if err != nil {
		return nil, err
	}
	if selected {
		return nil, invalid("該報價單已被選為採購單，無法修改")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	quote.Amount = amount
	if err := s.vendors.UpdateQuote(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *CatalogService) DeleteQuote(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.vendors.GetQuote(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("找不到該報價單")
		}
		return err
	}

	selected, err := s.vendors.QuoteSelected(ctx, id)
	if err != nil {
		return err
	}
	if selected {
		return invalid("該報價單已被選為採購單，無法刪除")
	}
	return s.vendors.DeleteQuote(ctx, id)
}

func (s *CatalogService) ListOperatingCompanies(ctx context.Context, activeOnly bool) ([]model.OperatingCompany, error) {
	return s.vendors.ListOperatingCompanies(ctx, activeOnly)
}

func (s *CatalogService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *CatalogService) ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.users.ListByRole(ctx, role)
}
