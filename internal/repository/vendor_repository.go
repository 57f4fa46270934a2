package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
)

// VendorRepository also covers quotes and operating companies: thin reference
// data that feeds the procurement and charge-out flows.
type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) List(ctx context.Context) ([]model.Vendor, error) {
	var vendors []model.Vendor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *VendorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *VendorRepository) GetByName(ctx context.Context, name string) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *VendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *VendorRepository) Update(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

func (r *VendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Vendor{}, "id = ?", id).Error
}

// References counts the quotes and purchase orders pointing at the vendor.
func (r *VendorRepository) References(ctx context.Context, id uuid.UUID) (quotes int64, purchaseOrders int64, err error) {
	if err = r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("vendor_id = ?", id).Count(&quotes).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("vendor_id = ?", id).Count(&purchaseOrders).Error; err != nil {
		return 0, 0, err
	}
	return quotes, purchaseOrders, nil
}

func (r *VendorRepository) ListQuotes(ctx context.Context, projectID uuid.UUID) ([]model.Quote, error) {
	query := r.db.WithContext(ctx).Model(&model.Quote{}).Preload("Vendor")
	if projectID != uuid.Nil {
		query = query.Where("project_id = ?", projectID)
	}

	var quotes []model.Quote
	if err := query.Order("upload_date DESC").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *VendorRepository) GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	var quote model.Quote
	if err := r.db.WithContext(ctx).Preload("Vendor").First(&quote, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *VendorRepository) CreateQuote(ctx context.Context, quote *model.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *VendorRepository) UpdateQuote(ctx context.Context, quote *model.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *VendorRepository) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Quote{}, "id = ?", id).Error
}

// QuoteSelected reports whether the quote has been chosen on a purchase order.
func (r *VendorRepository) QuoteSelected(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PurchaseOrder{}).
		Where("quote_id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *VendorRepository) ListOperatingCompanies(ctx context.Context, activeOnly bool) ([]model.OperatingCompany, error) {
	query := r.db.WithContext(ctx).Model(&model.OperatingCompany{})
	if activeOnly {
		query = query.Where("is_active = true")
	}

	var companies []model.OperatingCompany
	if err := query.Order("code ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *VendorRepository) GetOperatingCompany(ctx context.Context, id uuid.UUID) (*model.OperatingCompany, error) {
	var company model.OperatingCompany
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
