package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
)

type fakeVendorStore struct {
	vendors       map[uuid.UUID]*model.Vendor
	quotes        map[uuid.UUID]*model.Quote
	companies     []model.OperatingCompany
	references    [2]int64
	selectedQuote map[uuid.UUID]bool
}

func newFakeVendorStore(vendors ...*model.Vendor) *fakeVendorStore {
	s := &fakeVendorStore{
		vendors:       map[uuid.UUID]*model.Vendor{},
		quotes:        map[uuid.UUID]*model.Quote{},
		selectedQuote: map[uuid.UUID]bool{},
	}
	for _, v := range vendors {
		s.vendors[v.ID] = v
	}
	return s
}

func (s *fakeVendorStore) List(ctx context.Context) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, v := range s.vendors {
		out = append(out, *v)
	}
	return out, nil
}

func (s *fakeVendorStore) Get(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	v, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (s *fakeVendorStore) GetByName(ctx context.Context, name string) (*model.Vendor, error) {
	for _, v := range s.vendors {
		if v.Name == name {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeVendorStore) Create(ctx context.Context, vendor *model.Vendor) error {
	s.vendors[vendor.ID] = vendor
	return nil
}

func (s *fakeVendorStore) Update(ctx context.Context, vendor *model.Vendor) error {
	s.vendors[vendor.ID] = vendor
	return nil
}

func (s *fakeVendorStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.vendors, id)
	return nil
}

func (s *fakeVendorStore) References(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	return s.references[0], s.references[1], nil
}

func (s *fakeVendorStore) ListQuotes(ctx context.Context, projectID uuid.UUID) ([]model.Quote, error) {
	var out []model.Quote
	for _, q := range s.quotes {
		if q.ProjectID == projectID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *fakeVendorStore) GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	q, ok := s.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (s *fakeVendorStore) CreateQuote(ctx context.Context, quote *model.Quote) error {
	s.quotes[quote.ID] = quote
	return nil
}

func (s *fakeVendorStore) UpdateQuote(ctx context.Context, quote *model.Quote) error {
	s.quotes[quote.ID] = quote
	return nil
}

func (s *fakeVendorStore) DeleteQuote(ctx context.Context, id uuid.UUID) error {
	delete(s.quotes, id)
	return nil
}

func (s *fakeVendorStore) QuoteSelected(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.selectedQuote[id], nil
}

func (s *fakeVendorStore) ListOperatingCompanies(ctx context.Context, activeOnly bool) ([]model.OperatingCompany, error) {
	var out []model.OperatingCompany
	for _, c := range s.companies {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeVendorStore) GetOperatingCompany(ctx context.Context, id uuid.UUID) (*model.OperatingCompany, error) {
	for i := range s.companies {
		if s.companies[i].ID == id {
			return &s.companies[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: map[uuid.UUID]*model.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func newCatalogService(vendors *fakeVendorStore, projects *fakeProjectStore) *CatalogService {
	return NewCatalogService(vendors, newFakeUserStore(), projects)
}

func TestCatalogService_CreateVendor_DuplicateName(t *testing.T) {
	existing := &model.Vendor{ID: uuid.New(), Name: "宏達科技"}
	svc := newCatalogService(newFakeVendorStore(existing), newFakeProjectStore())

	_, err := svc.CreateVendor(context.Background(), managerPrincipal(), VendorInput{Name: "宏達科技"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "供應商名稱已存在", err.Error())
}

func TestCatalogService_DeleteVendor_BlockedByReferences(t *testing.T) {
	vendor := &model.Vendor{ID: uuid.New(), Name: "宏達科技"}
	store := newFakeVendorStore(vendor)
	store.references = [2]int64{2, 1}
	svc := newCatalogService(store, newFakeProjectStore())

	err := svc.DeleteVendor(context.Background(), managerPrincipal(), vendor.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "無法刪除供應商，因為有 2 個報價單和 1 個採購單與之關聯", err.Error())
}

func TestCatalogService_CreateQuote_RequiresApprovedBudget(t *testing.T) {
	project := testProject()
	svc := newCatalogService(newFakeVendorStore(), newFakeProjectStore(project))

	_, err := svc.CreateQuote(context.Background(), managerPrincipal(), QuoteInput{
		Amount:    20000,
		VendorID:  uuid.New(),
		ProjectID: project.ID,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "只有已批准提案的專案才能上傳報價單", err.Error())

	budget := 50000.0
	project.ApprovedBudget = &budget
	quote, err := svc.CreateQuote(context.Background(), managerPrincipal(), QuoteInput{
		Amount:    20000,
		VendorID:  uuid.New(),
		ProjectID: project.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 20000.0, quote.Amount)
}

func TestCatalogService_UpdateQuote_SelectedIsLocked(t *testing.T) {
	quote := &model.Quote{ID: uuid.New(), Amount: 20000, VendorID: uuid.New(), ProjectID: uuid.New()}
	store := newFakeVendorStore()
	store.quotes[quote.ID] = quote
	store.selectedQuote[quote.ID] = true
	svc := newCatalogService(store, newFakeProjectStore())

	_, err := svc.UpdateQuote(context.Background(), managerPrincipal(), quote.ID, 25000)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "該報價單已被選為採購單，無法修改", err.Error())

	err = svc.DeleteQuote(context.Background(), managerPrincipal(), quote.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "該報價單已被選為採購單，無法刪除", err.Error())
}

func TestCatalogService_ListOperatingCompanies_ActiveFilter(t *testing.T) {
	store := newFakeVendorStore()
	store.companies = []model.OperatingCompany{
		{ID: uuid.New(), Code: "HKG", Name: "香港營運公司", IsActive: true},
		{ID: uuid.New(), Code: "TPE", Name: "台北營運公司", IsActive: false},
	}
	svc := newCatalogService(store, newFakeProjectStore())

	all, err := svc.ListOperatingCompanies(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListOperatingCompanies(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "HKG", active[0].Code)
}

func TestCatalogService_ListUsersByRole(t *testing.T) {
	supervisor := &model.User{ID: uuid.New(), Email: "sup@example.com", Name: "李主管", Role: model.RoleSupervisor}
	manager := &model.User{ID: uuid.New(), Email: "pm@example.com", Name: "王小明", Role: model.RoleProjectManager}
	svc := NewCatalogService(newFakeVendorStore(), newFakeUserStore(supervisor, manager), newFakeProjectStore())

	users, err := svc.ListUsersByRole(context.Background(), model.RoleSupervisor)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "李主管", users[0].Name)

	_, err = svc.ListUsersByRole(context.Background(), model.Role("Viewer"))
	require.ErrorIs(t, err, ErrInvalidInput)
}
