package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itops-hk/itpm-service/internal/model"
	"github.com/itops-hk/itpm-service/internal/repository"
)

// In-memory store fakes. Each one keeps rows in a map keyed by id and lets a
// test inject a failure on the transactional write path.

type fakeProjectStore struct {
	projects map[uuid.UUID]*model.Project
	updated  []*model.Project
	unpaid   int64
}

func newFakeProjectStore(projects ...*model.Project) *fakeProjectStore {
	s := &fakeProjectStore{projects: map[uuid.UUID]*model.Project{}}
	for _, p := range projects {
		s.projects[p.ID] = p
	}
	return s
}

func (s *fakeProjectStore) List(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	var out []model.Project
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProjectStore) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *fakeProjectStore) Create(ctx context.Context, project *model.Project) error {
	s.projects[project.ID] = project
	return nil
}

func (s *fakeProjectStore) Update(ctx context.Context, project *model.Project) error {
	s.projects[project.ID] = project
	s.updated = append(s.updated, project)
	return nil
}

func (s *fakeProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.projects, id)
	return nil
}

func (s *fakeProjectStore) Attachments(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	return 0, 0, nil
}

func (s *fakeProjectStore) BudgetUsage(ctx context.Context, id uuid.UUID) (*model.ProjectBudgetUsage, error) {
	if _, ok := s.projects[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.ProjectBudgetUsage{ProjectID: id}, nil
}

func (s *fakeProjectStore) UnpaidExpenseCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.unpaid, nil
}

type fakeProposalStore struct {
	proposals     map[uuid.UUID]*model.BudgetProposal
	comments      []*model.Comment
	transitions   []repository.ProposalTransition
	transitionErr error
}

func newFakeProposalStore(proposals ...*model.BudgetProposal) *fakeProposalStore {
	s := &fakeProposalStore{proposals: map[uuid.UUID]*model.BudgetProposal{}}
	for _, p := range proposals {
		s.proposals[p.ID] = p
	}
	return s
}

func (s *fakeProposalStore) List(ctx context.Context, filter repository.ProposalFilter) ([]model.BudgetProposal, error) {
	var out []model.BudgetProposal
	for _, p := range s.proposals {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProposalStore) Get(ctx context.Context, id uuid.UUID) (*model.BudgetProposal, error) {
	p, ok := s.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *fakeProposalStore) Create(ctx context.Context, proposal *model.BudgetProposal) error {
	s.proposals[proposal.ID] = proposal
	return nil
}

func (s *fakeProposalStore) Update(ctx context.Context, proposal *model.BudgetProposal) error {
	s.proposals[proposal.ID] = proposal
	return nil
}

func (s *fakeProposalStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.proposals, id)
	return nil
}

func (s *fakeProposalStore) AddComment(ctx context.Context, comment *model.Comment) error {
	s.comments = append(s.comments, comment)
	return nil
}

func (s *fakeProposalStore) ApplyTransition(ctx context.Context, t repository.ProposalTransition) error {
	if s.transitionErr != nil {
		return s.transitionErr
	}
	s.transitions = append(s.transitions, t)
	s.proposals[t.Proposal.ID] = t.Proposal
	return nil
}

type fakeExpenseStore struct {
	expenses      map[uuid.UUID]*model.Expense
	transitions   []repository.ExpenseTransition
	transitionErr error
}

func newFakeExpenseStore(expenses ...*model.Expense) *fakeExpenseStore {
	s := &fakeExpenseStore{expenses: map[uuid.UUID]*model.Expense{}}
	for _, e := range expenses {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *fakeExpenseStore) List(ctx context.Context, filter repository.ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range s.expenses {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (s *fakeExpenseStore) Get(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (s *fakeExpenseStore) ItemCount(ctx context.Context, expenseID uuid.UUID) (int64, error) {
	e, ok := s.expenses[expenseID]
	if !ok {
		return 0, nil
	}
	return int64(len(e.Items)), nil
}

func (s *fakeExpenseStore) CreateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error {
	expense.Items = items
	s.expenses[expense.ID] = expense
	return nil
}

func (s *fakeExpenseStore) UpdateWithItems(ctx context.Context, expense *model.Expense, items []model.ExpenseItem) error {
	expense.Items = items
	s.expenses[expense.ID] = expense
	return nil
}

func (s *fakeExpenseStore) Update(ctx context.Context, expense *model.Expense) error {
	s.expenses[expense.ID] = expense
	return nil
}

func (s *fakeExpenseStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.expenses, id)
	return nil
}

func (s *fakeExpenseStore) ApplyTransition(ctx context.Context, t repository.ExpenseTransition) error {
	if s.transitionErr != nil {
		return s.transitionErr
	}
	s.transitions = append(s.transitions, t)
	s.expenses[t.Expense.ID] = t.Expense
	return nil
}

type fakePurchaseOrderStore struct {
	orders map[uuid.UUID]*model.PurchaseOrder
}

func newFakePurchaseOrderStore(orders ...*model.PurchaseOrder) *fakePurchaseOrderStore {
	s := &fakePurchaseOrderStore{orders: map[uuid.UUID]*model.PurchaseOrder{}}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakePurchaseOrderStore) List(ctx context.Context, filter repository.PurchaseOrderFilter) ([]model.PurchaseOrder, error) {
	var out []model.PurchaseOrder
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakePurchaseOrderStore) Get(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (s *fakePurchaseOrderStore) CreateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error {
	order.Items = items
	s.orders[order.ID] = order
	return nil
}

func (s *fakePurchaseOrderStore) UpdateWithItems(ctx context.Context, order *model.PurchaseOrder, items []model.PurchaseOrderItem) error {
	order.Items = items
	s.orders[order.ID] = order
	return nil
}

func (s *fakePurchaseOrderStore) Update(ctx context.Context, order *model.PurchaseOrder) error {
	s.orders[order.ID] = order
	return nil
}

func (s *fakePurchaseOrderStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.orders, id)
	return nil
}

func (s *fakePurchaseOrderStore) ExpenseCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *fakePurchaseOrderStore) Stats(ctx context.Context) (*model.PurchaseOrderStats, error) {
	return &model.PurchaseOrderStats{}, nil
}

type fakeChargeOutStore struct {
	chargeOuts map[uuid.UUID]*model.ChargeOut
	expenses   map[uuid.UUID]model.Expense
	deleted    []uuid.UUID
}

func newFakeChargeOutStore(chargeOuts ...*model.ChargeOut) *fakeChargeOutStore {
	s := &fakeChargeOutStore{
		chargeOuts: map[uuid.UUID]*model.ChargeOut{},
		expenses:   map[uuid.UUID]model.Expense{},
	}
	for _, c := range chargeOuts {
		s.chargeOuts[c.ID] = c
	}
	return s
}

func (s *fakeChargeOutStore) addExpense(expense model.Expense) {
	s.expenses[expense.ID] = expense
}

func (s *fakeChargeOutStore) List(ctx context.Context, filter repository.ChargeOutFilter) ([]model.ChargeOut, int64, error) {
	var out []model.ChargeOut
	for _, c := range s.chargeOuts {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (s *fakeChargeOutStore) Get(ctx context.Context, id uuid.UUID) (*model.ChargeOut, error) {
	c, ok := s.chargeOuts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *fakeChargeOutStore) CreateWithItems(ctx context.Context, chargeOut *model.ChargeOut, items []model.ChargeOutItem) error {
	chargeOut.Items = items
	s.chargeOuts[chargeOut.ID] = chargeOut
	return nil
}

func (s *fakeChargeOutStore) Update(ctx context.Context, chargeOut *model.ChargeOut) error {
	s.chargeOuts[chargeOut.ID] = chargeOut
	return nil
}

func (s *fakeChargeOutStore) ReplaceItems(ctx context.Context, chargeOut *model.ChargeOut, deleteIDs []uuid.UUID, upserts []model.ChargeOutItem) error {
	kept := make([]model.ChargeOutItem, 0, len(upserts))
	total := 0.0
	for _, item := range upserts {
		kept = append(kept, item)
		total += item.Amount
	}
	chargeOut.Items = kept
	chargeOut.TotalAmount = total
	s.chargeOuts[chargeOut.ID] = chargeOut
	return nil
}

func (s *fakeChargeOutStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.chargeOuts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeChargeOutStore) EligibleExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error) {
	var out []model.Expense
	for _, e := range s.expenses {
		if e.ChargeOutEligible() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeChargeOutStore) ExpensesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Expense, error) {
	var out []model.Expense
	for _, id := range ids {
		if e, ok := s.expenses[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeOpCoStore struct {
	companies map[uuid.UUID]*model.OperatingCompany
}

func newFakeOpCoStore(companies ...*model.OperatingCompany) *fakeOpCoStore {
	s := &fakeOpCoStore{companies: map[uuid.UUID]*model.OperatingCompany{}}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

func (s *fakeOpCoStore) GetOperatingCompany(ctx context.Context, id uuid.UUID) (*model.OperatingCompany, error) {
	c, ok := s.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

type fakeBudgetPoolStore struct {
	pools        map[uuid.UUID]*model.BudgetPool
	projectCount int64
}

func newFakeBudgetPoolStore(pools ...*model.BudgetPool) *fakeBudgetPoolStore {
	s := &fakeBudgetPoolStore{pools: map[uuid.UUID]*model.BudgetPool{}}
	for _, p := range pools {
		s.pools[p.ID] = p
	}
	return s
}

func (s *fakeBudgetPoolStore) List(ctx context.Context, financialYear int) ([]model.BudgetPool, error) {
	var out []model.BudgetPool
	for _, p := range s.pools {
		if financialYear == 0 || p.FinancialYear == financialYear {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeBudgetPoolStore) Get(ctx context.Context, id uuid.UUID) (*model.BudgetPool, error) {
	p, ok := s.pools[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *fakeBudgetPoolStore) Create(ctx context.Context, pool *model.BudgetPool) error {
	s.pools[pool.ID] = pool
	return nil
}

func (s *fakeBudgetPoolStore) Update(ctx context.Context, pool *model.BudgetPool) error {
	s.pools[pool.ID] = pool
	return nil
}

func (s *fakeBudgetPoolStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.pools, id)
	return nil
}

func (s *fakeBudgetPoolStore) ProjectCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.projectCount, nil
}

func (s *fakeBudgetPoolStore) Stats(ctx context.Context) ([]model.BudgetPoolStats, error) {
	var out []model.BudgetPoolStats
	for _, p := range s.pools {
		out = append(out, model.BudgetPoolStats{
			PoolID:        p.ID,
			Name:          p.Name,
			FinancialYear: p.FinancialYear,
			TotalAmount:   p.TotalAmount,
			UsedAmount:    p.UsedAmount,
			Remaining:     p.RemainingAmount(),
		})
	}
	return out, nil
}

type fakeExcelGenerator struct{}

func (fakeExcelGenerator) ProjectsWorkbook(projects []model.Project) ([]byte, error) {
	return []byte("xlsx"), nil
}

func (fakeExcelGenerator) BudgetPoolsWorkbook(stats []model.BudgetPoolStats) ([]byte, error) {
	return []byte("xlsx"), nil
}

type fakeNotifier struct {
	dispatched []model.Notification
}

func (n *fakeNotifier) Dispatch(ctx context.Context, notification model.Notification) {
	n.dispatched = append(n.dispatched, notification)
}

type fakePDFGenerator struct{}

func (fakePDFGenerator) DebitNote(chargeOut model.ChargeOut) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

type fakeOMExpenseStore struct {
	expenses   map[uuid.UUID]*model.OMExpense
	categories map[uuid.UUID]*model.OMExpenseCategory
}

func newFakeOMExpenseStore(expenses ...*model.OMExpense) *fakeOMExpenseStore {
	s := &fakeOMExpenseStore{
		expenses:   map[uuid.UUID]*model.OMExpense{},
		categories: map[uuid.UUID]*model.OMExpenseCategory{},
	}
	for _, e := range expenses {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *fakeOMExpenseStore) recompute(e *model.OMExpense) {
	budget, actual := 0.0, 0.0
	for _, item := range e.Items {
		budget += item.BudgetAmount
		actual += item.ActualSpent
	}
	e.TotalBudgetAmount = budget
	e.TotalActualSpent = actual
}

func zeroedMonthly(itemID uuid.UUID) []model.OMExpenseMonthly {
	rows := make([]model.OMExpenseMonthly, 0, 12)
	for month := 1; month <= 12; month++ {
		rows = append(rows, model.OMExpenseMonthly{ID: uuid.New(), ItemID: itemID, Month: month})
	}
	return rows
}

func (s *fakeOMExpenseStore) List(ctx context.Context, filter repository.OMExpenseFilter) ([]model.OMExpense, int64, error) {
	var out []model.OMExpense
	for _, e := range s.expenses {
		if filter.FinancialYear != 0 && e.FinancialYear != filter.FinancialYear {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (s *fakeOMExpenseStore) Get(ctx context.Context, id uuid.UUID) (*model.OMExpense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (s *fakeOMExpenseStore) GetItem(ctx context.Context, id uuid.UUID) (*model.OMExpenseItem, error) {
	for _, e := range s.expenses {
		for _, item := range e.Items {
			if item.ID == id {
				found := item
				return &found, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeOMExpenseStore) CreateWithItems(ctx context.Context, expense *model.OMExpense, items []model.OMExpenseItem) error {
	for i := range items {
		items[i].OMExpenseID = expense.ID
		items[i].Monthly = zeroedMonthly(items[i].ID)
	}
	expense.Items = items
	s.expenses[expense.ID] = expense
	return nil
}

func (s *fakeOMExpenseStore) UpdateHeader(ctx context.Context, expense *model.OMExpense) error {
	s.expenses[expense.ID] = expense
	return nil
}

func (s *fakeOMExpenseStore) AddItem(ctx context.Context, item *model.OMExpenseItem) error {
	e, ok := s.expenses[item.OMExpenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Monthly = zeroedMonthly(item.ID)
	e.Items = append(e.Items, *item)
	s.recompute(e)
	return nil
}

func (s *fakeOMExpenseStore) UpdateItem(ctx context.Context, item *model.OMExpenseItem) error {
	e, ok := s.expenses[item.OMExpenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range e.Items {
		if e.Items[i].ID == item.ID {
			item.Monthly = e.Items[i].Monthly
			e.Items[i] = *item
		}
	}
	s.recompute(e)
	return nil
}

func (s *fakeOMExpenseStore) RemoveItem(ctx context.Context, item *model.OMExpenseItem) error {
	e, ok := s.expenses[item.OMExpenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := e.Items[:0]
	for _, existing := range e.Items {
		if existing.ID != item.ID {
			kept = append(kept, existing)
		}
	}
	e.Items = kept
	s.recompute(e)
	return nil
}

func (s *fakeOMExpenseStore) ReorderItems(ctx context.Context, expenseID uuid.UUID, itemIDs []uuid.UUID) error {
	e, ok := s.expenses[expenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for order, id := range itemIDs {
		for i := range e.Items {
			if e.Items[i].ID == id {
				e.Items[i].SortOrder = order
			}
		}
	}
	return nil
}

func (s *fakeOMExpenseStore) ReplaceMonthly(ctx context.Context, item *model.OMExpenseItem, amounts map[int]float64) error {
	e, ok := s.expenses[item.OMExpenseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	actual := 0.0
	rows := make([]model.OMExpenseMonthly, 0, 12)
	for month := 1; month <= 12; month++ {
		actual += amounts[month]
		rows = append(rows, model.OMExpenseMonthly{ID: uuid.New(), ItemID: item.ID, Month: month, ActualAmount: amounts[month]})
	}
	item.ActualSpent = actual
	for i := range e.Items {
		if e.Items[i].ID == item.ID {
			e.Items[i].ActualSpent = actual
			e.Items[i].Monthly = rows
		}
	}
	s.recompute(e)
	return nil
}

func (s *fakeOMExpenseStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.expenses, id)
	return nil
}

func (s *fakeOMExpenseStore) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := s.expenses[id]; ok {
			delete(s.expenses, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeOMExpenseStore) BySourceExpense(ctx context.Context, expenseID uuid.UUID) ([]model.OMExpense, error) {
	var out []model.OMExpense
	for _, e := range s.expenses {
		if e.SourceExpenseID != nil && *e.SourceExpenseID == expenseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeOMExpenseStore) FindPrevious(ctx context.Context, name, category string, financialYear int) (*model.OMExpense, error) {
	for _, e := range s.expenses {
		if e.Name == name && e.Category == category && e.FinancialYear == financialYear {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeOMExpenseStore) MonthlyTotals(ctx context.Context, financialYear int, opCoID uuid.UUID) ([]model.MonthlyTotal, error) {
	totals := make([]model.MonthlyTotal, 0, 12)
	for month := 1; month <= 12; month++ {
		totals = append(totals, model.MonthlyTotal{Month: month})
	}
	for _, e := range s.expenses {
		if e.FinancialYear != financialYear {
			continue
		}
		for _, item := range e.Items {
			if opCoID != uuid.Nil && item.OpCoID != opCoID {
				continue
			}
			for _, row := range item.Monthly {
				totals[row.Month-1].TotalAmount += row.ActualAmount
			}
		}
	}
	return totals, nil
}

func (s *fakeOMExpenseStore) ListCategories(ctx context.Context, activeOnly bool) ([]model.OMExpenseCategory, error) {
	var out []model.OMExpenseCategory
	for _, c := range s.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeOMExpenseStore) GetCategory(ctx context.Context, id uuid.UUID) (*model.OMExpenseCategory, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *fakeOMExpenseStore) GetCategoryByCode(ctx context.Context, code string) (*model.OMExpenseCategory, error) {
	for _, c := range s.categories {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeOMExpenseStore) CreateCategory(ctx context.Context, category *model.OMExpenseCategory) error {
	s.categories[category.ID] = category
	return nil
}

func (s *fakeOMExpenseStore) UpdateCategory(ctx context.Context, category *model.OMExpenseCategory) error {
	s.categories[category.ID] = category
	return nil
}

func (s *fakeOMExpenseStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	delete(s.categories, id)
	return nil
}

func (s *fakeOMExpenseStore) CategoryUsage(ctx context.Context, name string) (int64, error) {
	var count int64
	for _, e := range s.expenses {
		if e.Category == name {
			count++
		}
	}
	return count, nil
}
