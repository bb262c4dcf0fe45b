package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/dukabook/ledger-api/internal/domain/entity"
	"github.com/dukabook/ledger-api/internal/domain/enum"
	"github.com/dukabook/ledger-api/internal/domain/repository"
	"github.com/dukabook/ledger-api/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory collaborators so the services can be exercised without a
// database. Error fields inject failures per method.

type fakeMirror struct {
	mu      sync.Mutex
	entries map[string]*cache.Entry
	putErr  error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{entries: make(map[string]*cache.Entry)}
}

func mirrorKey(ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) string {
	return strings.Join([]string{ownerID.String(), kind.String(), recordID.String()}, "|")
}

func (m *fakeMirror) Put(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID, record interface{}, status enum.SyncStatus) error {
	if m.putErr != nil {
		return m.putErr
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[mirrorKey(ownerID, kind, recordID)] = &cache.Entry{
		OwnerID:    ownerID,
		Kind:       kind,
		RecordID:   recordID,
		Payload:    payload,
		SyncStatus: status,
		UpdatedAt:  time.Now(),
	}
	return nil
}

func (m *fakeMirror) MarkDeleted(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[mirrorKey(ownerID, kind, recordID)]; ok {
		e.Deleted = true
		e.SyncStatus = enum.SyncStatusPending
	}
	return nil
}

func (m *fakeMirror) MarkSynced(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[mirrorKey(ownerID, kind, recordID)]; ok {
		e.SyncStatus = enum.SyncStatusSynced
	}
	return nil
}

func (m *fakeMirror) Remove(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, mirrorKey(ownerID, kind, recordID))
	return nil
}

func (m *fakeMirror) Get(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (*cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[mirrorKey(ownerID, kind, recordID)]
	if !ok || e.Deleted {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *fakeMirror) ListKind(_ context.Context, ownerID uuid.UUID, kind enum.RecordKind) ([]cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []cache.Entry
	for _, e := range m.entries {
		if e.OwnerID == ownerID && e.Kind == kind && !e.Deleted {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (m *fakeMirror) ListPending(_ context.Context, ownerID uuid.UUID) ([]cache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []cache.Entry
	for _, e := range m.entries {
		if e.OwnerID == ownerID && e.SyncStatus == enum.SyncStatusPending {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (m *fakeMirror) CountPending(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	entries, _ := m.ListPending(ctx, ownerID)
	return int64(len(entries)), nil
}

func (m *fakeMirror) status(ownerID uuid.UUID, kind enum.RecordKind, recordID uuid.UUID) (enum.SyncStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[mirrorKey(ownerID, kind, recordID)]
	if !ok {
		return "", false
	}
	return e.SyncStatus, true
}

type fakePublisher struct {
	mu     sync.Mutex
	events []repository.MutationEvent
}

func (p *fakePublisher) Publish(event repository.MutationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
	err   error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *repository.ListParams) ([]entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []entity.User
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role enum.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []entity.AuditLog
	err     error
}

func (r *fakeAuditRepo) Create(_ context.Context, log *entity.AuditLog) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ *repository.AuditFilterParams) ([]entity.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.AuditLog(nil), r.entries...), int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *fakeAuditRepo) last() *entity.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	entry := r.entries[len(r.entries)-1]
	return &entry
}

type fakeProductRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*entity.Product
	createErr error
	getErr    error
	decCalls  int
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]*entity.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, product *entity.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*entity.Product, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, ownerID uuid.UUID, _ *repository.ListParams) ([]entity.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var products []entity.Product
	for _, p := range r.products {
		if p.OwnerID == ownerID {
			products = append(products, *p)
		}
	}
	return products, int64(len(products)), nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, _, id uuid.UUID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decCalls++
	if p, ok := r.products[id]; ok {
		p.Stock -= amount
		if p.Stock < 0 {
			p.Stock = 0
		}
	}
	return nil
}

type fakeSaleRepo struct {
	mu        sync.Mutex
	sales     map[uuid.UUID]*entity.Sale
	createErr error
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*entity.Sale)}
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *entity.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sales, id)
	return nil
}

func (r *fakeSaleRepo) List(_ context.Context, ownerID uuid.UUID, _ *repository.ListParams) ([]entity.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sales []entity.Sale
	for _, s := range r.sales {
		if s.OwnerID == ownerID {
			sales = append(sales, *s)
		}
	}
	return sales, int64(len(sales)), nil
}

func (r *fakeSaleRepo) Totals(_ context.Context, ownerID uuid.UUID, _ *repository.DateRange) (decimal.Decimal, decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total, profit := decimal.Zero, decimal.Zero
	for _, s := range r.sales {
		if s.OwnerID == ownerID {
			total = total.Add(s.TotalAmount)
			profit = profit.Add(s.Profit)
		}
	}
	return total, profit, nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*entity.Customer
}

func newFakeCustomerRepo(customers ...*entity.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: make(map[uuid.UUID]*entity.Customer)}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *entity.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.customers, id)
	return nil
}

func (r *fakeCustomerRepo) List(_ context.Context, ownerID uuid.UUID, _ *repository.ListParams) ([]entity.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var customers []entity.Customer
	for _, c := range r.customers {
		if c.OwnerID == ownerID {
			customers = append(customers, *c)
		}
	}
	return customers, int64(len(customers)), nil
}

type fakeDebtRepo struct {
	mu             sync.Mutex
	debts          map[uuid.UUID]*entity.Debt
	paymentCalls   int
	paymentErr     error
	markErr        error
	deleteErr      error
	pendingDeletes map[uuid.UUID]bool
	payments       *fakePaymentRepo
}

func newFakeDebtRepo(payments *fakePaymentRepo, debts ...*entity.Debt) *fakeDebtRepo {
	r := &fakeDebtRepo{
		debts:          make(map[uuid.UUID]*entity.Debt),
		pendingDeletes: make(map[uuid.UUID]bool),
		payments:       payments,
	}
	for _, d := range debts {
		r.debts[d.ID] = d
	}
	return r
}

func (r *fakeDebtRepo) Create(_ context.Context, debt *entity.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*entity.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.debts[id]
	if !ok || d.OwnerID != ownerID || r.pendingDeletes[id] {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDebtRepo) Update(_ context.Context, debt *entity.Debt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.debts, id)
	delete(r.pendingDeletes, id)
	return nil
}

func (r *fakeDebtRepo) List(_ context.Context, ownerID uuid.UUID, _ *repository.ListParams) ([]entity.Debt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var debts []entity.Debt
	for _, d := range r.debts {
		if d.OwnerID == ownerID && !r.pendingDeletes[d.ID] {
			debts = append(debts, *d)
		}
	}
	return debts, int64(len(debts)), nil
}

func (r *fakeDebtRepo) MarkPendingDelete(_ context.Context, _, id uuid.UUID) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingDeletes[id] = true
	return nil
}

func (r *fakeDebtRepo) ReplaceItems(_ context.Context, debt *entity.Debt, items []entity.DebtItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	debt.Items = items
	r.debts[debt.ID] = debt
	return nil
}

func (r *fakeDebtRepo) RecordPayment(_ context.Context, payment *entity.DebtPayment, debt *entity.Debt) error {
	r.mu.Lock()
	r.paymentCalls++
	err := r.paymentErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.debts[debt.ID] = debt
	r.mu.Unlock()
	if r.payments != nil {
		r.payments.add(payment)
	}
	return nil
}

func (r *fakeDebtRepo) Outstanding(_ context.Context, ownerID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, d := range r.debts {
		if d.OwnerID == ownerID && !r.pendingDeletes[d.ID] {
			total = total.Add(d.Balance())
		}
	}
	return total, nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]*entity.DebtPayment
	orphans   []entity.DebtPayment
	deleteErr error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*entity.DebtPayment)}
}

func (r *fakePaymentRepo) add(payment *entity.DebtPayment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = payment
}

func (r *fakePaymentRepo) GetByID(_ context.Context, ownerID, id uuid.UUID) (*entity.DebtPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakePaymentRepo) ListByDebt(_ context.Context, ownerID, debtID uuid.UUID) ([]entity.DebtPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var payments []entity.DebtPayment
	for _, p := range r.payments {
		if p.OwnerID == ownerID && p.DebtID == debtID {
			payments = append(payments, *p)
		}
	}
	return payments, nil
}

func (r *fakePaymentRepo) DeleteByDebt(_ context.Context, ownerID, debtID uuid.UUID) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, p := range r.payments {
		if p.OwnerID == ownerID && p.DebtID == debtID {
			delete(r.payments, id)
			removed++
		}
	}
	var kept []entity.DebtPayment
	for _, o := range r.orphans {
		if o.DebtID == debtID {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	r.orphans = kept
	return removed, nil
}

func (r *fakePaymentRepo) ListOrphans(_ context.Context, _ uuid.UUID) ([]entity.DebtPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.DebtPayment(nil), r.orphans...), nil
}

type fakeSyncRepo struct {
	mu      sync.Mutex
	upserts []enum.RecordKind
	removes []uuid.UUID
	err     error
}

func (r *fakeSyncRepo) Upsert(_ context.Context, kind enum.RecordKind, _ []byte) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, kind)
	return nil
}

func (r *fakeSyncRepo) Remove(_ context.Context, _ uuid.UUID, _ enum.RecordKind, recordID uuid.UUID) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removes = append(r.removes, recordID)
	return nil
}
