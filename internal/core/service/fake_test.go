package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storebuilder/internal/adapter/payfast"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStorage keeps entities in maps and applies order effects the way the
// database does. Unused ports panic through the nil embedded interface.
type memStorage struct {
	port.Storage

	mu       sync.Mutex
	users    map[string]domain.User
	stores   map[string]domain.Store
	products map[string]domain.Product
	orders   map[string]domain.Order
	payouts  []domain.Payout

	plans map[string]domain.Plan

	orderNumberConflicts int
	createOrderCalls     int
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:    make(map[string]domain.User),
		stores:   make(map[string]domain.Store),
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
}

func (m *memStorage) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.users {
		if other.Email == u.Email || other.Username == u.Username {
			return domain.ConflictError{Field: "email"}
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStorage) ReadUser(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *memStorage) ReadUserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memStorage) ReadUserByReferralCode(_ context.Context, code string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Affiliate.ReferralCode == code {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *memStorage) UpdateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memStorage) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	for sid, s := range m.stores {
		if s.OwnerID == id {
			delete(m.stores, sid)
		}
	}
	return nil
}

func (m *memStorage) AddReferral(_ context.Context, referrerID string, r domain.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[referrerID]
	u.Affiliate.Referrals = append(u.Affiliate.Referrals, r)
	m.users[referrerID] = u
	return nil
}

func (m *memStorage) RequestPayout(_ context.Context, p domain.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[p.UserID]
	if u.Affiliate.PendingPayouts.LessThan(p.Amount) {
		return domain.Invalid("requested amount exceeds available balance")
	}
	u.Affiliate.PendingPayouts = u.Affiliate.PendingPayouts.Sub(p.Amount)
	m.users[p.UserID] = u
	m.payouts = append(m.payouts, p)
	return nil
}

func (m *memStorage) ReadPlans(_ context.Context, ids []string) (map[string]domain.Plan, error) {
	plans := make(map[string]domain.Plan, len(ids))
	for _, id := range ids {
		if p, ok := m.plans[id]; ok {
			plans[id] = p
		}
	}
	return plans, nil
}

// CommissionSummary totals completed orders attributed to referrerID.
func (m *memStorage) CommissionSummary(
	_ context.Context, referrerID string,
) (domain.CommissionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.CommissionSummary
	for _, o := range m.orders {
		if o.Affiliate == nil || o.Affiliate.ReferrerID != referrerID ||
			o.Payment.Status != domain.PaymentCompleted {
			continue
		}
		amount := o.Affiliate.Commission.Amount
		s.Total = s.Total.Add(amount)
		if o.Affiliate.Commission.Paid {
			s.Paid = s.Paid.Add(amount)
		} else {
			s.Unpaid = s.Unpaid.Add(amount)
		}
		s.TotalOrders++
	}
	return s, nil
}

func (m *memStorage) CreateStore(_ context.Context, s domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
	return nil
}

func (m *memStorage) ReadStore(_ context.Context, id string) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		return domain.Store{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memStorage) UpdateStore(_ context.Context, s domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[s.ID] = s
	return nil
}

func (m *memStorage) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stores {
		if s.Slug == slug && s.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStorage) ListStoresByOwner(_ context.Context, ownerID string) ([]domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stores []domain.Store
	for _, s := range m.stores {
		if s.OwnerID == ownerID {
			stores = append(stores, s)
		}
	}
	return stores, nil
}

func (m *memStorage) CreateProduct(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	s := m.stores[p.StoreID]
	s.Products = append(s.Products, p.ID)
	m.stores[p.StoreID] = s
	return nil
}

func (m *memStorage) ReadProducts(_ context.Context, ids []string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ps []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			ps = append(ps, p)
		}
	}
	return ps, nil
}

func (m *memStorage) ReadOwnership(
	_ context.Context, kind domain.ResourceKind, id string,
) (domain.Ownership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := domain.Ownership{Kind: kind, ID: id}
	switch kind {
	case domain.ResourceStore:
		s, ok := m.stores[id]
		if !ok {
			return o, domain.ErrNotFound
		}
		o.StoreOwnerID = s.OwnerID
	case domain.ResourceProduct:
		p, ok := m.products[id]
		if !ok {
			return o, domain.ErrNotFound
		}
		o.CreatorID = p.CreatorID
		o.StoreOwnerID = m.stores[p.StoreID].OwnerID
	case domain.ResourceOrder:
		ord, ok := m.orders[id]
		if !ok {
			return o, domain.ErrNotFound
		}
		o.StoreOwnerID = m.stores[ord.StoreID].OwnerID
	}
	return o, nil
}

func (m *memStorage) CreateOrder(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createOrderCalls++
	if m.orderNumberConflicts > 0 {
		m.orderNumberConflicts--
		return domain.ConflictError{Field: "order_number"}
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memStorage) ReadOrder(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memStorage) ModifyOrder(
	_ context.Context, id string,
	fn func(*domain.Order) (domain.OrderEffects, error),
) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)

	e, err := fn(&o)
	if err != nil {
		return domain.Order{}, err
	}
	m.orders[id] = o

	for _, sale := range e.ProductSales {
		if p, ok := m.products[sale.ProductID]; ok {
			p.Sales += sale.Quantity
			p.Revenue = p.Revenue.Add(sale.Revenue)
			m.products[p.ID] = p
		}
	}
	if s, ok := m.stores[e.StoreID]; ok {
		s.Analytics.Orders += e.StoreOrders
		s.Analytics.Revenue = s.Analytics.Revenue.Add(e.StoreRevenue)
		m.stores[s.ID] = s
	}
	if c := e.AffiliateCredit; c != nil {
		u := m.users[c.UserID]
		u.Affiliate.TotalEarnings = u.Affiliate.TotalEarnings.Add(c.Amount)
		u.Affiliate.PendingPayouts = u.Affiliate.PendingPayouts.Add(c.Amount)
		m.users[c.UserID] = u
	}
	return o, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) PublishOrderEvents(_ context.Context, es ...domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, es...)
	return nil
}

func (p *recordingPublisher) types() []domain.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	ts := make([]domain.OrderEventType, 0, len(p.events))
	for _, e := range p.events {
		ts = append(ts, e.Type)
	}
	return ts
}

type staticTokens struct{}

func (staticTokens) IssueToken(userID string) (string, error) {
	return "token-" + userID, nil
}

func (staticTokens) ParseToken(token string) (string, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", domain.ErrUnauthenticated
	}
	return token[len(prefix):], nil
}

const testPassphrase = "jt7NOE43FZPn"

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc       *Service
	storage   *memStorage
	published *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	storage := newMemStorage()
	published := &recordingPublisher{}
	svc := New(Deps{
		Storage: storage,
		Tokens:  staticTokens{},
		Payments: payfast.New(payfast.Config{
			MerchantID:  "10000100",
			MerchantKey: "46f0cd694581a",
			Passphrase:  testPassphrase,
			Sandbox:     true,
			FrontendURL: "https://shop.test",
			BackendURL:  "https://api.shop.test",
		}),
		Events:      published,
		FrontendURL: "https://shop.test",
	})

	var seq int
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string {
		seq++
		return "id-" + strconv.Itoa(seq)
	}
	return fixture{svc: svc, storage: storage, published: published}
}

// seed adds user u1 owning store Acme with product Widget priced 50.00.
func (f fixture) seed(t *testing.T) (domain.User, domain.Store, domain.Product) {
	t.Helper()

	owner := domain.User{ID: "u1", Username: "owner", Email: "owner@acme.test"}
	require.NoError(t, f.storage.CreateUser(context.Background(), owner))

	store, err := domain.NewStore(owner.ID, "Acme", "", testNow)
	require.NoError(t, err)
	store.ID = "store-acme"
	require.NoError(t, f.storage.CreateStore(context.Background(), store))

	product := domain.Product{
		ID:          "widget",
		StoreID:     store.ID,
		CreatorID:   owner.ID,
		Name:        "Widget",
		Description: "A widget",
		Category:    domain.CategoryPhysical,
		Type:        domain.ProductPhysical,
		Price: domain.ProductPrice{
			Amount:   decimal.RequireFromString("50.00"),
			Currency: domain.CurrencyZAR,
		},
		IsActive: true,
	}
	require.NoError(t, f.storage.CreateProduct(context.Background(), product))

	store.Products = []string{product.ID}
	return owner, store, product
}

func checkout(storeID, productID string, qty int) domain.Checkout {
	return domain.Checkout{
		StoreID: storeID,
		Items:   []domain.LineRequest{{ProductID: productID, Quantity: qty}},
		Customer: domain.Customer{
			Email:     "buyer@example.test",
			FirstName: "Ada",
			LastName:  "Buyer",
		},
		PaymentMethod: domain.PaymentPayfast,
	}
}
