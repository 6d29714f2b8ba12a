package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bitewave/go-food-ordering-api/internal/model"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
)

// fakeTx satisfies pgx.Tx for services whose mutations go through the
// mock repositories instead of SQL.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(context.Context) error          { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                         { return nil }

// --- users ---

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.IsActive = true
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) LockForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*model.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) UpdateBonusBalance(_ context.Context, _ pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	if u, ok := m.users[id]; ok {
		u.BonusBalance = balance
	}
	return nil
}

func (m *mockUserRepo) IncrementOrderStats(_ context.Context, _ pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	if u, ok := m.users[id]; ok {
		u.TotalOrders++
		u.TotalSpent = u.TotalSpent.Add(amount)
	}
	return nil
}

// --- restaurants ---

type mockRestaurantRepo struct {
	restaurants map[uuid.UUID]*model.Restaurant
	branches    map[uuid.UUID]*model.RestaurantBranch
}

func newMockRestaurantRepo() *mockRestaurantRepo {
	return &mockRestaurantRepo{
		restaurants: make(map[uuid.UUID]*model.Restaurant),
		branches:    make(map[uuid.UUID]*model.RestaurantBranch),
	}
}

func (m *mockRestaurantRepo) ListActive(_ context.Context) ([]model.Restaurant, error) {
	var out []model.Restaurant
	for _, r := range m.restaurants {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRestaurantRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Restaurant, error) {
	return m.restaurants[id], nil
}

func (m *mockRestaurantRepo) GetBranchByID(_ context.Context, id uuid.UUID) (*model.RestaurantBranch, error) {
	return m.branches[id], nil
}

func (m *mockRestaurantRepo) ListBranches(_ context.Context, restaurantID uuid.UUID) ([]model.RestaurantBranch, error) {
	var out []model.RestaurantBranch
	for _, b := range m.branches {
		if b.RestaurantID == restaurantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
	options  map[uuid.UUID][]model.ProductOptionView // by product
	values   map[uuid.UUID]model.OptionValue         // by value id
	mapped   map[uuid.UUID][]uuid.UUID               // product -> option ids
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		options:  make(map[uuid.UUID][]model.ProductOptionView),
		values:   make(map[uuid.UUID]model.OptionValue),
		mapped:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// addOption registers an option with one value for a product and
// returns the value id.
func (m *mockProductRepo) addOption(productID uuid.UUID, name, value string, modifier decimal.Decimal) uuid.UUID {
	optionID := uuid.New()
	valueID := uuid.New()
	v := model.OptionValue{ID: valueID, OptionID: optionID, Value: value, PriceModifier: modifier, IsAvailable: true}
	m.values[valueID] = v
	m.options[productID] = append(m.options[productID], model.ProductOptionView{
		Option: model.ProductOption{ID: optionID, Name: name},
		Values: []model.OptionValue{v},
	})
	m.mapped[productID] = append(m.mapped[productID], optionID)
	return valueID
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return m.products[id], nil
}

func (m *mockProductRepo) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, p := range m.products {
		if p.RestaurantID == restaurantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) ListCategories(_ context.Context, _ uuid.UUID) ([]model.Category, error) {
	return nil, nil
}

func (m *mockProductRepo) ListOptionsForProduct(_ context.Context, productID uuid.UUID) ([]model.ProductOptionView, error) {
	return m.options[productID], nil
}

func (m *mockProductRepo) MappedOptionIDs(_ context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	return m.mapped[productID], nil
}

func (m *mockProductRepo) GetOptionValues(_ context.Context, ids []uuid.UUID) ([]model.OptionValue, error) {
	var out []model.OptionValue
	for _, id := range ids {
		if v, ok := m.values[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int) error {
	p, ok := m.products[productID]
	if !ok {
		return errors.New("insufficient stock")
	}
	if p.IsUnlimitedStock || p.StockQuantity == nil {
		return nil
	}
	if *p.StockQuantity < quantity {
		return errors.New("insufficient stock")
	}
	left := *p.StockQuantity - quantity
	p.StockQuantity = &left
	return nil
}

// --- carts ---

type mockCartRepo struct {
	carts map[uuid.UUID]*model.Cart
	items map[uuid.UUID]*model.CartItem
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*model.Cart), items: make(map[uuid.UUID]*model.CartItem)}
}

func (m *mockCartRepo) GetOrCreate(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	cart := &model.Cart{ID: uuid.New(), UserID: userID}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) GetWithItems(_ context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, nil
	}
	loaded := *cart
	loaded.Items = nil
	var ids []uuid.UUID
	for id, item := range m.items {
		if item.CartID == cartID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		loaded.Items = append(loaded.Items, *m.items[id])
	}
	return &loaded, nil
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	stored := *item
	m.items[item.ID] = &stored
	return nil
}

func (m *mockCartRepo) UpdateItem(_ context.Context, item *model.CartItem) error {
	existing, ok := m.items[item.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Quantity = item.Quantity
	existing.UnitPrice = item.UnitPrice
	existing.TotalPrice = item.TotalPrice
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockCartRepo) ClearTx(ctx context.Context, _ pgx.Tx, cartID uuid.UUID) error {
	return m.Clear(ctx, cartID)
}

// --- orders ---

type mockOrderRepo struct {
	orders  map[uuid.UUID]*model.Order
	history []model.OrderStatusHistory
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) BeginTx(context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

func (m *mockOrderRepo) CreateTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	stored := *order
	m.orders[order.ID] = &stored
	m.history = append(m.history, model.OrderStatusHistory{OrderID: order.ID, Status: order.Status})
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	loaded := *order
	return &loaded, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) CountCompletedByUser(_ context.Context, userID uuid.UUID) (int, error) {
	n := 0
	for _, o := range m.orders {
		if o.UserID == userID && (o.Status == model.OrderStatusDelivered || o.Status == model.OrderStatusCompleted) {
			n++
		}
	}
	return n, nil
}

func (m *mockOrderRepo) LockForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*model.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *mockOrderRepo) UpdateStatusTx(_ context.Context, _ pgx.Tx, order *model.Order) error {
	stored, ok := m.orders[order.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	*stored = *order
	return nil
}

func (m *mockOrderRepo) InsertHistoryTx(_ context.Context, _ pgx.Tx, h *model.OrderStatusHistory) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.history = append(m.history, *h)
	return nil
}

func (m *mockOrderRepo) ListHistory(_ context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var out []model.OrderStatusHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus, paymentID string) error {
	if o, ok := m.orders[id]; ok {
		o.PaymentStatus = status
		o.PaymentID = paymentID
	}
	return nil
}

func (m *mockOrderRepo) SetBonusEarned(_ context.Context, _ pgx.Tx, id uuid.UUID, earned decimal.Decimal) error {
	if o, ok := m.orders[id]; ok {
		o.BonusEarned = earned
	}
	return nil
}

// --- promos ---

type mockPromoRepo struct {
	promos map[string]*model.PromoCode
	usage  []model.UserPromoCodeUsage
}

func newMockPromoRepo() *mockPromoRepo {
	return &mockPromoRepo{promos: make(map[string]*model.PromoCode)}
}

func (m *mockPromoRepo) GetByCode(_ context.Context, code string) (*model.PromoCode, error) {
	return m.promos[code], nil
}

func (m *mockPromoRepo) LockByCode(ctx context.Context, _ pgx.Tx, code string) (*model.PromoCode, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockPromoRepo) ListActive(_ context.Context, now time.Time) ([]model.PromoCode, error) {
	var out []model.PromoCode
	for _, p := range m.promos {
		if p.IsActive && !now.Before(p.ValidFrom) && now.Before(p.ValidUntil) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPromoRepo) CountUserUsage(_ context.Context, userID, promoID uuid.UUID) (int, error) {
	n := 0
	for _, u := range m.usage {
		if u.UserID == userID && u.PromoCodeID == promoID {
			n++
		}
	}
	return n, nil
}

func (m *mockPromoRepo) IncrementUsageTx(_ context.Context, _ pgx.Tx, promoID uuid.UUID) error {
	for _, p := range m.promos {
		if p.ID == promoID {
			if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
				return repository.ErrUsageLimitReached
			}
			p.UsageCount++
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockPromoRepo) InsertUsageTx(_ context.Context, _ pgx.Tx, usage *model.UserPromoCodeUsage) error {
	for _, u := range m.usage {
		if u.UserID == usage.UserID && u.PromoCodeID == usage.PromoCodeID {
			return repository.ErrPromoAlreadyUsed
		}
	}
	usage.ID = uuid.New()
	m.usage = append(m.usage, *usage)
	return nil
}

// --- bonus ledger ---

type mockBonusRepo struct {
	rules  []model.BonusRule
	ledger []*model.BonusTransaction
}

func newMockBonusRepo() *mockBonusRepo { return &mockBonusRepo{} }

func (m *mockBonusRepo) BeginTx(context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

func (m *mockBonusRepo) ListActiveRules(context.Context) ([]model.BonusRule, error) {
	var out []model.BonusRule
	for _, r := range m.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockBonusRepo) InsertTransactionTx(_ context.Context, _ pgx.Tx, t *model.BonusTransaction) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	stored := *t
	m.ledger = append(m.ledger, &stored)
	return nil
}

func (m *mockBonusRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.BonusTransaction, error) {
	var out []model.BonusTransaction
	for _, t := range m.ledger {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockBonusRepo) LockGrantsTx(_ context.Context, _ pgx.Tx, userID uuid.UUID) ([]model.BonusTransaction, error) {
	var grants []model.BonusTransaction
	for _, t := range m.ledger {
		if t.UserID == userID && t.TransactionType == model.BonusEarned &&
			!t.IsExpired && t.RemainingAmount.GreaterThan(decimal.Zero) {
			grants = append(grants, *t)
		}
	}
	sort.SliceStable(grants, func(i, j int) bool {
		a, b := grants[i].ExpiresAt, grants[j].ExpiresAt
		switch {
		case a == nil && b == nil:
			return grants[i].CreatedAt.Before(grants[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return grants, nil
}

func (m *mockBonusRepo) LockDueGrantsTx(_ context.Context, _ pgx.Tx, userID uuid.UUID, now time.Time) ([]model.BonusTransaction, error) {
	var grants []model.BonusTransaction
	for _, t := range m.ledger {
		if t.UserID == userID && t.TransactionType == model.BonusEarned && !t.IsExpired &&
			t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
			grants = append(grants, *t)
		}
	}
	return grants, nil
}

func (m *mockBonusRepo) UpdateGrantTx(_ context.Context, _ pgx.Tx, id uuid.UUID, remaining decimal.Decimal, expired bool) error {
	for _, t := range m.ledger {
		if t.ID == id {
			t.RemainingAmount = remaining
			t.IsExpired = expired
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockBonusRepo) UsersWithDueGrants(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, t := range m.ledger {
		if t.TransactionType == model.BonusEarned && !t.IsExpired &&
			t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
			if _, ok := seen[t.UserID]; !ok {
				seen[t.UserID] = struct{}{}
				out = append(out, t.UserID)
			}
		}
	}
	return out, nil
}

func (m *mockBonusRepo) Balance(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance := decimal.Zero
	for _, t := range m.ledger {
		if t.UserID != userID {
			continue
		}
		if t.TransactionType == model.BonusSpent {
			balance = balance.Sub(t.Amount)
		} else {
			balance = balance.Add(t.Amount)
		}
	}
	return balance, nil
}

func (m *mockBonusRepo) BalanceTx(ctx context.Context, _ pgx.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	return m.Balance(ctx, userID)
}

// --- payments ---

type mockPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	p.ID = uuid.New()
	stored := *p
	m.payments[p.ID] = &stored
	return nil
}

func (m *mockPaymentRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*model.Payment, error) {
	for _, p := range m.payments {
		if p.OrderID == orderID {
			loaded := *p
			return &loaded, nil
		}
	}
	return nil, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus, externalID, failureReason string) error {
	p, ok := m.payments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Status = status
	p.ExternalPaymentID = externalID
	p.FailureReason = failureReason
	return nil
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
