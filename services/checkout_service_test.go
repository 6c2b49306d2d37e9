package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"order-service/models"
	"order-service/repository"
	"order-service/services"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- In-memory transactional store ---
//
// Mimics the real store's contract: conditional decrements are atomic, and
// every write made inside a transaction is undone when the transaction
// aborts.

type txKeyType struct{}

var txKey txKeyType

type memTx struct {
	undo []func()
}

type memStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	orders   []*models.Order
}

func newMemStore(products ...*models.Product) *memStore {
	s := &memStore{products: make(map[string]*models.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) stock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

type memUnitOfWork struct {
	store      *memStore
	failCommit bool
}

func (u *memUnitOfWork) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &memTx{}
	err := fn(context.WithValue(ctx, txKey, tx))
	if err == nil && u.failCommit {
		err = errors.New("commit failed")
	}
	if err != nil {
		u.store.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		u.store.mu.Unlock()
		return err
	}
	return nil
}

type memProductRepo struct {
	store        *memStore
	reserveCalls int
}

func (r *memProductRepo) Reserve(ctx context.Context, productID string, quantity int) (*models.StockUpdate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.reserveCalls++

	p, ok := r.store.products[productID]
	if !ok || !p.Active {
		return nil, &repository.ProductNotFoundError{ProductID: productID}
	}
	if p.Stock < quantity {
		return nil, &repository.InsufficientStockError{
			ProductID: productID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: quantity,
		}
	}

	p.Stock -= quantity
	if tx, ok := ctx.Value(txKey).(*memTx); ok {
		tx.undo = append(tx.undo, func() { p.Stock += quantity })
	}

	return &models.StockUpdate{
		ProductID:     productID,
		ProductName:   p.Name,
		PreviousStock: p.Stock + quantity,
		NewStock:      p.Stock,
		Reserved:      quantity,
	}, nil
}

func (r *memProductRepo) Release(_ context.Context, updates []models.StockUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range updates {
		if p, ok := r.store.products[u.ProductID]; ok {
			p.Stock += u.Reserved
		}
	}
	return nil
}

func (r *memProductRepo) FindByID(_ context.Context, productID string) (*models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[productID]
	if !ok || !p.Active {
		return nil, &repository.ProductNotFoundError{ProductID: productID}
	}
	cp := *p
	return &cp, nil
}

type memOrderRepo struct {
	store      *memStore
	failCreate bool
}

func (r *memOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if r.failCreate {
		return nil, errors.New("connection reset by peer")
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order.ID = primitive.NewObjectID()
	r.store.orders = append(r.store.orders, order)
	if tx, ok := ctx.Value(txKey).(*memTx); ok {
		tx.undo = append(tx.undo, func() {
			r.store.orders = r.store.orders[:len(r.store.orders)-1]
		})
	}
	return order, nil
}

// --- Collaborator mocks ---

type mockCart struct {
	mu      sync.Mutex
	cleared []string
	err     error
}

func (m *mockCart) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, userID)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []models.OrderCreatedEvent
}

func (m *mockPublisher) PublishOrderCreated(_ context.Context, evt models.OrderCreatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

// --- Helpers ---

type fixture struct {
	store    *memStore
	uow      *memUnitOfWork
	products *memProductRepo
	orders   *memOrderRepo
	cart     *mockCart
	events   *mockPublisher
	svc      *services.CheckoutService
}

func newFixture(products ...*models.Product) *fixture {
	store := newMemStore(products...)
	f := &fixture{
		store:    store,
		uow:      &memUnitOfWork{store: store},
		products: &memProductRepo{store: store},
		orders:   &memOrderRepo{store: store},
		cart:     &mockCart{},
		events:   &mockPublisher{},
	}
	logger, _ := zap.NewDevelopment()
	f.svc = services.NewCheckoutService(
		f.uow, f.products, f.orders, f.cart, f.events, nil, "",
		services.DefaultTotalsConfig(), logger,
	)
	return f
}

func rose(stock int) *models.Product {
	return &models.Product{ID: "rose-bouquet", Name: "Rose Bouquet", Price: 10000, Stock: stock, Active: true}
}

func tulip(stock int) *models.Product {
	return &models.Product{ID: "tulip-box", Name: "Tulip Box", Price: 8000, Stock: stock, Active: true}
}

func validRequest(items ...models.CheckoutItem) *models.CheckoutRequest {
	return &models.CheckoutRequest{
		UserID:          "user-1",
		Items:           items,
		ShippingAddress: map[string]interface{}{"street": "Av. Victoria 123", "city": "Valparaíso"},
		PaymentMethod:   "webpay",
	}
}

// --- ProcessCheckout ---

func TestProcessCheckout_Success(t *testing.T) {
	f := newFixture(rose(5))

	result, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 3, Price: 10000, Name: "Rose Bouquet"}))

	assert.Nil(t, svcErr)
	assert.True(t, result.Success)

	// stock=5, qty=3, price=10000, 19% tax, flat 5000 shipping below threshold
	assert.Equal(t, 30000, result.Order.Subtotal)
	assert.Equal(t, 5700, result.Order.Taxes)
	assert.Equal(t, 5000, result.Order.Shipping)
	assert.Equal(t, 40700, result.Order.Total)
	assert.Equal(t, "CLP", result.Order.Currency)
	assert.Equal(t, 2, f.store.stock("rose-bouquet"))

	assert.Len(t, f.store.orders, 1)
	order := f.store.orders[0]
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, "order created", order.StatusHistory[0].Note)
	assert.NotEmpty(t, result.Order.OrderNumber)
	assert.Equal(t, "user-1", order.UserID)

	assert.Len(t, result.StockUpdates, 1)
	assert.Equal(t, 5, result.StockUpdates[0].PreviousStock)
	assert.Equal(t, 2, result.StockUpdates[0].NewStock)
	assert.Equal(t, 3, result.StockUpdates[0].Reserved)
}

func TestProcessCheckout_ClearsCartAndPublishesEvent(t *testing.T) {
	f := newFixture(rose(5))

	result, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 1, Price: 10000}))

	assert.Nil(t, svcErr)
	assert.Equal(t, []string{"user-1"}, f.cart.cleared)
	assert.Len(t, f.events.events, 1)
	assert.Equal(t, result.Order.ID, f.events.events[0].OrderID)
	assert.Equal(t, result.Order.Total, f.events.events[0].Total)
}

func TestProcessCheckout_CartClearFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(rose(5))
	f.cart.err = errors.New("redis: connection refused")

	result, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 1, Price: 10000}))

	assert.Nil(t, svcErr)
	assert.True(t, result.Success)
	assert.Len(t, f.store.orders, 1)
	assert.Equal(t, 4, f.store.stock("rose-bouquet"))
}

func TestProcessCheckout_InsufficientStock(t *testing.T) {
	f := newFixture(rose(2))

	_, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 5, Price: 10000}))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInsufficientStock, svcErr.Code)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.NotNil(t, svcErr.Product)
	assert.Equal(t, 2, svcErr.Product.Available)
	assert.Equal(t, 5, svcErr.Product.Requested)
	assert.Equal(t, 2, f.store.stock("rose-bouquet"))
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.cart.cleared)
}

func TestProcessCheckout_InsufficientStockRollsBackEarlierReservations(t *testing.T) {
	f := newFixture(rose(5), tulip(1))

	_, svcErr := f.svc.ProcessCheckout(context.Background(), validRequest(
		models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 2, Price: 10000},
		models.CheckoutItem{ProductID: "tulip-box", Quantity: 4, Price: 8000},
	))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeInsufficientStock, svcErr.Code)
	assert.Equal(t, "tulip-box", svcErr.Product.ID)
	// the whole unit aborted: the rose reservation was undone too
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
	assert.Equal(t, 1, f.store.stock("tulip-box"))
	assert.Empty(t, f.store.orders)
}

func TestProcessCheckout_ProductNotFound(t *testing.T) {
	f := newFixture(rose(5))

	_, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "ghost-orchid", Quantity: 1, Price: 1000}))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeProductNotFound, svcErr.Code)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Equal(t, "ghost-orchid", svcErr.ProductID)
	assert.Empty(t, f.store.orders)
}

func TestProcessCheckout_InactiveProductReportsNotFound(t *testing.T) {
	inactive := rose(5)
	inactive.Active = false
	f := newFixture(inactive)

	_, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 1, Price: 10000}))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodeProductNotFound, svcErr.Code)
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
}

func TestProcessCheckout_OrderInsertFailureRollsBackStock(t *testing.T) {
	f := newFixture(rose(5))
	f.orders.failCreate = true

	_, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 3, Price: 10000}))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodePersistenceError, svcErr.Code)
	assert.Equal(t, 500, svcErr.StatusCode)
	// internal error detail stays out of the client message
	assert.NotContains(t, svcErr.Message, "connection reset")
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
	assert.Empty(t, f.store.orders)
}

func TestProcessCheckout_CommitFailureLeavesNothingChanged(t *testing.T) {
	f := newFixture(rose(5))
	f.uow.failCommit = true

	_, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 2, Price: 10000}))

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.CodePersistenceError, svcErr.Code)
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.cart.cleared)
	assert.Empty(t, f.events.events)
}

func TestProcessCheckout_ValidationFailsBeforeAnyIO(t *testing.T) {
	cases := []struct {
		name string
		req  *models.CheckoutRequest
	}{
		{"empty items", validRequest()},
		{"missing user", &models.CheckoutRequest{
			Items:           []models.CheckoutItem{{ProductID: "rose-bouquet", Quantity: 1}},
			ShippingAddress: map[string]interface{}{"street": "x"},
			PaymentMethod:   "webpay",
		}},
		{"zero quantity", validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 0})},
		{"missing product id", validRequest(models.CheckoutItem{Quantity: 1})},
		{"missing shipping address", &models.CheckoutRequest{
			UserID:        "user-1",
			Items:         []models.CheckoutItem{{ProductID: "rose-bouquet", Quantity: 1}},
			PaymentMethod: "webpay",
		}},
		{"missing payment method", &models.CheckoutRequest{
			UserID:          "user-1",
			Items:           []models.CheckoutItem{{ProductID: "rose-bouquet", Quantity: 1}},
			ShippingAddress: map[string]interface{}{"street": "x"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(rose(5))
			_, svcErr := f.svc.ProcessCheckout(context.Background(), tc.req)
			assert.NotNil(t, svcErr)
			assert.Equal(t, services.CodeValidationError, svcErr.Code)
			assert.Equal(t, 400, svcErr.StatusCode)
			assert.Zero(t, f.products.reserveCalls, "validation must reject before touching the store")
		})
	}
}

func TestProcessCheckout_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(rose(1))

	var wg sync.WaitGroup
	errs := make([]*services.CheckoutError, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ProcessCheckout(context.Background(),
				validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 1, Price: 10000}))
		}(i)
	}
	wg.Wait()

	succeeded, failed := 0, 0
	for _, e := range errs {
		if e == nil {
			succeeded++
		} else {
			failed++
			assert.Equal(t, services.CodeInsufficientStock, e.Code)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, f.store.stock("rose-bouquet"))
	assert.Len(t, f.store.orders, 1)
}

// --- CheckAvailability ---

func TestCheckAvailability_ReportsPerItemAndNeverMutates(t *testing.T) {
	f := newFixture(rose(5), tulip(1))

	items := []models.CheckoutItem{
		{ProductID: "rose-bouquet", Quantity: 3},
		{ProductID: "tulip-box", Quantity: 4},
		{ProductID: "ghost-orchid", Quantity: 1},
	}

	for i := 0; i < 3; i++ {
		result, svcErr := f.svc.CheckAvailability(context.Background(), items)
		assert.Nil(t, svcErr)
		assert.False(t, result.AllAvailable)
		assert.Len(t, result.Items, 3)

		assert.True(t, result.Items[0].Available)
		assert.Equal(t, 5, result.Items[0].CurrentStock)
		assert.Equal(t, 10000, result.Items[0].CurrentPrice)

		assert.False(t, result.Items[1].Available)
		assert.Equal(t, 1, result.Items[1].CurrentStock)

		assert.False(t, result.Items[2].Available)
		assert.Equal(t, services.CodeProductNotFound, result.Items[2].Reason)
	}

	// read-only regardless of call count
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
	assert.Equal(t, 1, f.store.stock("tulip-box"))
}

func TestCheckAvailability_AllAvailable(t *testing.T) {
	f := newFixture(rose(5))

	result, svcErr := f.svc.CheckAvailability(context.Background(),
		[]models.CheckoutItem{{ProductID: "rose-bouquet", Quantity: 5}})

	assert.Nil(t, svcErr)
	assert.True(t, result.AllAvailable)
}

// --- RevertStock ---

func TestRevertStock_ReincrementsReservedAmount(t *testing.T) {
	f := newFixture(rose(5))

	result, svcErr := f.svc.ProcessCheckout(context.Background(),
		validRequest(models.CheckoutItem{ProductID: "rose-bouquet", Quantity: 3, Price: 10000}))
	assert.Nil(t, svcErr)
	assert.Equal(t, 2, f.store.stock("rose-bouquet"))

	svcErr = f.svc.RevertStock(context.Background(), result.StockUpdates)
	assert.Nil(t, svcErr)
	assert.Equal(t, 5, f.store.stock("rose-bouquet"))
}
