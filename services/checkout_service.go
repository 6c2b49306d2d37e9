package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"order-service/models"
	aws_pkg "order-service/pkg/aws"
	"order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderEventPublisher publishes order lifecycle events after commit.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error
}

// CheckoutService converts a cart into a durable order. Stock decrements and
// the order insert commit as one unit of work; cart clearing and event
// publishing happen after commit and are best-effort.
type CheckoutService struct {
	uow         repository.UnitOfWork
	products    repository.ProductRepository
	orders      repository.OrderRepository
	cart        CartService
	publisher   OrderEventPublisher
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	totalsCfg   TotalsConfig
	logger      *zap.Logger
}

func NewCheckoutService(
	uow repository.UnitOfWork,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	cart CartService,
	publisher OrderEventPublisher,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	totalsCfg TotalsConfig,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		uow:         uow,
		products:    products,
		orders:      orders,
		cart:        cart,
		publisher:   publisher,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		totalsCfg:   totalsCfg,
		logger:      logger,
	}
}

// ProcessCheckout validates the request, then reserves stock for every line,
// computes totals and persists the order inside one transaction. Any failure
// aborts the whole unit; no partial stock decrement survives. After a
// successful commit the user's cart is cleared and an order-created event is
// published, both best-effort.
func (s *CheckoutService) ProcessCheckout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResult, *CheckoutError) {
	if svcErr := s.validate(req); svcErr != nil {
		return nil, svcErr
	}

	var (
		order        *models.Order
		stockUpdates []models.StockUpdate
	)

	err := s.uow.WithTransaction(ctx, func(txCtx context.Context) error {
		// Transaction callbacks may be retried on transient errors, so
		// everything accumulated here has to be rebuilt from scratch.
		stockUpdates = stockUpdates[:0]

		// Reservations run in submitted order so the first failing item is
		// the first one reported.
		for _, item := range req.Items {
			update, err := s.products.Reserve(txCtx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			stockUpdates = append(stockUpdates, *update)
		}

		totals := CalculateTotals(req.Items, s.totalsCfg)

		created, err := s.orders.Create(txCtx, buildOrder(req, totals))
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, s.mapCheckoutError(ctx, req, err)
	}

	s.logger.Info("checkout transaction completed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", req.UserID),
		zap.Int("item_count", len(req.Items)),
		zap.Int("total", order.Total),
	)

	// Post-commit side effects. The order stands even if these fail.
	s.clearCart(ctx, req.UserID)
	s.publishOrderCreated(ctx, order)

	return &models.CheckoutResult{
		Success:      true,
		Order:        formatOrder(order),
		StockUpdates: stockUpdates,
		Message:      "order created successfully",
	}, nil
}

// CheckAvailability reports live stock for the given items without reserving
// anything. A later reservation may still fail; stock is live.
func (s *CheckoutService) CheckAvailability(ctx context.Context, items []models.CheckoutItem) (*models.AvailabilityResult, *CheckoutError) {
	result := &models.AvailabilityResult{
		AllAvailable: true,
		Items:        make([]models.ItemAvailability, 0, len(items)),
	}

	for _, item := range items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			var notFound *repository.ProductNotFoundError
			if errors.As(err, &notFound) {
				result.AllAvailable = false
				result.Items = append(result.Items, models.ItemAvailability{
					ProductID: item.ProductID,
					Available: false,
					Reason:    CodeProductNotFound,
				})
				continue
			}
			s.logger.Error("availability lookup failed",
				zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, &CheckoutError{
				StatusCode: http.StatusInternalServerError,
				Code:       CodePersistenceError,
				Message:    "failed to check availability",
			}
		}

		available := product.Stock >= item.Quantity
		if !available {
			result.AllAvailable = false
		}
		result.Items = append(result.Items, models.ItemAvailability{
			ProductID:    item.ProductID,
			Name:         product.Name,
			Requested:    item.Quantity,
			Available:    available,
			CurrentStock: product.Stock,
			CurrentPrice: product.Price,
		})
	}

	return result, nil
}

// RevertStock re-increments stock by previously reserved amounts. The
// checkout transaction rolls itself back; this exists for manual
// compensation flows outside that boundary.
func (s *CheckoutService) RevertStock(ctx context.Context, updates []models.StockUpdate) *CheckoutError {
	if err := s.products.Release(ctx, updates); err != nil {
		s.logger.Error("manual stock revert failed", zap.Error(err))
		return &CheckoutError{
			StatusCode: http.StatusInternalServerError,
			Code:       CodePersistenceError,
			Message:    "failed to revert stock",
		}
	}

	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.ProductID)
	}
	s.logger.Info("stock reverted manually", zap.Strings("products", ids))
	return nil
}

func (s *CheckoutService) validate(req *models.CheckoutRequest) *CheckoutError {
	invalid := func(msg string) *CheckoutError {
		return &CheckoutError{
			StatusCode: http.StatusBadRequest,
			Code:       CodeValidationError,
			Message:    msg,
		}
	}

	if req.UserID == "" {
		return invalid("user_id is required")
	}
	if len(req.Items) == 0 {
		return invalid("items must be a non-empty list")
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return invalid("each item needs a product_id and a quantity of at least 1")
		}
	}
	if len(req.ShippingAddress) == 0 {
		return invalid("shipping_address is required")
	}
	if req.PaymentMethod == "" {
		return invalid("payment_method is required")
	}
	return nil
}

func (s *CheckoutService) mapCheckoutError(ctx context.Context, req *models.CheckoutRequest, err error) *CheckoutError {
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	s.logger.Error("checkout transaction failed",
		zap.String("user_id", req.UserID),
		zap.Strings("items", ids),
		zap.Error(err),
	)

	var insufficient *repository.InsufficientStockError
	if errors.As(err, &insufficient) {
		return &CheckoutError{
			StatusCode: http.StatusConflict,
			Code:       CodeInsufficientStock,
			Message:    insufficient.Error(),
			Product: &ProductStockInfo{
				ID:        insufficient.ProductID,
				Name:      insufficient.Name,
				Available: insufficient.Available,
				Requested: insufficient.Requested,
			},
		}
	}

	var notFound *repository.ProductNotFoundError
	if errors.As(err, &notFound) {
		return &CheckoutError{
			StatusCode: http.StatusNotFound,
			Code:       CodeProductNotFound,
			Message:    notFound.Error(),
			ProductID:  notFound.ProductID,
		}
	}

	// Infrastructure fault: keep the client message generic.
	return &CheckoutError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodePersistenceError,
		Message:    "checkout could not be completed",
	}
}

func (s *CheckoutService) clearCart(ctx context.Context, userID string) {
	if s.cart == nil {
		return
	}
	if err := s.cart.ClearCart(ctx, userID); err != nil {
		s.logger.Warn("could not clear cart",
			zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *models.Order) {
	evt := models.OrderCreatedEvent{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Currency:    order.Currency,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, evt); err != nil {
			s.logger.Warn("order-created event publish failed",
				zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}

	if s.snsClient != nil && s.snsTopicArn != "" {
		payload, err := json.Marshal(evt)
		if err == nil {
			err = s.snsClient.Publish(ctx, s.snsTopicArn, payload)
		}
		if err != nil {
			s.logger.Warn("order-created SNS publish failed",
				zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}
}

func buildOrder(req *models.CheckoutRequest, totals models.Totals) *models.Order {
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}

	now := time.Now()
	return &models.Order{
		OrderNumber:     newOrderNumber(now),
		UserID:          req.UserID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Taxes:           totals.Taxes,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		Currency:        totals.Currency,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentDetails:  req.PaymentDetails,
		Status:          models.OrderStatusPending,
		StatusHistory: []models.StatusEvent{
			{Status: models.OrderStatusPending, Timestamp: now, Note: "order created"},
		},
	}
}

func newOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102-150405") + "-" + uuid.New().String()[:8]
}

func formatOrder(order *models.Order) models.FormattedOrder {
	return models.FormattedOrder{
		ID:              order.ID.Hex(),
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		Taxes:           order.Taxes,
		Shipping:        order.Shipping,
		Total:           order.Total,
		Currency:        order.Currency,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		CreatedAt:       order.CreatedAt,
	}
}
