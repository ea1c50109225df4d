package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/stream"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	pkgerrors "github.com/Kunwar-bir-singh/Online-Assessment/pkg/errors"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var statusMessages = map[enums.OrderStatus]string{
	enums.OrderStatusConfirmed:      "Your order has been confirmed by the restaurant",
	enums.OrderStatusPreparing:      "The restaurant is now preparing your order",
	enums.OrderStatusReady:          "Your order is ready and waiting for pickup",
	enums.OrderStatusOutForDelivery: "Your order is out for delivery",
	enums.OrderStatusDelivered:      "Your order has been delivered. Enjoy your meal!",
	enums.OrderStatusCancelled:      "Your order has been cancelled",
}

// StatusMessage returns the customer-facing text for a status push.
func StatusMessage(status enums.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return fmt.Sprintf("Order status updated to %s", status)
}

// Service exposes the order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, userID int64, req CreateOrderRequest) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, userID, orderID int64, req UpdateStatusRequest) (*OrderDTO, error)
	ListOrders(ctx context.Context, userID int64) ([]OrderDTO, error)
	GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error)
	GetOrderForUser(ctx context.Context, userID, orderID int64) (*OrderDTO, error)
	GetOrderWithDetails(ctx context.Context, userID, orderID int64) (*OrderDTO, error)
}

type publisher interface {
	Publish(userID int64, event any) error
}

type service struct {
	db      *db.Client
	hub     publisher
	metrics *metrics.Metrics
	logg    *logger.Logger
	clock   clock
	step    stepper
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	DB      *db.Client
	Hub     publisher
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	Orders  config.OrdersConfig
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Hub == nil {
		return nil, fmt.Errorf("stream hub is required")
	}
	if params.Metrics == nil {
		return nil, fmt.Errorf("metrics registry is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Orders.ProgressionStep <= 0 {
		return nil, fmt.Errorf("progression step must be positive")
	}
	return &service{
		db:      params.DB,
		hub:     params.Hub,
		metrics: params.Metrics,
		logg:    params.Logger,
		clock:   realClock{},
		step:    realStepper{interval: params.Orders.ProgressionStep},
	}, nil
}

// CreateOrder places the order atomically: every line is priced from the
// current catalog, the pending ledger row is written in the same transaction,
// and the fulfillment simulation starts only after the commit.
func (s *service) CreateOrder(ctx context.Context, userID int64, req CreateOrderRequest) (*OrderDTO, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id and quantity must be positive")
		}
	}

	var orderID int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := products.NewRepository(tx)
		orderRepo := NewRepository(tx)

		ids := make([]int64, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.ProductID)
		}
		catalog, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			product, ok := catalog[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product with ID %d not found", item.ProductID))
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			items = append(items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				PriceThen: product.Price,
			})
		}

		order := &models.Order{
			UserID:      userID,
			Status:      enums.OrderStatusPending,
			TotalAmount: total,
			Items:       items,
		}
		if err := orderRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := orderRepo.AppendStatus(ctx, order.ID, enums.OrderStatusPending); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append pending status")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	s.scheduleProgression(orderID, userID)

	return s.GetOrderWithDetails(ctx, userID, orderID)
}

// UpdateStatus applies a manual transition requested by the order's owner.
// The event is published to the hub only after the transaction commits.
func (s *service) UpdateStatus(ctx context.Context, userID, orderID int64, req UpdateStatusRequest) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := NewRepository(tx)

		order, err := orderRepo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order with ID %d not found", orderID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to update this order")
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
		}

		updated, err := orderRepo.UpdateOrderStatusIfLive(ctx, orderID, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %d is already in a terminal state", orderID))
		}
		return orderRepo.AppendStatus(ctx, orderID, target)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, userID, orderID, target)

	return s.GetOrder(ctx, orderID)
}

func (s *service) ListOrders(ctx context.Context, userID int64) ([]OrderDTO, error) {
	rows, err := NewRepository(s.db.DB()).ListOrders(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(rows), nil
}

func (s *service) GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error) {
	order, err := NewRepository(s.db.DB()).FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order with ID %d not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

// GetOrderForUser loads the bare order and enforces ownership. Used by the
// stream endpoints before a subscription is established.
func (s *service) GetOrderForUser(ctx context.Context, userID, orderID int64) (*OrderDTO, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to view this order")
	}
	return order, nil
}

func (s *service) GetOrderWithDetails(ctx context.Context, userID, orderID int64) (*OrderDTO, error) {
	order, err := NewRepository(s.db.DB()).FindOrderWithDetails(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order with ID %d not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order details")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to view this order")
	}
	return FromModel(order), nil
}

// publishStatus fans the transition out to stream subscribers and counts it.
// Best effort: a full or closed hub never fails the request.
func (s *service) publishStatus(ctx context.Context, userID, orderID int64, status enums.OrderStatus) {
	s.metrics.StatusTransitions.WithLabelValues(string(status)).Inc()

	event := stream.NewStatusEvent(orderID, status, StatusMessage(status), s.clock.Now())
	if err := s.hub.Publish(userID, event); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID), "publish status event failed")
	}
}
