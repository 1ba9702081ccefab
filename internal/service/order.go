package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type Billing struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	City      string
	Zip       string
	Address   string
}

func (b Billing) Name() string {
	return strings.TrimSpace(strings.TrimSpace(b.FirstName) + " " + strings.TrimSpace(b.LastName))
}

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type orderEvent struct {
	OrderID         uint   `json:"order_id"`
	UserID          string `json:"user_id"`
	UserOrderNumber int    `json:"user_order_number"`
	TotalAmount     string `json:"total_amount"`
	Status          string `json:"status"`
}

func newOrderEvent(o *models.Order) orderEvent {
	return orderEvent{
		OrderID:         o.ID,
		UserID:          o.UserID,
		UserOrderNumber: o.UserOrderNumber,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Status:          o.Status,
	}
}

// Create freezes the supplied cart snapshot into an order. The total is the sum of
// price times quantity over the snapshot; the cart itself is not touched.
func (s *OrderService) Create(ctx context.Context, userID string, lines []models.CartLine, billing Billing, paymentMethod string) (*models.Order, error) {
	userID, err := validUser(userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		if err := validProduct(l.ProductID); err != nil {
			return nil, err
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("quantity for product %d must be at least 1: %w", l.ProductID, ErrValidation)
		}
		if l.Price.IsNegative() {
			return nil, fmt.Errorf("price for product %d is negative: %w", l.ProductID, ErrValidation)
		}
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		items = append(items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}

	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		paymentMethod = models.PaymentCOD
	}

	order := &models.Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   paymentMethod,
		ShippingAddress: strings.TrimSpace(billing.Address),
		BillingName:     billing.Name(),
		BillingEmail:    strings.TrimSpace(billing.Email),
		BillingPhone:    strings.TrimSpace(billing.Phone),
		BillingCity:     strings.TrimSpace(billing.City),
		BillingZip:      strings.TrimSpace(billing.Zip),
		Items:           items,
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, translate(err)
	}

	logging.FromContext(ctx).Info("order_created", "order_id", order.ID, "user_id", userID, "user_order_number", order.UserOrderNumber)
	publish(ctx, s.Events, events.TopicOrder, userID, events.New(events.TypeOrderCreated, newOrderEvent(order)))
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID string) ([]models.Order, error) {
	if isGuest(userID) {
		return []models.Order{}, nil
	}
	orders, err := s.Repo.ListOrders(ctx, strings.TrimSpace(userID))
	return orders, translate(err)
}

// Complete marks an order completed. Completing it again is a no-op.
func (s *OrderService) Complete(ctx context.Context, id uint) (*models.Order, error) {
	if id == 0 {
		return nil, fmt.Errorf("order id must be positive: %w", ErrValidation)
	}
	order, changed, err := s.Repo.CompleteOrder(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	order.Status = models.OrderStatusCompleted
	if changed {
		publish(ctx, s.Events, events.TopicOrder, order.UserID, events.New(events.TypeOrderCompleted, newOrderEvent(order)))
	}
	return order, nil
}

// Checkout places an order from the user's current cart and then takes the ordered lines out of it.
type Checkout struct {
	Cart   *CartService
	Orders *OrderService
}

func (c *Checkout) Place(ctx context.Context, userID string, billing Billing, paymentMethod string) (*models.Order, error) {
	userID, err := validUser(userID)
	if err != nil {
		return nil, err
	}
	lines, err := c.Cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	order, err := c.Orders.Create(ctx, userID, lines, billing, paymentMethod)
	if err != nil {
		return nil, err
	}
	if _, err := c.Cart.Consume(ctx, userID, lines); err != nil {
		logging.FromContext(ctx).Error("cart_clear_after_order_failed", "order_id", order.ID, "user_id", userID, "error", err)
	}
	return order, nil
}
