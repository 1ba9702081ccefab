package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type cartChange struct {
	UserID    string `json:"user_id"`
	ProductID int    `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Get returns the cart joined with product data. Guests always have an empty cart.
func (s *CartService) Get(ctx context.Context, userID string) ([]models.CartLine, error) {
	if isGuest(userID) {
		return []models.CartLine{}, nil
	}
	lines, err := s.Repo.GetCart(ctx, strings.TrimSpace(userID))
	return lines, translate(err)
}

// SetQuantity overwrites the quantity of one product in the cart; quantity <= 0 removes it.
func (s *CartService) SetQuantity(ctx context.Context, userID, phone string, productID, quantity int) error {
	userID, err := validUser(userID)
	if err != nil {
		return err
	}
	if err := validProduct(productID); err != nil {
		return err
	}

	if err := s.Repo.SetCartQuantity(ctx, userID, strings.TrimSpace(phone), productID, quantity); err != nil {
		return translate(err)
	}

	typ := events.TypeCartUpdated
	if quantity <= 0 {
		typ, quantity = events.TypeCartItemRemoved, 0
	}
	publish(ctx, s.Events, events.TopicCart, userID, events.New(typ, cartChange{UserID: userID, ProductID: productID, Quantity: quantity}))
	return nil
}

// Add increases the quantity by a positive amount and returns the new total.
func (s *CartService) Add(ctx context.Context, userID, phone string, productID, quantity int) (int, error) {
	userID, err := validUser(userID)
	if err != nil {
		return 0, err
	}
	if err := validProduct(productID); err != nil {
		return 0, err
	}
	if quantity < 1 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d: %w", quantity, ErrValidation)
	}

	total, err := s.Repo.AddToCart(ctx, userID, strings.TrimSpace(phone), productID, quantity)
	if err != nil {
		return 0, translate(err)
	}
	publish(ctx, s.Events, events.TopicCart, userID, events.New(events.TypeCartUpdated, cartChange{UserID: userID, ProductID: productID, Quantity: total}))
	return total, nil
}

// Remove deletes one product from the cart. Removing something absent succeeds.
func (s *CartService) Remove(ctx context.Context, userID string, productID int) error {
	if isGuest(userID) {
		return nil
	}
	if err := validProduct(productID); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)

	removed, err := s.Repo.RemoveFromCart(ctx, userID, productID)
	if err != nil {
		return translate(err)
	}
	if removed {
		publish(ctx, s.Events, events.TopicCart, userID, events.New(events.TypeCartItemRemoved, cartChange{UserID: userID, ProductID: productID}))
	}
	return nil
}

// Clear empties one user's cart. Guests have nothing to clear.
func (s *CartService) Clear(ctx context.Context, userID string) (int64, error) {
	if isGuest(userID) {
		return 0, nil
	}
	userID = strings.TrimSpace(userID)
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return 0, translate(err)
	}
	if n > 0 {
		publish(ctx, s.Events, events.TopicCart, userID, events.New(events.TypeCartCleared, cartChange{UserID: userID}))
	}
	return n, nil
}

// Consume removes an ordered snapshot from the cart, leaving anything added since.
func (s *CartService) Consume(ctx context.Context, userID string, lines []models.CartLine) (int64, error) {
	userID = strings.TrimSpace(userID)
	n, err := s.Repo.ConsumeCart(ctx, userID, lines)
	if err != nil {
		return 0, translate(err)
	}
	remaining, err := s.Repo.CountCartRows(ctx, userID)
	if err == nil && remaining == 0 {
		publish(ctx, s.Events, events.TopicCart, userID, events.New(events.TypeCartCleared, cartChange{UserID: userID}))
	}
	return n, nil
}

// ClearAll empties every cart.
func (s *CartService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.Repo.ClearAllCarts(ctx)
	return n, translate(err)
}

// EnsureUser reports whether userID exists, creating it when a phone is supplied.
func (s *CartService) EnsureUser(ctx context.Context, userID, phone string) (bool, error) {
	userID, err := validUser(userID)
	if err != nil {
		return false, err
	}
	if _, err := s.Repo.EnsureUser(ctx, userID, strings.TrimSpace(phone)); err != nil {
		return false, translate(err)
	}
	return true, nil
}
