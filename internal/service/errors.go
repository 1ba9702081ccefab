package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

var (
	ErrValidation    = errors.New("validation")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrEmptyCatalog  = errors.New("catalog is empty")
	ErrNothingSeeded = errors.New("nothing seeded")
	ErrNotConfigured = errors.New("not configured")
)

const (
	GuestUser = "guest"

	publishTimeout = 5 * time.Second
)

// translate maps storage errors onto the service sentinels. Unknown errors pass through.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrUserMissing):
		return fmt.Errorf("%w: user does not exist", ErrNotFound)
	case errors.Is(err, repo.ErrProductMissing):
		return fmt.Errorf("%w: product does not exist", ErrNotFound)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: record not found", ErrNotFound)
	case errors.Is(err, repo.ErrPhoneTaken):
		return fmt.Errorf("%w: phone belongs to another user", ErrConflict)
	case errors.Is(err, repo.ErrNothingSeeded):
		return fmt.Errorf("%w: %v", ErrNothingSeeded, err)
	case errors.Is(err, catalog.ErrInvalidFilter):
		return fmt.Errorf("%w: %w", err, ErrValidation)
	default:
		return err
	}
}

func validUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("user_id is required: %w", ErrValidation)
	}
	if userID == GuestUser {
		return "", fmt.Errorf("guest users have no cart: %w", ErrValidation)
	}
	return userID, nil
}

func isGuest(userID string) bool {
	userID = strings.TrimSpace(userID)
	return userID == "" || userID == GuestUser
}

func validProduct(productID int) error {
	if productID <= 0 {
		return fmt.Errorf("product_id must be positive, got %d: %w", productID, ErrValidation)
	}
	return nil
}

// publish never fails the caller; a broken broker only shows up in the log.
func publish(ctx context.Context, p events.Publisher, topic, key string, ev events.Event) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(pctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
