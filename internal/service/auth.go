package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/robotech_store/internal/events"
	"github.com/Skotchmaster/robotech_store/internal/models"
	"github.com/Skotchmaster/robotech_store/internal/otp"
	"github.com/Skotchmaster/robotech_store/internal/repo"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

const DefaultOTPTTL = 5 * time.Minute

// AuthService is the demo phone login: any well-formed code is accepted.
type AuthService struct {
	Repo   *repo.GormRepo
	OTP    otp.Store
	Events events.Publisher
	TTL    time.Duration
}

// UserIDForPhone derives the stable user id from a phone number.
func UserIDForPhone(phone string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(phone)))
	return hex.EncodeToString(sum[:])[:16]
}

func validPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("phone is required: %w", ErrValidation)
	}
	return phone, nil
}

// SendOTP issues a fresh code for phone and returns it.
func (s *AuthService) SendOTP(ctx context.Context, phone string) (string, error) {
	phone, err := validPhone(phone)
	if err != nil {
		return "", err
	}
	code, err := otp.GenerateCode()
	if err != nil {
		return "", err
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	if s.OTP != nil {
		if err := s.OTP.Save(ctx, phone, code, ttl); err != nil {
			return "", fmt.Errorf("save otp: %w", err)
		}
	}
	return code, nil
}

func (s *AuthService) Login(ctx context.Context, phone, code string) (*models.User, error) {
	phone, err := validPhone(phone)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !otp.Valid(code) {
		return nil, fmt.Errorf("otp must be %d digits: %w", otp.CodeLength, ErrValidation)
	}

	l := logging.FromContext(ctx)
	if s.OTP != nil {
		matched, err := s.OTP.Verify(ctx, phone, code)
		if err != nil {
			l.Warn("otp_verify_error", "error", err)
		}
		l.Info("otp_checked", "phone_user", UserIDForPhone(phone), "matched", matched)
		if err := s.OTP.Delete(ctx, phone); err != nil {
			l.Warn("otp_delete_error", "error", err)
		}
	}

	userID := UserIDForPhone(phone)
	u, err := s.Repo.LoginUser(ctx, userID, phone)
	if err != nil {
		return nil, translate(err)
	}

	publish(ctx, s.Events, events.TopicUser, userID, events.New(events.TypeUserLoggedIn, map[string]string{"user_id": userID}))
	return u, nil
}

// Logout clears the logged_in flag. Unknown or empty ids succeed.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if isGuest(userID) {
		return nil
	}
	err := s.Repo.SetLoggedIn(ctx, strings.TrimSpace(userID), false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return translate(err)
}

func (s *AuthService) Status(ctx context.Context, userID string) (bool, error) {
	if isGuest(userID) {
		return false, nil
	}
	u, err := s.Repo.GetUser(ctx, strings.TrimSpace(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return u.LoggedIn, nil
}
