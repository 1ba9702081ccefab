package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const CodeLength = 6

// Store keeps one pending code per phone. Codes are stored as bcrypt hashes.
type Store interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Verify reports whether code matches the unexpired code saved for phone.
	Verify(ctx context.Context, phone, code string) (bool, error)
	Delete(ctx context.Context, phone string) error
}

var codeSpace = big.NewInt(1_000_000)

func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("otp: random: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Valid reports whether code is exactly six ASCII digits.
func Valid(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func hash(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
}

func matches(hashed []byte, code string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hashed, []byte(code))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

type entry struct {
	hash    []byte
	expires time.Time
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]entry{}, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	h, err := hash(code)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = entry{hash: h, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[phone]
	if ok && !s.now().Before(e.expires) {
		delete(s.entries, phone)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return matches(e.hash, code)
}

func (s *MemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	delete(s.entries, phone)
	s.mu.Unlock()
	return nil
}

// Len counts entries, expired ones included until they are touched.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
