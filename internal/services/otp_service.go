package services

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicebook/internal/models"
	"voicebook/internal/repositories"
)

var (
	ErrNoPendingRegistration = errors.New("no pending registration for this email")
	ErrCodeExpired           = errors.New("code expired")
	ErrCodeInvalid           = errors.New("code invalid")
	ErrDeliveryFailed        = errors.New("failed to deliver code")
)

const otpTTL = 10 * time.Minute

// OTPService implements the two-phase registration handshake: RequestCode
// parks a hashed registration in memory behind a 6-digit code, VerifyCode
// consumes it and commits the account. Pending entries are never persisted.
type OTPService interface {
	RequestCode(name, email, password string) error
	VerifyCode(email, code string) error
}

type otpService struct {
	repo   repositories.UserRepository
	auth   AuthService
	emails EmailService

	mu      sync.Mutex
	pending map[string]*models.PendingRegistration

	now func() time.Time
}

func NewOTPService(repo repositories.UserRepository, auth AuthService, emails EmailService) OTPService {
	return &otpService{
		repo:    repo,
		auth:    auth,
		emails:  emails,
		pending: make(map[string]*models.PendingRegistration),
		now:     time.Now,
	}
}

// generateCode returns a uniform 6-digit code, 100000..999999.
func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

func (s *otpService) RequestCode(name, email, password string) error {
	email = repositories.NormalizeEmail(email)
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}

	// hash now: the plaintext is never retained in the pending table
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return err
	}

	entry := &models.PendingRegistration{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Code:         generateCode(),
		ExpiresAt:    s.now().Add(otpTTL),
	}

	// a repeated request overwrites the previous entry, invalidating the
	// earlier unconsumed code for this address
	s.mu.Lock()
	s.pending[email] = entry
	s.mu.Unlock()

	if err := s.emails.SendOTPEmail(email, name, entry.Code); err != nil {
		// the entry stays in place: the user can resend
		log.Printf("[otp][request] delivery failed for %s: %v", email, err)
		return ErrDeliveryFailed
	}
	log.Printf("[otp][request] code sent email=%s expires_at=%s", email, entry.ExpiresAt.Format(time.RFC3339))
	return nil
}

// VerifyCode holds the pending-table lock across the whole check-and-commit
// so two concurrent verifications cannot both consume one entry.
func (s *otpService) VerifyCode(email, code string) error {
	email = repositories.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[email]
	if !ok {
		return ErrNoPendingRegistration
	}
	if s.now().After(entry.ExpiresAt) {
		delete(s.pending, email)
		return ErrCodeExpired
	}
	if entry.Code != code {
		// entry survives: the user may retry with the correct code
		return ErrCodeInvalid
	}

	user := &models.User{
		ID:            uuid.NewString(),
		Name:          entry.Name,
		Email:         entry.Email,
		PasswordHash:  entry.PasswordHash,
		CreatedAt:     s.now().UTC(),
		EmailVerified: true,
	}

	err := s.repo.Update(func(users []*models.User) ([]*models.User, error) {
		// re-check: an account may have been registered directly since
		// the code was requested
		for _, u := range users {
			if repositories.NormalizeEmail(u.Email) == email {
				return nil, ErrEmailTaken
			}
		}
		return append(users, user), nil
	})
	if errors.Is(err, ErrEmailTaken) {
		delete(s.pending, email)
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}

	delete(s.pending, email)
	log.Printf("[otp][verify] account created id=%s email=%s", user.ID, user.Email)
	return nil
}
