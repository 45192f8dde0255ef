package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicebook/internal/models"
	"voicebook/internal/repositories"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLen = 6

type AuthResult struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

type UserService interface {
	Register(name, email, password string) (*AuthResult, error)
	Login(email, password string) (*AuthResult, error)
	GetByID(id string) (*models.User, error)
}

type userService struct {
	repo   repositories.UserRepository
	auth   AuthService
	tokens TokenService
}

func NewUserService(repo repositories.UserRepository, auth AuthService, tokens TokenService) UserService {
	return &userService{repo: repo, auth: auth, tokens: tokens}
}

func (s *userService) Register(name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = repositories.NormalizeEmail(email)
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	// duplicate check and append run inside the directory's critical
	// section so two concurrent registers cannot both pass the check
	err = s.repo.Update(func(users []*models.User) ([]*models.User, error) {
		for _, u := range users {
			if repositories.NormalizeEmail(u.Email) == email {
				return nil, ErrEmailTaken
			}
		}
		return append(users, user), nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][register] created user id=%s email=%s", user.ID, user.Email)
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

func (s *userService) Login(email, password string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	// single undifferentiated error: do not reveal whether the email exists
	if user == nil || !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][login] success user id=%s", user.ID)
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

func (s *userService) GetByID(id string) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
