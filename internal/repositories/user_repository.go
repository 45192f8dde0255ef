package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"voicebook/internal/models"
)

// UserRepository is the account directory. The backing store is a single
// JSON document with load-all/replace-all semantics, so Update is the only
// mutation path: it runs the whole read-modify-write cycle as one critical
// section.
type UserRepository interface {
	Load() ([]*models.User, error)
	Update(fn func(users []*models.User) ([]*models.User, error)) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
}

type userRepository struct {
	path string
	mu   sync.Mutex
}

func NewUserRepository(path string) UserRepository {
	return &userRepository{path: path}
}

// NormalizeEmail is the canonical form used everywhere an email is compared
// or stored: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) Load() ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *userRepository) Update(fn func(users []*models.User) ([]*models.User, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	users, err = fn(users)
	if err != nil {
		return err
	}
	return r.save(users)
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	users, err := r.Load()
	if err != nil {
		return nil, err
	}
	key := NormalizeEmail(email)
	for _, u := range users {
		if NormalizeEmail(u.Email) == key {
			return u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	users, err := r.Load()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// load reads the users file; a missing file is an empty directory.
func (r *userRepository) load() ([]*models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("users file read: %w", err)
	}
	var users []*models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("users file parse: %w", err)
	}
	return users, nil
}

func (r *userRepository) save(users []*models.User) error {
	if users == nil {
		users = []*models.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("users file encode: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("users dir create: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("users file write: %w", err)
	}
	return nil
}
