package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

var validRoles = map[string]bool{
	RoleProfessional: true,
	RoleSecretary:    true,
	RoleAdmin:        true,
}

var validStatuses = map[string]bool{
	StatusActive:   true,
	StatusInactive: true,
	StatusPending:  true,
}

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validate(ctx context.Context, u *User) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if !validStatuses[u.Status] {
		return fmt.Errorf("invalid status %q", u.Status)
	}
	existing, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != u.ID {
		return fmt.Errorf("email %s is already registered", u.Email)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a user in the pending state; an admin activates the
// account afterwards. Seeded users bypass this by calling Create directly.
func (s *Service) Register(ctx context.Context, u *User, password string) error {
	if u.Role == "" {
		u.Role = RoleProfessional
	}
	u.Status = StatusPending
	return s.create(ctx, u, password)
}

// Create stores an already-approved user, typically from the admin CRUD or
// the seed command. Status defaults to active.
func (s *Service) Create(ctx context.Context, u *User, password string) error {
	if u.Status == "" {
		u.Status = StatusActive
	}
	return s.create(ctx, u, password)
}

func (s *Service) create(ctx context.Context, u *User, password string) error {
	if err := s.validate(ctx, u); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Create(ctx, u)
}

// Login verifies credentials and returns the user. Only active accounts may
// sign in; the same error covers unknown email, wrong password and blocked
// accounts so the response does not leak which one it was.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

// Activate flips a pending or inactive account to active.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Status = StatusActive
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// Update edits name, email, role and status. The password hash is never
// touched here; ChangePassword owns that.
func (s *Service) Update(ctx context.Context, u *User) error {
	existing, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if err := s.validate(ctx, u); err != nil {
		return err
	}
	existing.Name = u.Name
	existing.Email = u.Email
	existing.Role = u.Role
	existing.Status = u.Status
	*u = *existing
	return s.users.Update(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}
