package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func TestRegister_StartsPending(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test"}
	if err := svc.Register(context.Background(), u, "s3cretpass"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Status != StatusPending {
		t.Errorf("registered user should start pending, got %s", u.Status)
	}
	if u.Role != RoleProfessional {
		t.Errorf("default role should be professional, got %s", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cretpass" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test"}
	if err := svc.Register(context.Background(), u, "short"); err == nil {
		t.Error("expected short password to be rejected")
	}
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Register(context.Background(),
		&User{Name: "A", Email: "dup@clinic.test"}, "password1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Register(context.Background(),
		&User{Name: "B", Email: "DUP@clinic.test"}, "password2"); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}

func TestLogin_PendingUserRejected(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test"}
	svc.Register(context.Background(), u, "s3cretpass")

	if _, err := svc.Login(context.Background(), "ana@clinic.test", "s3cretpass"); err != ErrInvalidCredentials {
		t.Errorf("pending account must not log in, got %v", err)
	}
}

func TestLogin_AfterActivation(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test"}
	svc.Register(context.Background(), u, "s3cretpass")
	if _, err := svc.Activate(context.Background(), u.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Login(context.Background(), "Ana@Clinic.Test", "s3cretpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Error("login should return the registered user")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test", Status: StatusActive, Role: RoleAdmin}
	svc.Create(context.Background(), u, "s3cretpass")

	if _, err := svc.Login(context.Background(), "ana@clinic.test", "wrongpass"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Login(context.Background(), "ghost@clinic.test", "whatever1"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test", Role: RoleSecretary}
	svc.Create(context.Background(), u, "oldpassword")

	if err := svc.ChangePassword(context.Background(), u.ID, "wrongpass", "newpassword"); err != ErrInvalidCredentials {
		t.Errorf("wrong current password should fail, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), u.ID, "oldpassword", "newpassword"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@clinic.test", "newpassword"); err != nil {
		t.Errorf("login with the new password should pass: %v", err)
	}
}

func TestCreate_InvalidRole(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "X", Email: "x@clinic.test", Role: "superuser"}
	if err := svc.Create(context.Background(), u, "password1"); err == nil {
		t.Error("expected invalid role to be rejected")
	}
}

func TestUpdate_DoesNotTouchPassword(t *testing.T) {
	svc := NewService(newMockRepo())
	u := &User{Name: "Ana", Email: "ana@clinic.test", Role: RoleSecretary}
	svc.Create(context.Background(), u, "s3cretpass")

	edit := &User{ID: u.ID, Name: "Ana Lima", Email: "ana@clinic.test",
		Role: RoleAdmin, Status: StatusActive}
	if err := svc.Update(context.Background(), edit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@clinic.test", "s3cretpass"); err != nil {
		t.Errorf("password should survive a profile update: %v", err)
	}
	if edit.Role != RoleAdmin || edit.Name != "Ana Lima" {
		t.Error("profile fields should be updated")
	}
}
