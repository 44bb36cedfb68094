package accounts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/verdantlabs/leafroom-backend/pkg/auth"
	"github.com/verdantlabs/leafroom-backend/pkg/config"
	"github.com/verdantlabs/leafroom-backend/pkg/db"
	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
)

var testJWT = config.JWTConfig{
	Secret:            "unit-test-secret",
	Issuer:            "leafroom-test",
	ExpirationMinutes: 60,
}

// Minimal cost parameters keep the hashing fast in tests.
var testPassword = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     8,
	ArgonKeyLen:      16,
}

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	cfg := config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Driver: "sqlite",
	}
	client, err := db.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	repo, err := NewRepository(client)
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	svc, err := NewService(repo, testJWT, testPassword, nil)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, client
}

func register(t *testing.T, svc Service, email string) *Session {
	t.Helper()

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "hunter2hunter2",
		FirstName: "Noa",
		LastName:  "Janssen",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return session
}

func TestRegisterIssuesTokenAndStoresHash(t *testing.T) {
	svc, client := newTestService(t)

	session := register(t, svc, "Noa@Example.COM")

	if session.User.Email != "noa@example.com" {
		t.Fatalf("email = %q, want lowercased", session.User.Email)
	}
	if session.User.PasswordHash == "hunter2hunter2" || session.User.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	claims, err := auth.ParseAccessToken(testJWT, session.AccessToken)
	if err != nil {
		t.Fatalf("parsing issued token: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatal("token subject mismatch")
	}

	var count int64
	client.DB().Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user count = %d, want 1", count)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService(t)

	register(t, svc, "dup@example.com")
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "dup@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Noa",
		LastName:  "Janssen",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []RegisterInput{
		{Email: "not-an-email", Password: "hunter2hunter2", FirstName: "A", LastName: "B"},
		{Email: "ok@example.com", Password: "short", FirstName: "A", LastName: "B"},
		{Email: "ok@example.com", Password: "hunter2hunter2", FirstName: " ", LastName: "B"},
	}
	for i, input := range cases {
		_, err := svc.Register(context.Background(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "login@example.com")

	session, err := svc.Login(context.Background(), "login@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("expected access token")
	}

	_, err = svc.Login(context.Background(), "login@example.com", "wrong-password")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	_, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestLoginRecordsLastLogin(t *testing.T) {
	svc, client := newTestService(t)
	session := register(t, svc, "seen@example.com")

	if _, err := svc.Login(context.Background(), "seen@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}

	var stored models.User
	client.DB().First(&stored, "id = ?", session.User.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("last login not recorded")
	}
}

func TestLoyaltyBalance(t *testing.T) {
	svc, client := newTestService(t)
	session := register(t, svc, "points@example.com")

	client.DB().Model(&models.User{}).
		Where("id = ?", session.User.ID).
		UpdateColumn("loyalty_points", 7)

	balance, err := svc.LoyaltyBalance(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 7 {
		t.Fatalf("balance = %d, want 7", balance)
	}
}
