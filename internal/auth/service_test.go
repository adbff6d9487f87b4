package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/amaraokeke/pearlstrands-backend/pkg/auth"
	"github.com/amaraokeke/pearlstrands-backend/pkg/config"
	"github.com/amaraokeke/pearlstrands-backend/pkg/db/models"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	pkgerrors "github.com/amaraokeke/pearlstrands-backend/pkg/errors"
	"github.com/amaraokeke/pearlstrands-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	created []*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.created = append(s.created, user)
	if s.byEmail == nil {
		s.byEmail = map[string]*models.User{}
	}
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct {
	lastAccessID string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.lastAccessID = accessID
	return "refresh-" + accessID, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "pearlstrands",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

func TestServiceRegisterAssignsCustomerRole(t *testing.T) {
	repo := &stubUserRepo{}
	svc, sessions := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Amara",
		LastName:  "Okeke",
		Email:     "Amara@Example.com",
		Password:  "super-secret-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Email != "amara@example.com" {
		t.Fatalf("expected lower-cased email, got %q", created.Email)
	}
	if created.Role != enums.UserRoleCustomer {
		t.Fatalf("expected CUSTOMER role, got %s", created.Role)
	}
	if created.PasswordHash == "super-secret-1" {
		t.Fatalf("password stored in plaintext")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role claim, got %s", claims.Role)
	}
	if claims.ID != sessions.lastAccessID {
		t.Fatalf("expected jti %q to match session access id %q", claims.ID, sessions.lastAccessID)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{
		"taken@example.com": {ID: uuid.New(), Email: "taken@example.com"},
	}}
	svc, _ := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "A",
		LastName:  "B",
		Email:     "taken@example.com",
		Password:  "super-secret-1",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestServiceLoginVerifiesPassword(t *testing.T) {
	password := "right-password"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "pearl@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Pearl",
		LastName:     "Strand",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, _ := buildTestService(t, repo)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password}); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "right-password"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "inactive@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleCustomer,
		IsActive:     false,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, _ := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}
