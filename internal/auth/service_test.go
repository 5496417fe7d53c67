package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/freshmart/storefront-backend/internal/users"
	"github.com/freshmart/storefront-backend/pkg/config"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type stubUserRepo struct {
	users     []*models.User
	nextID    uint64
	createErr error
	rehashed  map[uint64]string
}

func (s *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == identifier || u.Email == users.NormalizeEmail(identifier) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) EmailTaken(_ context.Context, email string, excludeID uint64) (bool, error) {
	for _, u := range s.users {
		if u.Email == users.NormalizeEmail(email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	user := dto.ToModel()
	user.ID = s.nextID
	s.users = append(s.users, user)
	return user, nil
}

func (s *stubUserRepo) UpdatePasswordHash(_ context.Context, id uint64, hash string) error {
	if s.rehashed == nil {
		s.rehashed = map[uint64]string{}
	}
	s.rehashed[id] = hash
	return nil
}

func buildTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{UserRepo: repo, PasswordConfig: testPasswordConfig})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestRegisterCreatesShopperAccount(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{}
	svc := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: " gina ",
		Email:    "Gina@Example.com",
		Password: "secret1",
		Address:  "2 Market St",
		Contact:  "8123 4567",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.RoleUser {
		t.Fatalf("expected user role, got %s", resp.User.Role)
	}
	if resp.User.Email != "gina@example.com" || resp.User.Username != "gina" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if ok, _ := security.VerifyPassword("secret1", repo.users[0].PasswordHash); !ok {
		t.Fatal("stored hash does not verify")
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{users: []*models.User{{ID: 1, Username: "hank", Email: "hank@example.com"}}, nextID: 1}
	svc := buildTestService(t, repo)

	base := RegisterRequest{Username: "ivy", Email: "ivy@example.com", Password: "secret1", Address: "x", Contact: "y"}

	missing := base
	missing.Contact = " "
	if _, err := svc.Register(context.Background(), missing); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	short := base
	short.Password = "12345"
	if _, err := svc.Register(context.Background(), short); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	dup := base
	dup.Email = "HANK@example.com"
	if _, err := svc.Register(context.Background(), dup); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterMapsUniqueViolation(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{createErr: gorm.ErrDuplicatedKey}
	svc := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "j", Email: "j@example.com", Password: "secret1", Address: "a", Contact: "c"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{users: []*models.User{{
		ID:           5,
		Username:     "kim",
		Email:        "kim@example.com",
		PasswordHash: mustHashPassword(t, "kimchi1"),
		Role:         enums.RoleAdmin,
	}}}
	svc := buildTestService(t, repo)

	for _, identifier := range []string{"kim", "KIM@example.com"} {
		resp, err := svc.Login(context.Background(), LoginRequest{Identifier: identifier, Password: "kimchi1"})
		if err != nil {
			t.Fatalf("login with %q: %v", identifier, err)
		}
		if resp.User.ID != 5 || !resp.User.Role.IsAdmin() {
			t.Fatalf("unexpected user %+v", resp.User)
		}
	}
	if len(repo.rehashed) != 0 {
		t.Fatal("argon2id hashes should not be rehashed")
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	t.Parallel()
	repo := &stubUserRepo{users: []*models.User{{ID: 1, Username: "lee", Email: "lee@example.com", PasswordHash: mustHashPassword(t, "right-one")}}}
	svc := buildTestService(t, repo)

	_, wrongPassword := svc.Login(context.Background(), LoginRequest{Identifier: "lee", Password: "wrong-one"})
	_, unknownUser := svc.Login(context.Background(), LoginRequest{Identifier: "nobody", Password: "whatever"})

	for _, err := range []error{wrongPassword, unknownUser} {
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if pkgerrors.As(err).Message() != invalidCredentialsMessage {
			t.Fatalf("expected generic message, got %q", pkgerrors.As(err).Message())
		}
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	t.Parallel()
	sum := sha256.Sum256([]byte("oldschool"))
	repo := &stubUserRepo{users: []*models.User{{ID: 9, Username: "moe", Email: "moe@example.com", PasswordHash: hex.EncodeToString(sum[:])}}}
	svc := buildTestService(t, repo)

	if _, err := svc.Login(context.Background(), LoginRequest{Identifier: "moe", Password: "oldschool"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	hash, ok := repo.rehashed[9]
	if !ok {
		t.Fatal("expected legacy hash to be upgraded")
	}
	if security.NeedsRehash(hash, testPasswordConfig) {
		t.Fatal("upgraded hash should be argon2id")
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error")
	}
}
