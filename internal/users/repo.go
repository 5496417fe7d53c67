package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
)

// Repository is the accounts table. Emails are stored normalized so every
// lookup below normalizes its input the same way.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) accounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{})
}

func (r *Repository) first(ctx context.Context, where string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(where, args...).Order("id ASC").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", NormalizeEmail(email))
}

// FindByIdentifier accepts a username or an email address.
func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	return r.first(ctx, "username = ? OR email = ?", identifier, NormalizeEmail(identifier))
}

func (r *Repository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.accounts(ctx).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// EmailTaken ignores excludeID so a profile can keep its own address.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	q := r.accounts(ctx).Where("email = ?", NormalizeEmail(email))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Order("username ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *Repository) UpdateProfile(ctx context.Context, id uint64, input ProfileInput) error {
	return r.accounts(ctx).Where("id = ?", id).Updates(map[string]any{
		"username": input.Username,
		"email":    NormalizeEmail(input.Email),
		"address":  input.Address,
		"contact":  input.Contact,
	}).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	return r.accounts(ctx).Where("id = ?", id).UpdateColumn("password_hash", hash).Error
}

func (r *Repository) SetRole(ctx context.Context, id uint64, role enums.Role) error {
	return r.accounts(ctx).Where("id = ?", id).UpdateColumn("role", role).Error
}

func (r *Repository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}
