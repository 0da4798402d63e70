package repository

import (
	"context"
	"errors"

	"blendresto/internal/domain"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantRepository enumerates tenants for platform-wide crons. This is the
// one repository that legitimately runs unscoped — it produces the scopes
// everything else runs under.
type TenantRepository interface {
	ListActive(ctx context.Context) ([]model.Tenant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error)
}

type tenantRepo struct{ db *gorm.DB }

func NewTenantRepository(db *gorm.DB) TenantRepository { return &tenantRepo{db: db} }

func (r *tenantRepo) ListActive(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.db.WithContext(ctx).Where("active = true").Find(&tenants).Error
	return tenants, err
}

func (r *tenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	var t model.Tenant
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
