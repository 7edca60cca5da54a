package entity

import (
	"time"

	"shopify-insights-layer/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantModel represents a tenant row
type TenantModel struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	Email          string     `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash   string     `gorm:"not null"`
	ShopDomain     *string    `gorm:"size:255;uniqueIndex"`
	AccessTokenEnc *string    `gorm:"type:text"`
	InstalledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (TenantModel) TableName() string { return "tenants" }

// BeforeCreate assigns an id when the caller did not
func (m *TenantModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ToDomain converts the row to a domain entity
func (m *TenantModel) ToDomain() *domain.Tenant {
	return &domain.Tenant{
		ID:             m.ID,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		ShopDomain:     m.ShopDomain,
		AccessTokenEnc: m.AccessTokenEnc,
		InstalledAt:    m.InstalledAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// TenantModelFromDomain converts a domain entity to a row
func TenantModelFromDomain(t *domain.Tenant) *TenantModel {
	return &TenantModel{
		ID:             t.ID,
		Email:          t.Email,
		PasswordHash:   t.PasswordHash,
		ShopDomain:     t.ShopDomain,
		AccessTokenEnc: t.AccessTokenEnc,
		InstalledAt:    t.InstalledAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
