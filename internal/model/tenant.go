package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one isolated restaurant/organization sharing the platform.
// Every other table carries a tenant_id; no query may cross tenants.
type Tenant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string    `gorm:"not null"`
	AlertEmail string    // manager inbox for margin / labor alerts
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
