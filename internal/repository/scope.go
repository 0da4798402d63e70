package repository

import (
	"errors"

	"blendresto/internal/domain"

	"github.com/google/uuid"
)

// Scope is the mandatory tenant filter threaded through every repository
// call. It cannot be constructed without a tenant id, which removes the
// missed-filter regression class entirely: a query path that compiles has a
// tenant predicate.
type Scope struct {
	tenantID uuid.UUID
}

// NewScope returns a Scope for the given tenant. The nil UUID is rejected —
// an unscoped query is a bug, not a convenience.
func NewScope(tenantID uuid.UUID) (Scope, error) {
	if tenantID == uuid.Nil {
		return Scope{}, errors.New("scope: tenant id required")
	}
	return Scope{tenantID: tenantID}, nil
}

// TenantID returns the tenant this scope is bound to.
func (s Scope) TenantID() uuid.UUID { return s.tenantID }

// Check compares a loaded row's tenant against the scope. A mismatch means a
// row was reached by id across tenants — surfaced as ErrTenantMismatch,
// never silently filtered away.
func (s Scope) Check(rowTenant uuid.UUID) error {
	if rowTenant != s.tenantID {
		return domain.ErrTenantMismatch
	}
	return nil
}
