package repository_test

import (
	"errors"
	"testing"

	"blendresto/internal/domain"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScopeRejectsNilTenant(t *testing.T) {
	_, err := repository.NewScope(uuid.Nil)
	assert.Error(t, err)
}

func TestScopeCheckDetectsCrossTenantRow(t *testing.T) {
	tenantID := uuid.New()
	scope, err := repository.NewScope(tenantID)
	require.NoError(t, err)

	assert.NoError(t, scope.Check(tenantID))
	assert.True(t, errors.Is(scope.Check(uuid.New()), domain.ErrTenantMismatch))
}
