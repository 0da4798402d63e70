package repository

import (
	"context"

	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeRepository resolves a product's bill of materials.
type RecipeRepository interface {
	// ListByProduct returns the recipe lines for one product. An empty slice
	// means the product is not stock-tracked — not an error.
	ListByProduct(ctx context.Context, scope Scope, productID uuid.UUID) ([]model.RecipeItem, error)
}

type recipeRepo struct{ db *gorm.DB }

func NewRecipeRepository(db *gorm.DB) RecipeRepository { return &recipeRepo{db: db} }

func (r *recipeRepo) ListByProduct(ctx context.Context, scope Scope, productID uuid.UUID) ([]model.RecipeItem, error) {
	var items []model.RecipeItem
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", scope.TenantID(), productID).
		Find(&items).Error
	return items, err
}
