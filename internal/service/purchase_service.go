package service

import (
	"context"
	"fmt"
	"time"

	"blendresto/internal/domain"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseService covers the receiving trigger: draft creation and the
// Received transition that fans out lot creation. Like checkout, Receive
// publishes only after its own commit.
type PurchaseService interface {
	Create(ctx context.Context, scope repository.Scope, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	Receive(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*dto.PurchaseResponse, error)
}

type purchaseService struct {
	repo repository.PurchaseOrderRepository
	bus  *events.Bus
}

func NewPurchaseService(repo repository.PurchaseOrderRepository, bus *events.Bus) PurchaseService {
	return &purchaseService{repo: repo, bus: bus}
}

func (s *purchaseService) Create(ctx context.Context, scope repository.Scope, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	po := model.PurchaseOrder{
		TenantID: scope.TenantID(),
		Status:   model.PurchaseStatusDraft,
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("%w: supplier_id: %v", domain.ErrInvalidInput, err)
		}
		po.SupplierID = &sid
	}
	for _, line := range req.Items {
		mid, err := uuid.Parse(line.RawMaterialID)
		if err != nil {
			return nil, fmt.Errorf("%w: raw_material_id: %v", domain.ErrInvalidInput, err)
		}
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: line quantity must be positive", domain.ErrInvalidInput)
		}
		po.Items = append(po.Items, model.PurchaseOrderItem{
			RawMaterialID: mid,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
		})
	}
	if err := s.repo.Create(ctx, &po); err != nil {
		return nil, err
	}
	return purchaseToResponse(&po), nil
}

// Receive marks the purchase order Received and publishes the occurrence
// after commit. Marking an already-received or cancelled order fails with
// ErrInvalidTransition; re-running receiving is not a silent no-op here —
// the consumer-side guard covers redelivery, this guards user error.
func (s *purchaseService) Receive(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	po, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if po.Status == model.PurchaseStatusReceived || po.Status == model.PurchaseStatusCancelled {
		return fmt.Errorf("%w: %s → received", domain.ErrInvalidTransition, po.Status)
	}

	now := time.Now().UTC()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.MarkReceivedTx(tx, scope, id, now)
	})
	if txErr != nil {
		return txErr
	}

	s.bus.Publish(ctx, events.PurchaseOrderReceived{
		TenantID:        scope.TenantID(),
		PurchaseOrderID: id,
	})
	return nil
}

func (s *purchaseService) Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*dto.PurchaseResponse, error) {
	po, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return purchaseToResponse(po), nil
}

func purchaseToResponse(po *model.PurchaseOrder) *dto.PurchaseResponse {
	items := make([]dto.PurchaseLineResponse, 0, len(po.Items))
	for _, line := range po.Items {
		items = append(items, dto.PurchaseLineResponse{
			RawMaterialID: line.RawMaterialID.String(),
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
		})
	}
	resp := &dto.PurchaseResponse{
		ID:        po.ID.String(),
		Status:    po.Status,
		Items:     items,
		CreatedAt: po.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if po.ReceivedAt != nil {
		at := po.ReceivedAt.Format("2006-01-02T15:04:05Z")
		resp.ReceivedAt = &at
	}
	return resp
}
