package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blendresto/internal/domain"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubPurchaseRepo is an in-memory PurchaseOrderRepository.
type stubPurchaseRepo struct {
	orders map[uuid.UUID]*model.PurchaseOrder
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{orders: make(map[uuid.UUID]*model.PurchaseOrder)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, po *model.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	cp := *po
	r.orders[po.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok || po.TenantID != scope.TenantID() {
		return nil, domain.ErrNotFound
	}
	cp := *po
	return &cp, nil
}

func (r *stubPurchaseRepo) MarkReceivedTx(_ *gorm.DB, _ repository.Scope, id uuid.UUID, at time.Time) error {
	po := r.orders[id]
	po.Status = model.PurchaseStatusReceived
	po.ReceivedAt = &at
	return nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseOrderRepository = (*stubPurchaseRepo)(nil)

type purchaseFixture struct {
	svc     service.PurchaseService
	repo    *stubPurchaseRepo
	bus     *events.Bus
	capture *captureConsumer
	scope   repository.Scope
}

func buildPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	scope, err := repository.NewScope(uuid.New())
	require.NoError(t, err)

	repo := newStubPurchaseRepo()
	bus := events.NewBus()
	capture := &captureConsumer{}
	bus.Subscribe(events.PurchaseOrderReceivedName, capture)

	return &purchaseFixture{
		svc:     service.NewPurchaseService(repo, bus),
		repo:    repo,
		bus:     bus,
		capture: capture,
		scope:   scope,
	}
}

func TestCreatePurchaseStartsAsDraft(t *testing.T) {
	f := buildPurchaseFixture(t)

	resp, err := f.svc.Create(context.Background(), f.scope, dto.CreatePurchaseRequest{
		Items: []dto.PurchaseLineRequest{
			{RawMaterialID: uuid.NewString(), Quantity: decimal.NewFromInt(50), UnitPrice: decimal.RequireFromString("1.80")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusDraft, resp.Status)
	assert.Nil(t, resp.ReceivedAt)
	require.Len(t, resp.Items, 1)
}

func TestCreatePurchaseRejectsNonPositiveQuantity(t *testing.T) {
	f := buildPurchaseFixture(t)

	_, err := f.svc.Create(context.Background(), f.scope, dto.CreatePurchaseRequest{
		Items: []dto.PurchaseLineRequest{
			{RawMaterialID: uuid.NewString(), Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.repo.orders)
}

func TestReceivePublishesAfterCommit(t *testing.T) {
	f := buildPurchaseFixture(t)

	resp, err := f.svc.Create(context.Background(), f.scope, dto.CreatePurchaseRequest{
		Items: []dto.PurchaseLineRequest{
			{RawMaterialID: uuid.NewString(), Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, f.svc.Receive(context.Background(), f.scope, id))
	f.bus.Wait()

	assert.Equal(t, model.PurchaseStatusReceived, f.repo.orders[id].Status)
	require.NotNil(t, f.repo.orders[id].ReceivedAt)

	got := f.capture.events()
	require.Len(t, got, 1)
	received := got[0].(events.PurchaseOrderReceived)
	assert.Equal(t, id, received.PurchaseOrderID)
	assert.Equal(t, f.scope.TenantID(), received.TenantID)
}

func TestReceiveTwiceIsRejected(t *testing.T) {
	f := buildPurchaseFixture(t)

	resp, err := f.svc.Create(context.Background(), f.scope, dto.CreatePurchaseRequest{
		Items: []dto.PurchaseLineRequest{
			{RawMaterialID: uuid.NewString(), Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, f.svc.Receive(context.Background(), f.scope, id))
	err = f.svc.Receive(context.Background(), f.scope, id)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	f.bus.Wait()
	assert.Len(t, f.capture.events(), 1, "rejected receive must not republish")
}

func TestReceiveCancelledIsRejected(t *testing.T) {
	f := buildPurchaseFixture(t)

	po := &model.PurchaseOrder{TenantID: f.scope.TenantID(), Status: model.PurchaseStatusCancelled}
	require.NoError(t, f.repo.Create(context.Background(), po))

	err := f.svc.Receive(context.Background(), f.scope, po.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}
