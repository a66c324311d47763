package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/internal/agents"
	"github.com/jkimani/campus-delivery-backend/internal/cart"
	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

func TestPlaceComputesTotalAndSnapshotsItems(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	agentID := uuid.New()
	chapati := resolvedItem(enums.ItemKindProduct, "Chapati pack", 50)
	laundry := resolvedItem(enums.ItemKindService, "Laundry run", 200)

	fx := newFixture(t)
	fx.agents.agent = &models.DeliveryAgent{ID: agentID, IsActive: true}
	fx.resolver.add(chapati, laundry)
	fx.cart.seed(userID, chapati.Ref, 3)
	fx.cart.seed(userID, laundry.Ref, 1)

	order, err := fx.svc.Place(context.Background(), userID, PlaceOrderRequest{
		DeliveryLocation: "Hostel B, Room 12",
		ContactPhone:     "+254700000001",
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// 3x50 + 1x200
	if !order.Total.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected total 350, got %s", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 snapshot items, got %d", len(order.Items))
	}
	if order.AgentID != agentID {
		t.Fatalf("expected assignment to agent %s, got %s", agentID, order.AgentID)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.DeliveryStatus != enums.DeliveryStatusProcessing {
		t.Fatalf("expected processing delivery status, got %s", order.DeliveryStatus)
	}
	for _, item := range order.Items {
		if !item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Fatalf("line total mismatch: %+v", item)
		}
	}
	if len(fx.cart.linesFor(userID)) != 0 {
		t.Fatalf("expected cart to be cleared")
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventOrderPlaced {
		t.Fatalf("expected order_placed event, got %+v", fx.outbox.events)
	}
}

func TestPlaceRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.agents.agent = &models.DeliveryAgent{ID: uuid.New(), IsActive: true}

	_, err := fx.svc.Place(context.Background(), uuid.New(), PlaceOrderRequest{
		DeliveryLocation: "Hostel B",
		ContactPhone:     "+254700000001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fx.orders.orders) != 0 {
		t.Fatalf("no order should be persisted for an empty cart")
	}
}

func TestPlaceFailsWithoutAgents(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	chapati := resolvedItem(enums.ItemKindProduct, "Chapati pack", 50)

	fx := newFixture(t)
	fx.resolver.add(chapati)
	fx.cart.seed(userID, chapati.Ref, 1)

	_, err := fx.svc.Place(context.Background(), userID, PlaceOrderRequest{
		DeliveryLocation: "Hostel B",
		ContactPhone:     "+254700000001",
	})
	// Selection having nobody to pick is an operational failure, not a
	// problem with the request.
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fx.orders.orders) != 0 {
		t.Fatalf("no order should be persisted without agents")
	}
	if len(fx.cart.linesFor(userID)) != 1 {
		t.Fatalf("cart must remain intact when placement fails")
	}
}

func TestPlaceRejectsUnavailableItem(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	stale := resolvedItem(enums.ItemKindProduct, "Sold out", 50)
	stale.Available = false

	fx := newFixture(t)
	fx.agents.agent = &models.DeliveryAgent{ID: uuid.New(), IsActive: true}
	fx.resolver.add(stale)
	fx.cart.seed(userID, stale.Ref, 1)

	_, err := fx.svc.Place(context.Background(), userID, PlaceOrderRequest{
		DeliveryLocation: "Hostel B",
		ContactPhone:     "+254700000001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestPlaceRejectsVanishedItem(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	fx.agents.agent = &models.DeliveryAgent{ID: uuid.New(), IsActive: true}

	// The cart line points at an item the catalog no longer resolves.
	gone := catalog.ItemRef{Kind: enums.ItemKindProduct, ID: uuid.New()}
	fx.cart.seed(userID, gone, 1)

	_, err := fx.svc.Place(context.Background(), userID, PlaceOrderRequest{
		DeliveryLocation: "Hostel B",
		ContactPhone:     "+254700000001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelRejectsDeliveredAndCancelledOrders(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)

	delivered := fx.orders.seed(userID, enums.OrderStatusPaid, enums.DeliveryStatusDelivered)
	_, err := fx.svc.Cancel(context.Background(), delivered.ID, userID, enums.UserRoleCustomer, CancelRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for delivered order, got %v", err)
	}

	done := fx.orders.seed(userID, enums.OrderStatusCancelled, enums.DeliveryStatusCancelled)
	_, err = fx.svc.Cancel(context.Background(), done.ID, userID, enums.UserRoleCustomer, CancelRequest{})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for already cancelled order, got %v", err)
	}
	if len(fx.outbox.events) != 0 {
		t.Fatalf("no events should be emitted for rejected cancels, got %+v", fx.outbox.events)
	}
}

func TestCancelStoresReasonAndEmitsEvent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPaid, enums.DeliveryStatusDispatched)

	reason := "ordered the wrong item"
	cancelled, err := fx.svc.Cancel(context.Background(), order.ID, userID, enums.UserRoleCustomer, CancelRequest{Reason: &reason})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if cancelled.DeliveryStatus != enums.DeliveryStatusCancelled {
		t.Fatalf("expected cancelled delivery status, got %s", cancelled.DeliveryStatus)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled_at to be set")
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != reason {
		t.Fatalf("expected cancel reason %q, got %v", reason, cancelled.CancelReason)
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected order_cancelled event, got %+v", fx.outbox.events)
	}
}

func TestCancelHidesForeignOrdersFromCustomers(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPending, enums.DeliveryStatusProcessing)

	_, err := fx.svc.Cancel(context.Background(), order.ID, uuid.New(), enums.UserRoleCustomer, CancelRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign customer, got %v", err)
	}

	if _, err := fx.svc.Cancel(context.Background(), order.ID, uuid.New(), enums.UserRoleAdmin, CancelRequest{}); err != nil {
		t.Fatalf("admin should cancel any order: %v", err)
	}
}

func TestDeleteOnlyPendingOrCancelled(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)

	paid := fx.orders.seed(userID, enums.OrderStatusPaid, enums.DeliveryStatusDispatched)
	err := fx.svc.Delete(context.Background(), paid.ID, userID, enums.UserRoleCustomer)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for paid order, got %v", err)
	}

	cancelled := fx.orders.seed(userID, enums.OrderStatusCancelled, enums.DeliveryStatusCancelled)
	if err := fx.svc.Delete(context.Background(), cancelled.ID, userID, enums.UserRoleCustomer); err != nil {
		t.Fatalf("delete cancelled: %v", err)
	}
	if _, ok := fx.orders.orders[cancelled.ID]; ok {
		t.Fatalf("expected cancelled order to be removed")
	}
}

func TestUpdateDeliveryStatusEnforcesAssignment(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPaid, enums.DeliveryStatusProcessing)

	dispatched := enums.DeliveryStatusDispatched
	_, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, uuid.New(), enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		Status: &dispatched,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign agent, got %v", err)
	}

	if _, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, uuid.New(), enums.UserRoleAdmin, UpdateDeliveryStatusRequest{
		Status: &dispatched,
	}); err != nil {
		t.Fatalf("admin should update any order: %v", err)
	}
}

func TestUpdateDeliveryStatusAllowsAnyValidStatus(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPaid, enums.DeliveryStatusProcessing)

	// No adjacency rule: skipping dispatched is fine.
	inTransit := enums.DeliveryStatusInTransit
	updated, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, order.AgentID, enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		Status: &inTransit,
	})
	if err != nil {
		t.Fatalf("processing->in_transit: %v", err)
	}
	if updated.DeliveryStatus != enums.DeliveryStatusInTransit {
		t.Fatalf("expected in_transit, got %s", updated.DeliveryStatus)
	}

	processing := enums.DeliveryStatusProcessing
	if _, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, order.AgentID, enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		Status: &processing,
	}); err != nil {
		t.Fatalf("moving back to processing must be allowed: %v", err)
	}

	unknown := enums.DeliveryStatus("misplaced")
	_, err = fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, order.AgentID, enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		Status: &unknown,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestUpdateDeliveryStatusDeliveredStampsTime(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPaid, enums.DeliveryStatusInTransit)

	delivered := enums.DeliveryStatusDelivered
	updated, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, order.AgentID, enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		Status: &delivered,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DeliveryStatus != enums.DeliveryStatusDelivered {
		t.Fatalf("expected delivered, got %s", updated.DeliveryStatus)
	}
	if updated.DeliveredAt == nil {
		t.Fatalf("expected delivered_at to be stamped")
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventDeliveryStateChanged {
		t.Fatalf("expected delivery_state_changed event, got %+v", fx.outbox.events)
	}
}

func TestUpdateDeliveryStatusTrackingNumberOnly(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPaid, enums.DeliveryStatusDispatched)

	tracking := "TRK-2024-0042"
	updated, err := fx.svc.UpdateDeliveryStatus(context.Background(), order.ID, order.AgentID, enums.UserRoleAgent, UpdateDeliveryStatusRequest{
		TrackingNumber: &tracking,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TrackingNumber == nil || *updated.TrackingNumber != tracking {
		t.Fatalf("expected tracking number %q, got %v", tracking, updated.TrackingNumber)
	}
	if updated.DeliveryStatus != enums.DeliveryStatusDispatched {
		t.Fatalf("delivery status must not change, got %s", updated.DeliveryStatus)
	}
	if len(fx.outbox.events) != 0 {
		t.Fatalf("tracking-only updates must not emit events, got %+v", fx.outbox.events)
	}
}

func TestUpdateStatusEnforcesTransitionTable(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPending, enums.DeliveryStatusProcessing)

	updated, err := fx.svc.UpdateStatus(context.Background(), order.ID, uuid.New(), UpdateStatusRequest{
		Status: enums.OrderStatusPaid,
	})
	if err != nil {
		t.Fatalf("pending->paid: %v", err)
	}
	if updated.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", updated.Status)
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventOrderStatusChanged {
		t.Fatalf("expected order_status_changed event, got %+v", fx.outbox.events)
	}

	_, err = fx.svc.UpdateStatus(context.Background(), order.ID, uuid.New(), UpdateStatusRequest{
		Status: enums.OrderStatusPending,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for paid->pending, got %v", err)
	}
}

func TestUpdateStatusCancelledStampsTime(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPending, enums.DeliveryStatusProcessing)

	updated, err := fx.svc.UpdateStatus(context.Background(), order.ID, uuid.New(), UpdateStatusRequest{
		Status: enums.OrderStatusCancelled,
	})
	if err != nil {
		t.Fatalf("pending->cancelled: %v", err)
	}
	if updated.CancelledAt == nil {
		t.Fatalf("expected cancelled_at to be stamped")
	}
}

func TestGetHidesForeignOrdersFromCustomers(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPending, enums.DeliveryStatusProcessing)

	_, err := fx.svc.Get(context.Background(), order.ID, uuid.New(), enums.UserRoleCustomer)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign customer, got %v", err)
	}

	if _, err := fx.svc.Get(context.Background(), order.ID, uuid.New(), enums.UserRoleAdmin); err != nil {
		t.Fatalf("admin should see any order: %v", err)
	}
}

// fixture wires the service against in-memory stubs.
type fixture struct {
	svc      Service
	orders   *stubOrderRepo
	cart     *stubCartRepo
	agents   *stubAgentRepo
	resolver *stubResolver
	outbox   *stubOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		orders:   newStubOrderRepo(),
		cart:     newStubCartRepo(),
		agents:   &stubAgentRepo{},
		resolver: &stubResolver{items: map[catalog.ItemRef]catalog.ResolvedItem{}},
		outbox:   &stubOutbox{},
	}
	svc, err := NewService(ServiceParams{
		Repo:      fx.orders,
		CartRepo:  fx.cart,
		AgentRepo: fx.agents,
		Resolver:  fx.resolver,
		Tx:        stubTxRunner{},
		Outbox:    fx.outbox,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	fx.svc = svc
	return fx
}

func resolvedItem(kind enums.ItemKind, name string, price int64) catalog.ResolvedItem {
	return catalog.ResolvedItem{
		Ref:       catalog.ItemRef{Kind: kind, ID: uuid.New()},
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Available: true,
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubResolver struct {
	items map[catalog.ItemRef]catalog.ResolvedItem
}

func (s *stubResolver) add(items ...catalog.ResolvedItem) {
	for _, item := range items {
		s.items[item.Ref] = item
	}
}

func (s *stubResolver) ResolveItems(ctx context.Context, refs []catalog.ItemRef) (map[catalog.ItemRef]catalog.ResolvedItem, error) {
	out := map[catalog.ItemRef]catalog.ResolvedItem{}
	for _, ref := range refs {
		if item, ok := s.items[ref]; ok {
			out[ref] = item
		}
	}
	return out, nil
}

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) seed(userID uuid.UUID, status enums.OrderStatus, delivery enums.DeliveryStatus) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         userID,
		AgentID:        uuid.New(),
		Total:          decimal.NewFromInt(100),
		Status:         status,
		DeliveryStatus: delivery,
		CreatedAt:      time.Now().UTC(),
	}
	s.orders[order.ID] = order
	return order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	order.CreatedAt = time.Now().UTC()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil, nil
}

func (s *stubOrderRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.AgentID == agentID {
			out = append(out, *order)
		}
	}
	return out, nil, nil
}

func (s *stubOrderRepo) ListAll(ctx context.Context, filters ListFilters) ([]models.Order, *pagination.Cursor, error) {
	var out []models.Order
	for _, order := range s.orders {
		out = append(out, *order)
	}
	return out, nil, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if delivery, ok := updates["delivery_status"].(enums.DeliveryStatus); ok {
		order.DeliveryStatus = delivery
	}
	if at, ok := updates["cancelled_at"].(time.Time); ok {
		order.CancelledAt = &at
	}
	if at, ok := updates["delivered_at"].(time.Time); ok {
		order.DeliveredAt = &at
	}
	if tracking, ok := updates["tracking_number"].(string); ok {
		order.TrackingNumber = &tracking
	}
	if reason, ok := updates["cancel_reason"].(string); ok {
		order.CancelReason = &reason
	}
	return nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.orders, id)
	return nil
}

type cartLine struct {
	id     uuid.UUID
	userID uuid.UUID
	ref    catalog.ItemRef
	qty    int
}

type stubCartRepo struct {
	lines []cartLine
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{}
}

func (s *stubCartRepo) seed(userID uuid.UUID, ref catalog.ItemRef, qty int) {
	s.lines = append(s.lines, cartLine{id: uuid.New(), userID: userID, ref: ref, qty: qty})
}

func (s *stubCartRepo) linesFor(userID uuid.UUID) []cartLine {
	var out []cartLine
	for _, line := range s.lines {
		if line.userID == userID {
			out = append(out, line)
		}
	}
	return out
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) Upsert(ctx context.Context, item *models.CartItem) error { return nil }

func (s *stubCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.ListByUserForUpdate(ctx, userID)
}

func (s *stubCartRepo) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, line := range s.lines {
		if line.userID == userID {
			out = append(out, models.CartItem{
				ID:       line.id,
				UserID:   line.userID,
				ItemKind: line.ref.Kind,
				ItemID:   line.ref.ID,
				Quantity: line.qty,
			})
		}
	}
	return out, nil
}

func (s *stubCartRepo) FindLine(ctx context.Context, userID uuid.UUID, kind enums.ItemKind, itemID uuid.UUID) (*models.CartItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return nil
}

func (s *stubCartRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubCartRepo) ClearUser(ctx context.Context, userID uuid.UUID) error {
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.userID != userID {
			kept = append(kept, line)
		}
	}
	s.lines = kept
	return nil
}

type stubAgentRepo struct {
	agent *models.DeliveryAgent
}

func (s *stubAgentRepo) WithTx(tx *gorm.DB) agents.Repository { return s }

func (s *stubAgentRepo) Create(ctx context.Context, agent *models.DeliveryAgent) (*models.DeliveryAgent, error) {
	return agent, nil
}

func (s *stubAgentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error) {
	if s.agent == nil || s.agent.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.agent, nil
}

func (s *stubAgentRepo) FindByEmail(ctx context.Context, email string) (*models.DeliveryAgent, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAgentRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubAgentRepo) FindLeastLoaded(ctx context.Context) (*models.DeliveryAgent, error) {
	return s.agent, nil
}

func (s *stubAgentRepo) List(ctx context.Context) ([]models.DeliveryAgent, error) {
	return nil, nil
}

func (s *stubAgentRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}
