package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	"github.com/jkimani/campus-delivery-backend/pkg/outbox/payloads"
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type itemResolver interface {
	ResolveItems(ctx context.Context, refs []catalog.ItemRef) (map[catalog.ItemRef]catalog.ResolvedItem, error)
}

// Service defines order operations for customers, agents and admins.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, filters ListFilters) (*List, error)
	ListAssigned(ctx context.Context, agentID uuid.UUID, filters ListFilters) (*List, error)
	ListAll(ctx context.Context, filters ListFilters) (*List, error)
	Tracking(ctx context.Context, orderID, userID uuid.UUID) (*TrackingView, error)
	UpdateDeliveryStatus(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole, req UpdateDeliveryStatusRequest) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole, req CancelRequest) (*OrderDTO, error)
	Delete(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) error
}

type service struct {
	repo      Repository
	cartRepo  cart.Repository
	agentRepo agents.Repository
	resolver  itemResolver
	tx        txRunner
	outbox    outboxPublisher
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo      Repository
	CartRepo  cart.Repository
	AgentRepo agents.Repository
	Resolver  itemResolver
	Tx        txRunner
	Outbox    outboxPublisher
}

// NewService constructs an order service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.AgentRepo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("item resolver required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      params.Repo,
		cartRepo:  params.CartRepo,
		agentRepo: params.AgentRepo,
		resolver:  params.Resolver,
		tx:        params.Tx,
		outbox:    params.Outbox,
	}, nil
}

// Place dispatches the user's cart as a new order. Price resolution,
// agent assignment and the cart wipe happen in one transaction so a
// failure at any step leaves no partial order behind.
func (s *service) Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	location := strings.TrimSpace(req.DeliveryLocation)
	if location == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery location required")
	}
	phone := strings.TrimSpace(req.ContactPhone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact phone required")
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		lines, err := cartRepo.ListByUserForUpdate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		refs := make([]catalog.ItemRef, 0, len(lines))
		for _, line := range lines {
			refs = append(refs, catalog.ItemRef{Kind: line.ItemKind, ID: line.ItemID})
		}
		resolved, err := s.resolver.ResolveItems(ctx, refs)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			ref := catalog.ItemRef{Kind: line.ItemKind, ID: line.ItemID}
			detail, ok := resolved[ref]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s no longer exists", ref.Kind))
			}
			if !detail.Available {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s is no longer available", ref.Kind))
			}
			lineTotal := detail.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, models.OrderItem{
				ItemKind:  line.ItemKind,
				ItemID:    line.ItemID,
				Name:      detail.Name,
				UnitPrice: detail.Price,
				Quantity:  line.Quantity,
				LineTotal: lineTotal,
			})
		}

		agent, err := s.agentRepo.WithTx(tx).FindLeastLoaded(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select delivery agent")
		}
		if agent == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "no delivery agents available")
		}

		order := &models.Order{
			UserID:           userID,
			AgentID:          agent.ID,
			Total:            total,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.OrderPaymentStatusUnpaid,
			DeliveryStatus:   enums.DeliveryStatusProcessing,
			DeliveryLocation: location,
			ContactPhone:     phone,
			Notes:            req.Notes,
		}
		if _, err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if err := cartRepo.ClearUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		placed = order
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(userID, enums.UserRoleCustomer),
			Data: payloads.OrderPlacedEvent{
				OrderID:   order.ID,
				UserID:    userID,
				AgentID:   agent.ID,
				Total:     total,
				ItemCount: len(items),
				PlacedAt:  time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(placed), nil
}

func (s *service) Get(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch role {
	case enums.UserRoleAdmin:
	case enums.UserRoleAgent:
		if order.AgentID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not assigned to agent")
		}
	default:
		if order.UserID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	return FromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, filters ListFilters) (*List, error) {
	orders, next, err := s.repo.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildList(orders, next), nil
}

func (s *service) ListAssigned(ctx context.Context, agentID uuid.UUID, filters ListFilters) (*List, error) {
	orders, next, err := s.repo.ListByAgent(ctx, agentID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list assigned orders")
	}
	return buildList(orders, next), nil
}

func (s *service) ListAll(ctx context.Context, filters ListFilters) (*List, error) {
	orders, next, err := s.repo.ListAll(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildList(orders, next), nil
}

func (s *service) Tracking(ctx context.Context, orderID, userID uuid.UUID) (*TrackingView, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	view := &TrackingView{
		OrderID:        order.ID,
		DeliveryStatus: order.DeliveryStatus,
		TrackingNumber: order.TrackingNumber,
		DeliveredAt:    order.DeliveredAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if agent, err := s.agentRepo.FindByID(ctx, order.AgentID); err == nil && agent != nil {
		view.AgentName = strings.TrimSpace(agent.FirstName + " " + agent.LastName)
		view.AgentPhone = agent.Phone
	}
	return view, nil
}

func (s *service) UpdateDeliveryStatus(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole, req UpdateDeliveryStatusRequest) (*OrderDTO, error) {
	if req.Status == nil && req.TrackingNumber == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery status or tracking number required")
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if role != enums.UserRoleAdmin && order.AgentID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order not assigned to agent")
		}

		updates := map[string]any{}
		if req.TrackingNumber != nil {
			updates["tracking_number"] = *req.TrackingNumber
			order.TrackingNumber = req.TrackingNumber
		}
		// Any valid delivery status may follow any other; only enum
		// membership is checked (validated above).
		statusChanged := req.Status != nil && order.DeliveryStatus != *req.Status
		if statusChanged {
			updates["delivery_status"] = *req.Status
			if *req.Status == enums.DeliveryStatusDelivered {
				now := time.Now().UTC()
				updates["delivered_at"] = now
				order.DeliveredAt = &now
			}
		}
		if len(updates) == 0 {
			updated = order
			return nil
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
		}
		if statusChanged {
			order.DeliveryStatus = *req.Status
		}
		updated = order

		if !statusChanged {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(actorID, role),
			Data: payloads.DeliveryStateChangedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				AgentID:        order.AgentID,
				DeliveryStatus: *req.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

// UpdateStatus applies an admin lifecycle transition to the order status.
func (s *service) UpdateStatus(ctx context.Context, orderID, adminID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	if !req.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == req.Status {
			updated = order
			return nil
		}
		if !order.Status.CanTransitionTo(req.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed")
		}

		updates := map[string]any{"status": req.Status}
		if req.Status == enums.OrderStatusCancelled {
			now := time.Now().UTC()
			updates["cancelled_at"] = now
			order.CancelledAt = &now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = req.Status
		updated = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(adminID, enums.UserRoleAdmin),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				UserID:    order.UserID,
				Status:    req.Status,
				ChangedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Cancel(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole, req CancelRequest) (*OrderDTO, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if role != enums.UserRoleAdmin && order.UserID != actorID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
		}
		if order.DeliveryStatus == enums.DeliveryStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be cancelled")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":          enums.OrderStatusCancelled,
			"delivery_status": enums.DeliveryStatusCancelled,
			"cancelled_at":    now,
		}
		if req.Reason != nil {
			updates["cancel_reason"] = *req.Reason
			order.CancelReason = req.Reason
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.DeliveryStatus = enums.DeliveryStatusCancelled
		order.CancelledAt = &now
		cancelled = order

		event := payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			AgentID:     order.AgentID,
			CancelledAt: now,
		}
		if req.Reason != nil {
			event.Reason = *req.Reason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(actorID, role),
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(cancelled), nil
}

func (s *service) Delete(ctx context.Context, orderID, actorID uuid.UUID, role enums.UserRole) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if role != enums.UserRoleAdmin && order.UserID != actorID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted")
	}
	if err := s.repo.Delete(ctx, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func buildList(orders []models.Order, next *pagination.Cursor) *List {
	summaries := make([]Summary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, Summary{
			ID:             order.ID,
			Total:          order.Total,
			Status:         order.Status,
			DeliveryStatus: order.DeliveryStatus,
			ItemCount:      len(order.Items),
			CreatedAt:      order.CreatedAt,
		})
	}
	list := &List{Orders: summaries}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}

func buildActor(id uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: id, Role: string(role)}
}
