package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimani/campus-delivery-backend/internal/orders"
	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	pkgerrors "github.com/jkimani/campus-delivery-backend/pkg/errors"
	"github.com/jkimani/campus-delivery-backend/pkg/mpesa"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox/payloads"
)

const callbackGuardTTL = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stkPusher interface {
	STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, description string) (*mpesa.STKPushResponse, error)
}

// callbackGuard deduplicates provider callbacks across replicas.
type callbackGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Service defines payment settlement operations.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResponse, error)
	HandleCallback(ctx context.Context, envelope mpesa.CallbackEnvelope) error
	Status(ctx context.Context, orderID, userID uuid.UUID) (*PaymentDTO, error)
	StatusByID(ctx context.Context, paymentID, actorID uuid.UUID, role enums.UserRole) (*PaymentDTO, error)
	Refund(ctx context.Context, paymentID, adminID uuid.UUID) (*PaymentDTO, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	stk        stkPusher
	guard      callbackGuard
	tx         txRunner
	outbox     outboxPublisher
}

// ServiceParams bundles the dependencies required to build a payment service.
type ServiceParams struct {
	Repo       Repository
	OrdersRepo orders.Repository
	STK        stkPusher
	Guard      callbackGuard
	Tx         txRunner
	Outbox     outboxPublisher
}

// NewService constructs a payment service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.STK == nil {
		return nil, fmt.Errorf("stk client required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("callback guard required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:       params.Repo,
		ordersRepo: params.OrdersRepo,
		stk:        params.STK,
		guard:      params.Guard,
		tx:         params.Tx,
		outbox:     params.Outbox,
	}, nil
}

// Initiate pushes an STK prompt for the order total and records a
// pending payment keyed by the provider's CheckoutRequestID.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResponse, error) {
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if req.PhoneNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}

	order, err := s.ordersRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}
	if existing, err := s.repo.FindByOrderID(ctx, order.ID); err == nil && existing.Status == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	}

	push, err := s.stk.STKPush(ctx, req.PhoneNumber, order.Total, order.ID.String(), "Campus delivery order")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stk push")
	}
	if push.CheckoutRequestID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider did not return a checkout id")
	}

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, &models.Payment{
			OrderID:       order.ID,
			UserID:        userID,
			Amount:        order.Total,
			PhoneNumber:   req.PhoneNumber,
			Method:        enums.PaymentMethodMpesa,
			Status:        enums.PaymentStatusPending,
			TransactionID: push.CheckoutRequestID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		payment = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentInitiated,
			AggregateType: enums.AggregatePayment,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.PaymentInitiatedEvent{
				PaymentID:     created.ID,
				OrderID:       order.ID,
				UserID:        userID,
				Amount:        order.Total,
				TransactionID: created.TransactionID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return &InitiateResponse{
		Payment:         FromModel(payment),
		CustomerMessage: push.CustomerMessage,
	}, nil
}

// HandleCallback settles a payment from the provider's webhook. The
// callback is deduplicated on CheckoutRequestID so provider retries are
// harmless, and an unknown id is reported without touching any state.
func (s *service) HandleCallback(ctx context.Context, envelope mpesa.CallbackEnvelope) error {
	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing checkout request id")
	}

	guardKey := s.guard.IdempotencyKey("payments:callback", cb.CheckoutRequestID)
	fresh, err := s.guard.SetNX(ctx, guardKey, time.Now().UTC().Format(time.RFC3339), callbackGuardTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "callback dedup")
	}
	if !fresh {
		return nil
	}

	payment, err := s.repo.FindByTransactionID(ctx, cb.CheckoutRequestID)
	if err != nil {
		_ = s.guard.Del(ctx, guardKey)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unknown transaction")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if cb.Succeeded() {
			now := time.Now().UTC()
			updates := map[string]any{
				"status":      enums.PaymentStatusCompleted,
				"result_desc": cb.ResultDesc,
				"paid_at":     now,
			}
			receipt := cb.Receipt()
			if receipt != "" {
				// The receipt number replaces the checkout id as the
				// durable transaction reference.
				updates["transaction_id"] = receipt
				updates["mpesa_receipt"] = receipt
				payment.TransactionID = receipt
			}
			if amount, ok := cb.Amount(); ok {
				updates["amount"] = amount
				payment.Amount = amount
			}
			if err := repo.Update(ctx, payment.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
			}

			ordersRepo := s.ordersRepo.WithTx(tx)
			order, err := ordersRepo.FindByID(ctx, payment.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			orderUpdates := map[string]any{
				"payment_status": enums.OrderPaymentStatusPaid,
			}
			// The lifecycle status only follows when the order is still
			// pending; a cancelled or failed order keeps its status.
			if order.Status.CanTransitionTo(enums.OrderStatusPaid) {
				orderUpdates["status"] = enums.OrderStatusPaid
			}
			if err := ordersRepo.Update(ctx, payment.OrderID, orderUpdates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
			payment.Status = enums.PaymentStatusCompleted
			payment.PaidAt = &now

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentCompleted,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Version:       1,
				Data: payloads.PaymentStatusEvent{
					PaymentID:     payment.ID,
					OrderID:       payment.OrderID,
					UserID:        payment.UserID,
					Amount:        payment.Amount,
					Status:        enums.PaymentStatusCompleted,
					TransactionID: payment.TransactionID,
					MpesaReceipt:  receipt,
					ResultDesc:    cb.ResultDesc,
				},
			})
		}

		if err := repo.Update(ctx, payment.ID, map[string]any{
			"status":      enums.PaymentStatusFailed,
			"result_desc": cb.ResultDesc,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
		}
		payment.Status = enums.PaymentStatusFailed

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Data: payloads.PaymentStatusEvent{
				PaymentID:     payment.ID,
				OrderID:       payment.OrderID,
				UserID:        payment.UserID,
				Amount:        payment.Amount,
				Status:        enums.PaymentStatusFailed,
				TransactionID: payment.TransactionID,
				ResultDesc:    cb.ResultDesc,
			},
		})
	})
	if err != nil {
		// Let the provider retry the callback.
		_ = s.guard.Del(ctx, guardKey)
		return err
	}
	return nil
}

func (s *service) Status(ctx context.Context, orderID, userID uuid.UUID) (*PaymentDTO, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	return FromModel(payment), nil
}

// StatusByID looks up a payment row directly. Non-admin callers only
// see their own payments; a foreign id reads as absent.
func (s *service) StatusByID(ctx context.Context, paymentID, actorID uuid.UUID, role enums.UserRole) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if role != enums.UserRoleAdmin && payment.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return FromModel(payment), nil
}

// Refund marks a completed payment as refunded. Only COMPLETED
// payments are refundable.
func (s *service) Refund(ctx context.Context, paymentID, adminID uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if !payment.Status.CanTransitionTo(enums.PaymentStatusRefunded) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded")
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, payment.ID, map[string]any{
			"status":      enums.PaymentStatusRefunded,
			"refunded_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
		}
		payment.Status = enums.PaymentStatusRefunded
		payment.RefundedAt = &now

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.PaymentStatusEvent{
				PaymentID:     payment.ID,
				OrderID:       payment.OrderID,
				UserID:        payment.UserID,
				Amount:        payment.Amount,
				Status:        enums.PaymentStatusRefunded,
				TransactionID: payment.TransactionID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(payment), nil
}
