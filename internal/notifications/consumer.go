package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/jkimani/campus-delivery-backend/pkg/db/models"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/logger"
	"github.com/jkimani/campus-delivery-backend/pkg/mail"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox/idempotency"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type mailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg mail.Message) error
}

// Consumer watches domain events and materializes per-user notification
// rows, with a best-effort email alongside.
type Consumer struct {
	repo         repository
	users        userLookup
	mailer       mailSender
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, users userLookup, mailer mailSender, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		users:        users,
		mailer:       mailer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "event not handled")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithUserID(logCtx, notification.UserID.String())
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	c.logg.Info(logCtx, "notification stored")

	c.sendEmail(logCtx, notification)
	return processResult{ack: true}
}

// buildNotification maps a domain event onto an in-app notification. A
// nil notification with nil error means the event carries nothing a
// customer needs to see.
func (c *Consumer) buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventOrderPlaced:
		var payload payloads.OrderPlacedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order of %d item(s) totalling KES %s has been placed and assigned to a delivery agent.", payload.ItemCount, payload.Total.StringFixed(2)),
			Link:    &link,
		}, nil

	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		message := "Your order has been cancelled."
		if payload.Reason != "" {
			message = fmt.Sprintf("Your order has been cancelled: %s", payload.Reason)
		}
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order cancelled",
			Message: message,
			Link:    &link,
		}, nil

	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeOrderUpdate,
			Title:   "Order updated",
			Message: fmt.Sprintf("Your order status is now %s.", payload.Status),
			Link:    &link,
		}, nil

	case enums.EventDeliveryStateChanged:
		var payload payloads.DeliveryStateChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypeDeliveryUpdate,
			Title:   "Delivery update",
			Message: deliveryMessage(payload.DeliveryStatus),
			Link:    &link,
		}, nil

	case enums.EventPaymentInitiated:
		var payload payloads.PaymentInitiatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypePaymentUpdate,
			Title:   "Payment requested",
			Message: fmt.Sprintf("An M-PESA prompt for KES %s has been sent to your phone. Enter your PIN to complete payment.", payload.Amount.StringFixed(2)),
			Link:    &link,
		}, nil

	case enums.EventPaymentCompleted, enums.EventPaymentFailed, enums.EventPaymentRefunded:
		var payload payloads.PaymentStatusEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		link := orderLink(payload.OrderID)
		title, message := paymentMessage(payload)
		return &models.Notification{
			UserID:  payload.UserID,
			Type:    enums.NotificationTypePaymentUpdate,
			Title:   title,
			Message: message,
			Link:    &link,
		}, nil
	}
	return nil, nil
}

func (c *Consumer) sendEmail(ctx context.Context, notification *models.Notification) {
	if c.mailer == nil || !c.mailer.Enabled() {
		return
	}
	user, err := c.users.FindByID(ctx, notification.UserID)
	if err != nil {
		c.logg.Warn(ctx, "email skipped: user lookup failed")
		return
	}
	err = c.mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: notification.Title,
		Body:    notification.Message,
	})
	if err != nil {
		c.logg.Warn(ctx, "email delivery failed")
	}
}

func orderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/orders/%s", orderID)
}

func deliveryMessage(status enums.DeliveryStatus) string {
	switch status {
	case enums.DeliveryStatusDispatched:
		return "Your order has been dispatched."
	case enums.DeliveryStatusInTransit:
		return "Your order is on the way."
	case enums.DeliveryStatusDelivered:
		return "Your order has been delivered. Enjoy!"
	case enums.DeliveryStatusCancelled:
		return "Your delivery has been cancelled."
	default:
		return fmt.Sprintf("Your delivery status changed to %s.", status)
	}
}

func paymentMessage(payload payloads.PaymentStatusEvent) (string, string) {
	amount := payload.Amount.StringFixed(2)
	switch payload.Status {
	case enums.PaymentStatusCompleted:
		message := fmt.Sprintf("Your payment of KES %s was received.", amount)
		if payload.MpesaReceipt != "" {
			message = fmt.Sprintf("Your payment of KES %s was received. M-PESA receipt: %s.", amount, payload.MpesaReceipt)
		}
		return "Payment received", message
	case enums.PaymentStatusFailed:
		message := fmt.Sprintf("Your payment of KES %s did not go through. Please try again.", amount)
		if payload.ResultDesc != "" {
			message = fmt.Sprintf("Your payment of KES %s did not go through: %s", amount, payload.ResultDesc)
		}
		return "Payment failed", message
	case enums.PaymentStatusRefunded:
		return "Payment refunded", fmt.Sprintf("Your payment of KES %s has been refunded.", amount)
	default:
		return "Payment update", fmt.Sprintf("Your payment status changed to %s.", payload.Status)
	}
}
