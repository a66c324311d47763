package payments

import (
	"context"
	"testing"
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
	"github.com/jkimani/campus-delivery-backend/pkg/pagination"
)

func TestInitiateCreatesPendingPayment(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPending, decimal.NewFromInt(350))
	fx.stk.response = &mpesa.STKPushResponse{
		CheckoutRequestID: "ws_CO_123",
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}

	resp, err := fx.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "+254700000001",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if resp.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", resp.Payment.Status)
	}
	if resp.Payment.TransactionID != "ws_CO_123" {
		t.Fatalf("expected checkout id as transaction id, got %s", resp.Payment.TransactionID)
	}
	if !resp.Payment.Amount.Equal(order.Total) {
		t.Fatalf("expected amount %s, got %s", order.Total, resp.Payment.Amount)
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventPaymentInitiated {
		t.Fatalf("expected payment_initiated event, got %+v", fx.outbox.events)
	}
}

func TestInitiateRejectsForeignOrder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	order := fx.orders.seed(uuid.New(), enums.OrderStatusPending, decimal.NewFromInt(100))

	_, err := fx.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "+254700000001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitiateRejectsNonPendingOrder(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPaid, decimal.NewFromInt(100))

	_, err := fx.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "+254700000001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCallbackSuccessCompletesPaymentAndMarksOrderPaid(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPending, decimal.NewFromInt(350))
	payment := fx.payments.seed(order.ID, userID, "ws_CO_123", enums.PaymentStatusPending)

	if err := fx.svc.HandleCallback(context.Background(), successCallback("ws_CO_123", "QK12XYZ")); err != nil {
		t.Fatalf("callback: %v", err)
	}

	stored := fx.payments.records[payment.ID]
	if stored.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", stored.Status)
	}
	if stored.MpesaReceipt == nil || *stored.MpesaReceipt != "QK12XYZ" {
		t.Fatalf("expected receipt QK12XYZ, got %v", stored.MpesaReceipt)
	}
	// The receipt number takes over from the checkout id.
	if stored.TransactionID != "QK12XYZ" {
		t.Fatalf("expected transaction id QK12XYZ, got %s", stored.TransactionID)
	}
	if stored.PaidAt == nil {
		t.Fatalf("expected paid_at to be stamped")
	}
	if !stored.Amount.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected settled amount 350, got %s", stored.Amount)
	}
	settled := fx.orders.records[order.ID]
	if settled.Status != enums.OrderStatusPaid {
		t.Fatalf("expected order marked paid, got %s", settled.Status)
	}
	if settled.PaymentStatus != enums.OrderPaymentStatusPaid {
		t.Fatalf("expected order payment status PAID, got %s", settled.PaymentStatus)
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventPaymentCompleted {
		t.Fatalf("expected payment_completed event, got %+v", fx.outbox.events)
	}
}

func TestCallbackSuccessKeepsCancelledOrderCancelled(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusCancelled, decimal.NewFromInt(350))
	payment := fx.payments.seed(order.ID, userID, "ws_CO_123", enums.PaymentStatusPending)

	if err := fx.svc.HandleCallback(context.Background(), successCallback("ws_CO_123", "QK12XYZ")); err != nil {
		t.Fatalf("callback: %v", err)
	}

	// The settlement is recorded, but a cancelled order never becomes paid.
	if fx.payments.records[payment.ID].Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", fx.payments.records[payment.ID].Status)
	}
	settled := fx.orders.records[order.ID]
	if settled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected order to stay cancelled, got %s", settled.Status)
	}
	if settled.PaymentStatus != enums.OrderPaymentStatusPaid {
		t.Fatalf("expected order payment status PAID, got %s", settled.PaymentStatus)
	}
}

func TestCallbackFailureMarksPaymentFailed(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPending, decimal.NewFromInt(350))
	payment := fx.payments.seed(order.ID, userID, "ws_CO_123", enums.PaymentStatusPending)

	cb := mpesa.CallbackEnvelope{}
	cb.Body.StkCallback = mpesa.StkCallback{
		CheckoutRequestID: "ws_CO_123",
		ResultCode:        1032,
		ResultDesc:        "Request cancelled by user",
	}
	if err := fx.svc.HandleCallback(context.Background(), cb); err != nil {
		t.Fatalf("callback: %v", err)
	}

	stored := fx.payments.records[payment.ID]
	if stored.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", stored.Status)
	}
	if stored.PaidAt != nil {
		t.Fatalf("failed payment must not carry paid_at")
	}
	if fx.orders.records[order.ID].Status != enums.OrderStatusPending {
		t.Fatalf("order must stay pending on failure, got %s", fx.orders.records[order.ID].Status)
	}
	if len(fx.outbox.events) != 1 || fx.outbox.events[0].EventType != enums.EventPaymentFailed {
		t.Fatalf("expected payment_failed event, got %+v", fx.outbox.events)
	}
}

func TestCallbackUnknownTransactionLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	err := fx.svc.HandleCallback(context.Background(), successCallback("ws_CO_unknown", "QK12XYZ"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(fx.outbox.events) != 0 {
		t.Fatalf("no events expected for unknown transaction")
	}
	// The guard must be released so a later retry for a known id works.
	if len(fx.guard.keys) != 0 {
		t.Fatalf("expected guard key to be released, got %v", fx.guard.keys)
	}
}

func TestCallbackIsIdempotent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPending, decimal.NewFromInt(350))
	fx.payments.seed(order.ID, userID, "ws_CO_123", enums.PaymentStatusPending)

	cb := successCallback("ws_CO_123", "QK12XYZ")
	if err := fx.svc.HandleCallback(context.Background(), cb); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if err := fx.svc.HandleCallback(context.Background(), cb); err != nil {
		t.Fatalf("second callback: %v", err)
	}

	if len(fx.outbox.events) != 1 {
		t.Fatalf("expected a single settlement event, got %d", len(fx.outbox.events))
	}
}

func TestRefundOnlyCompletedPayments(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPaid, decimal.NewFromInt(350))

	pending := fx.payments.seed(order.ID, userID, "ws_CO_1", enums.PaymentStatusPending)
	_, err := fx.svc.Refund(context.Background(), pending.ID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending refund, got %v", err)
	}

	completed := fx.payments.seed(order.ID, userID, "ws_CO_2", enums.PaymentStatusCompleted)
	refunded, err := fx.svc.Refund(context.Background(), completed.ID, uuid.New())
	if err != nil {
		t.Fatalf("refund completed: %v", err)
	}
	if refunded.Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded status, got %s", refunded.Status)
	}
	if refunded.RefundedAt == nil {
		t.Fatalf("expected refunded_at to be stamped")
	}

	_, err = fx.svc.Refund(context.Background(), completed.ID, uuid.New())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected refund to be unrepeatable, got %v", err)
	}
}

func TestStatusByIDHidesForeignPayments(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	fx := newFixture(t)
	order := fx.orders.seed(userID, enums.OrderStatusPending, decimal.NewFromInt(350))
	payment := fx.payments.seed(order.ID, userID, "ws_CO_123", enums.PaymentStatusPending)

	got, err := fx.svc.StatusByID(context.Background(), payment.ID, userID, enums.UserRoleCustomer)
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if got.ID != payment.ID || got.Status != enums.PaymentStatusPending {
		t.Fatalf("unexpected payment: %+v", got)
	}

	_, err = fx.svc.StatusByID(context.Background(), payment.ID, uuid.New(), enums.UserRoleCustomer)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign customer, got %v", err)
	}

	if _, err := fx.svc.StatusByID(context.Background(), payment.ID, uuid.New(), enums.UserRoleAdmin); err != nil {
		t.Fatalf("admin should see any payment: %v", err)
	}

	_, err = fx.svc.StatusByID(context.Background(), uuid.New(), userID, enums.UserRoleCustomer)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing payment, got %v", err)
	}
}

func successCallback(checkoutID, receipt string) mpesa.CallbackEnvelope {
	cb := mpesa.CallbackEnvelope{}
	cb.Body.StkCallback = mpesa.StkCallback{
		CheckoutRequestID: checkoutID,
		ResultCode:        0,
		ResultDesc:        "The service request is processed successfully.",
		CallbackMetadata: &mpesa.CallbackMetadata{
			Item: []mpesa.MetadataItem{
				{Name: "Amount", Value: []byte(`350`)},
				{Name: "MpesaReceiptNumber", Value: []byte(`"` + receipt + `"`)},
				{Name: "PhoneNumber", Value: []byte(`254700000001`)},
			},
		},
	}
	return cb
}

type fixture struct {
	svc      Service
	payments *stubPaymentRepo
	orders   *stubOrderRepo
	stk      *stubSTK
	guard    *stubGuard
	outbox   *stubOutbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		payments: newStubPaymentRepo(),
		orders:   newStubOrderRepo(),
		stk:      &stubSTK{},
		guard:    newStubGuard(),
		outbox:   &stubOutbox{},
	}
	svc, err := NewService(ServiceParams{
		Repo:       fx.payments,
		OrdersRepo: fx.orders,
		STK:        fx.stk,
		Guard:      fx.guard,
		Tx:         stubTxRunner{},
		Outbox:     fx.outbox,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	fx.svc = svc
	return fx
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

type stubSTK struct {
	response *mpesa.STKPushResponse
	err      error
}

func (s *stubSTK) STKPush(ctx context.Context, phone string, amount decimal.Decimal, accountRef, description string) (*mpesa.STKPushResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.response != nil {
		return s.response, nil
	}
	return &mpesa.STKPushResponse{CheckoutRequestID: "ws_CO_" + uuid.NewString()}, nil
}

type stubGuard struct {
	keys map[string]bool
}

func newStubGuard() *stubGuard {
	return &stubGuard{keys: map[string]bool{}}
}

func (s *stubGuard) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubGuard) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func (s *stubGuard) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

type stubPaymentRepo struct {
	records map[uuid.UUID]*models.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{records: map[uuid.UUID]*models.Payment{}}
}

func (s *stubPaymentRepo) seed(orderID, userID uuid.UUID, transactionID string, status enums.PaymentStatus) *models.Payment {
	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		UserID:        userID,
		Amount:        decimal.NewFromInt(350),
		PhoneNumber:   "+254700000001",
		Method:        enums.PaymentMethodMpesa,
		Status:        status,
		TransactionID: transactionID,
		CreatedAt:     time.Now().UTC(),
	}
	s.records[payment.ID] = payment
	return payment
}

func (s *stubPaymentRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now().UTC()
	s.records[payment.ID] = payment
	return payment, nil
}

func (s *stubPaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := s.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *stubPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	for _, payment := range s.records {
		if payment.TransactionID == transactionID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var latest *models.Payment
	for _, payment := range s.records {
		if payment.OrderID != orderID {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *stubPaymentRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	payment, ok := s.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.PaymentStatus); ok {
		payment.Status = status
	}
	if transactionID, ok := updates["transaction_id"].(string); ok {
		payment.TransactionID = transactionID
	}
	if receipt, ok := updates["mpesa_receipt"].(string); ok {
		payment.MpesaReceipt = &receipt
	}
	if amount, ok := updates["amount"].(decimal.Decimal); ok {
		payment.Amount = amount
	}
	if at, ok := updates["paid_at"].(time.Time); ok {
		payment.PaidAt = &at
	}
	if desc, ok := updates["result_desc"].(string); ok {
		payment.ResultDesc = &desc
	}
	if at, ok := updates["refunded_at"].(time.Time); ok {
		payment.RefundedAt = &at
	}
	return nil
}

type stubOrderRepo struct {
	records map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{records: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) seed(userID uuid.UUID, status enums.OrderStatus, total decimal.Decimal) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		AgentID:       uuid.New(),
		Total:         total,
		Status:        status,
		PaymentStatus: enums.OrderPaymentStatusUnpaid,
	}
	s.records[order.ID] = order
	return order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.records[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, filters orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrderRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, filters orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrderRepo) ListAll(ctx context.Context, filters orders.ListFilters) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrderRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	order, ok := s.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		order.Status = status
	}
	if paymentStatus, ok := updates["payment_status"].(enums.OrderPaymentStatus); ok {
		order.PaymentStatus = paymentStatus
	}
	return nil
}

func (s *stubOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}
