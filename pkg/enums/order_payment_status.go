package enums

// OrderPaymentStatus tracks whether an order has been settled. It is
// independent of the order lifecycle status and the delivery status.
type OrderPaymentStatus string

const (
	OrderPaymentStatusUnpaid OrderPaymentStatus = "UNPAID"
	OrderPaymentStatusPaid   OrderPaymentStatus = "PAID"
)

// String implements fmt.Stringer.
func (o OrderPaymentStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (o OrderPaymentStatus) IsValid() bool {
	return o == OrderPaymentStatusUnpaid || o == OrderPaymentStatusPaid
}
