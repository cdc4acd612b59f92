package delivery

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// PaymentMethod of the originating order. Only Cash feeds cash reconciliation.
type PaymentMethod int

const (
	UnknownPayment PaymentMethod = iota
	Cash
	Card
	Transfer
	Credit
)

var paymentStrings = map[PaymentMethod]string{
	Cash:     "cash",
	Card:     "card",
	Transfer: "transfer",
	Credit:   "credit",
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for m, str := range paymentStrings {
		if str == s {
			return m, nil
		}
	}
	return UnknownPayment, errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%q is not supported", s))
}

func (m PaymentMethod) String() string {
	if s, ok := paymentStrings[m]; ok {
		return s
	}
	return "unknown"
}

var ErrOrderRefIsNotConstructed = errs.NewValueIsRequiredError("order reference must be created via NewOrderRef")

// OrderRef is the slice of the originating order the dispatch core needs.
// Total is in minor currency units.
type OrderRef struct {
	orderID  kernel.UUID
	date     time.Time
	total    int64
	payment  PaymentMethod
	weightKg float64
	guard    guard.ConstructorGuard
}

func NewOrderRef(orderID kernel.UUID, date time.Time, total int64, payment PaymentMethod, weightKg float64) (OrderRef, error) {
	ref := OrderRef{
		orderID:  orderID,
		date:     kernel.DateOf(date),
		total:    total,
		payment:  payment,
		weightKg: weightKg,
		guard:    guard.NewConstructorGuard(),
	}

	var totalErr, paymentErr, weightErr, dateErr error
	if total < 0 {
		totalErr = errs.NewValueIsInvalidErrorWithCause("order total", fmt.Errorf("%d is negative", total))
	}
	if _, ok := paymentStrings[payment]; !ok {
		paymentErr = errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%d is not supported", payment))
	}
	if weightKg <= 0 {
		weightErr = errs.NewValueIsInvalidErrorWithCause("weight", fmt.Errorf("%g kg is not greater than 0", weightKg))
	}
	if date.IsZero() {
		dateErr = errs.NewValueIsRequiredError("order date")
	}

	if err := errors.Join(orderID.Validate(), dateErr, totalErr, paymentErr, weightErr); err != nil {
		return OrderRef{}, err
	}
	return ref, nil
}

func (r OrderRef) Validate() error {
	return r.guard.Validate(ErrOrderRefIsNotConstructed)
}

func (r OrderRef) OrderID() kernel.UUID {
	return r.orderID
}

// Date is the order date (midnight UTC); deliveries are optimized per order date.
func (r OrderRef) Date() time.Time {
	return r.date
}

func (r OrderRef) Total() int64 {
	return r.total
}

func (r OrderRef) Payment() PaymentMethod {
	return r.payment
}

func (r OrderRef) WeightKg() float64 {
	return r.weightKg
}

func (r OrderRef) IsCash() bool {
	return r.payment == Cash
}
