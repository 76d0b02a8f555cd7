package dataset

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvariant marks a dataset that breaks a referential or aggregate rule.
var ErrInvariant = errors.New("dataset invariant violated")

const maxReportedViolations = 20

// Validate checks every cross-entity rule on a fully linked dataset.
func Validate(d Dataset) error {
	var v violations

	emails := make(map[string]int, len(d.Users))
	phones := make(map[string]int, len(d.Users))
	users := make(map[int]struct{}, len(d.Users))
	for i, u := range d.Users {
		if u.ID != i+1 {
			v.addf("user %d: id is not dense (position %d)", u.ID, i+1)
		}
		users[u.ID] = struct{}{}
		if prev, ok := emails[u.Email]; ok {
			v.addf("user %d: email %q already used by user %d", u.ID, u.Email, prev)
		}
		emails[u.Email] = u.ID
		if prev, ok := phones[u.Phone]; ok {
			v.addf("user %d: phone %q already used by user %d", u.ID, u.Phone, prev)
		}
		phones[u.Phone] = u.ID
	}

	products := make(map[int]Product, len(d.Products))
	for i, p := range d.Products {
		if p.ID != i+1 {
			v.addf("product %d: id is not dense (position %d)", p.ID, i+1)
		}
		if !p.Price.IsPositive() {
			v.addf("product %d: price %s must be positive", p.ID, p.Price)
		}
		if p.StockQty < 0 {
			v.addf("product %d: negative stock %d", p.ID, p.StockQty)
		}
		products[p.ID] = p
	}

	orders := make(map[int]Order, len(d.Orders))
	for i, o := range d.Orders {
		if o.ID != i+1 {
			v.addf("order %d: id is not dense (position %d)", o.ID, i+1)
		}
		if _, ok := users[o.UserID]; !ok {
			v.addf("order %d: unknown user %d", o.ID, o.UserID)
		}
		orders[o.ID] = o
	}

	sums := make(map[int]decimal.Decimal, len(d.Orders))
	for i, it := range d.OrderItems {
		if it.ID != i+1 {
			v.addf("order item %d: id is not dense (position %d)", it.ID, i+1)
		}
		if _, ok := orders[it.OrderID]; !ok {
			v.addf("order item %d: unknown order %d", it.ID, it.OrderID)
		}
		p, ok := products[it.ProductID]
		if !ok {
			v.addf("order item %d: unknown product %d", it.ID, it.ProductID)
		} else if !it.UnitPrice.Equal(p.Price) {
			v.addf("order item %d: unit price %s differs from product price %s", it.ID, it.UnitPrice, p.Price)
		}
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			v.addf("order item %d: quantity %d outside [1,%d]", it.ID, it.Quantity, MaxQuantity)
		}
		want := RoundMoney(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		if !it.LineTotal.Equal(want) {
			v.addf("order item %d: line total %s, want %s", it.ID, it.LineTotal, want)
		}
		sums[it.OrderID] = sums[it.OrderID].Add(it.LineTotal)
	}

	for _, o := range d.Orders {
		want := RoundMoney(sums[o.ID])
		if !o.TotalAmount.Equal(want) {
			v.addf("order %d: total %s, want %s", o.ID, o.TotalAmount, want)
		}
	}

	if len(d.Payments) != len(d.Orders) {
		v.addf("payments: %d payments for %d orders", len(d.Payments), len(d.Orders))
	}
	txns := make(map[string]int, len(d.Payments))
	paid := make(map[int]struct{}, len(d.Payments))
	for _, p := range d.Payments {
		o, ok := orders[p.OrderID]
		if !ok {
			v.addf("payment %d: unknown order %d", p.ID, p.OrderID)
			continue
		}
		if _, dup := paid[p.OrderID]; dup {
			v.addf("payment %d: order %d already has a payment", p.ID, p.OrderID)
		}
		paid[p.OrderID] = struct{}{}
		if p.ID != p.OrderID {
			v.addf("payment %d: id differs from order id %d", p.ID, p.OrderID)
		}
		if !p.Amount.Equal(o.TotalAmount) {
			v.addf("payment %d: amount %s differs from order total %s", p.ID, p.Amount, o.TotalAmount)
		}
		if p.PaymentMethod != o.PaymentMethod {
			v.addf("payment %d: method %q differs from order method %q", p.ID, p.PaymentMethod, o.PaymentMethod)
		}
		if o.Status == StatusCancelled && p.Status != PaymentRefunded {
			v.addf("payment %d: cancelled order paid with status %q", p.ID, p.Status)
		}
		if p.PaymentDate.Before(o.OrderDate) {
			v.addf("payment %d: dated before its order", p.ID)
		}
		if prev, ok := txns[p.TransactionID]; ok {
			v.addf("payment %d: transaction id %q already used by payment %d", p.ID, p.TransactionID, prev)
		}
		txns[p.TransactionID] = p.ID
	}

	return v.err()
}

type violations struct {
	msgs  []string
	total int
}

func (v *violations) addf(format string, args ...any) {
	v.total++
	if len(v.msgs) < maxReportedViolations {
		v.msgs = append(v.msgs, fmt.Sprintf(format, args...))
	}
}

func (v *violations) err() error {
	if v.total == 0 {
		return nil
	}
	errs := make([]error, 0, len(v.msgs)+1)
	errs = append(errs, fmt.Errorf("%w: %d violation(s)", ErrInvariant, v.total))
	for _, m := range v.msgs {
		errs = append(errs, errors.New(m))
	}
	return errors.Join(errs...)
}
