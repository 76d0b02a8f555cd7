package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"

	// MaxQuantity is the largest quantity a single order item may carry.
	MaxQuantity = 4

	StatusCancelled = "cancelled"
	PaymentRefunded = "refunded"
)

// User models a single customer account.
type User struct {
	ID            int
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	SignupDate    time.Time
	LoyaltyStatus string
	Country       string
}

// Product is a catalog entry referenced by order items.
type Product struct {
	ID        int
	Name      string
	Category  string
	Price     decimal.Decimal
	StockQty  int
	CreatedAt time.Time
}

// Order is a single checkout by a user. TotalAmount stays zero until the
// order items for the order exist.
type Order struct {
	ID              int
	UserID          int
	OrderDate       time.Time
	Status          string
	PaymentMethod   string
	ShippingAddress string
	TotalAmount     decimal.Decimal
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID        int
	OrderID   int
	ProductID int
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Payment settles exactly one order.
type Payment struct {
	ID            int
	OrderID       int
	PaymentMethod string
	Amount        decimal.Decimal
	Status        string
	PaymentDate   time.Time
	TransactionID string
}

// Dataset is the full output of one generation run.
type Dataset struct {
	Users      []User
	Products   []Product
	Orders     []Order
	OrderItems []OrderItem
	Payments   []Payment
}

// Counts returns the number of records per entity keyed by entity name.
func (d Dataset) Counts() map[string]int {
	return map[string]int{
		Users:      len(d.Users),
		Products:   len(d.Products),
		Orders:     len(d.Orders),
		OrderItems: len(d.OrderItems),
		Payments:   len(d.Payments),
	}
}

// RoundMoney rounds to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
