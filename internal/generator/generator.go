package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/dataset"
)

const (
	minPrice            = 10
	maxPrice            = 800
	minStock            = 10
	maxStock            = 500
	minPaymentDelayMins = 10
	maxPaymentDelayMins = 240
	maxUniqueAttempts   = 25
)

// Generator produces the linked entity sets for one run. It is not safe for
// concurrent use: every draw advances the single seeded source so that a seed
// maps to exactly one dataset.
type Generator struct {
	cfg config.Config
	rnd *rand.Rand
	ref time.Time

	loyalty       *Weighted
	orderStatus   *Weighted
	paymentStatus *Weighted
	methods       *Weighted
	categories    *Weighted

	emails *uniqueSet
	phones *uniqueSet
	txns   *uniqueSet
}

// New wires a generator seeded from cfg.Seed and anchored at cfg.ReferenceTime.
func New(cfg config.Config) (*Generator, error) {
	loyalty, err := NewWeighted(cfg.LoyaltyTiers)
	if err != nil {
		return nil, fmt.Errorf("loyalty tiers: %w", err)
	}
	orderStatus, err := NewWeighted(cfg.OrderStatuses)
	if err != nil {
		return nil, fmt.Errorf("order statuses: %w", err)
	}
	paymentStatus, err := NewWeighted(cfg.PaymentStatuses)
	if err != nil {
		return nil, fmt.Errorf("payment statuses: %w", err)
	}
	methods, err := Uniform(cfg.PaymentMethods)
	if err != nil {
		return nil, fmt.Errorf("payment methods: %w", err)
	}
	categories, err := Uniform(cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if cfg.MaxItemsPerOrder < 1 {
		return nil, errors.New("max items per order must be at least 1")
	}

	return &Generator{
		cfg:           cfg,
		rnd:           rand.New(rand.NewSource(cfg.Seed)),
		ref:           cfg.ReferenceTime.UTC(),
		loyalty:       loyalty,
		orderStatus:   orderStatus,
		paymentStatus: paymentStatus,
		methods:       methods,
		categories:    categories,
		emails:        newUniqueSet(),
		phones:        newUniqueSet(),
		txns:          newUniqueSet(),
	}, nil
}

// Generate runs the whole chain in dependency order and validates the result:
// users, products, orders, order items, totals, payments.
func (g *Generator) Generate() (dataset.Dataset, error) {
	users := g.GenerateUsers(g.cfg.NumUsers)
	products := g.GenerateProducts(g.cfg.NumProducts)
	orders, err := g.GenerateOrders(g.cfg.NumOrders, users)
	if err != nil {
		return dataset.Dataset{}, err
	}
	items, err := g.GenerateOrderItems(orders, products)
	if err != nil {
		return dataset.Dataset{}, err
	}
	totalled := ComputeTotals(orders, items)
	payments, err := g.GeneratePayments(totalled)
	if err != nil {
		return dataset.Dataset{}, err
	}

	ds := dataset.Dataset{
		Users:      users,
		Products:   products,
		Orders:     totalled,
		OrderItems: items,
		Payments:   payments,
	}
	if err := dataset.Validate(ds); err != nil {
		return dataset.Dataset{}, err
	}
	return ds, nil
}

// GenerateUsers creates n users with run-wide unique emails and phones.
func (g *Generator) GenerateUsers(n int) []dataset.User {
	users := make([]dataset.User, 0, n)
	for id := 1; id <= n; id++ {
		first := g.pick(firstNames)
		last := g.pick(lastNames)
		local := strings.ToLower(first) + "." + strings.ToLower(last)

		email := g.emails.claim(
			func() string {
				return fmt.Sprintf("%s%d@%s", local, g.rnd.Intn(1000), g.pick(emailDomains))
			},
			func() string {
				return fmt.Sprintf("%s+%d@%s", local, id, emailDomains[0])
			},
		)
		phone := g.phones.claim(
			func() string {
				return fmt.Sprintf("+1-%03d-%03d-%04d", 200+g.rnd.Intn(800), g.rnd.Intn(1000), g.rnd.Intn(10000))
			},
			func() string {
				return fmt.Sprintf("+1-000-%07d", id)
			},
		)

		users = append(users, dataset.User{
			ID:            id,
			FirstName:     first,
			LastName:      last,
			Email:         email,
			Phone:         phone,
			SignupDate:    g.randomDate(2),
			LoyaltyStatus: g.loyalty.Sample(g.rnd),
			Country:       g.pick(countries),
		})
	}
	return users
}

// GenerateProducts creates n catalog entries.
func (g *Generator) GenerateProducts(n int) []dataset.Product {
	products := make([]dataset.Product, 0, n)
	for id := 1; id <= n; id++ {
		name := titleWord(g.pick(productWords)) + " " + titleWord(g.pick(productWords))
		price := decimal.NewFromFloat(minPrice + g.rnd.Float64()*(maxPrice-minPrice))
		products = append(products, dataset.Product{
			ID:        id,
			Name:      name,
			Category:  g.categories.Sample(g.rnd),
			Price:     dataset.RoundMoney(price),
			StockQty:  minStock + g.rnd.Intn(maxStock-minStock+1),
			CreatedAt: g.randomDate(3),
		})
	}
	return products
}

// GenerateOrders creates n orders, each referencing a user drawn uniformly with
// replacement. TotalAmount is left at zero; see ComputeTotals.
func (g *Generator) GenerateOrders(n int, users []dataset.User) ([]dataset.Order, error) {
	if n > 0 && len(users) == 0 {
		return nil, errors.New("generate orders: no users to reference")
	}
	orders := make([]dataset.Order, 0, n)
	for id := 1; id <= n; id++ {
		user := users[g.rnd.Intn(len(users))]
		orders = append(orders, dataset.Order{
			ID:              id,
			UserID:          user.ID,
			OrderDate:       g.randomTimestamp(1),
			Status:          g.orderStatus.Sample(g.rnd),
			PaymentMethod:   g.methods.Sample(g.rnd),
			ShippingAddress: g.address(),
			TotalAmount:     decimal.Zero,
		})
	}
	return orders, nil
}

// GenerateOrderItems links every order to between 1 and MaxItemsPerOrder
// distinct products. Item ids are global and follow generation order. When
// the catalog is smaller than the drawn item count, every product is used once.
func (g *Generator) GenerateOrderItems(orders []dataset.Order, products []dataset.Product) ([]dataset.OrderItem, error) {
	if len(orders) > 0 && len(products) == 0 {
		return nil, errors.New("generate order items: no products to reference")
	}
	items := make([]dataset.OrderItem, 0, len(orders)*(g.cfg.MaxItemsPerOrder+1)/2)
	nextID := 1
	for _, order := range orders {
		k := 1 + g.rnd.Intn(g.cfg.MaxItemsPerOrder)
		if k > len(products) {
			k = len(products)
		}
		for _, idx := range g.rnd.Perm(len(products))[:k] {
			product := products[idx]
			qty := 1 + g.rnd.Intn(dataset.MaxQuantity)
			items = append(items, dataset.OrderItem{
				ID:        nextID,
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  qty,
				UnitPrice: product.Price,
				LineTotal: dataset.RoundMoney(product.Price.Mul(decimal.NewFromInt(int64(qty)))),
			})
			nextID++
		}
	}
	return items, nil
}

// ComputeTotals returns a copy of orders whose TotalAmount is the rounded sum
// of their item line totals. Orders without items total zero. The input slices
// are not modified.
func ComputeTotals(orders []dataset.Order, items []dataset.OrderItem) []dataset.Order {
	sums := make(map[int]decimal.Decimal, len(orders))
	for _, it := range items {
		sums[it.OrderID] = sums[it.OrderID].Add(it.LineTotal)
	}
	out := make([]dataset.Order, len(orders))
	for i, o := range orders {
		o.TotalAmount = dataset.RoundMoney(sums[o.ID])
		out[i] = o
	}
	return out
}

// GeneratePayments creates exactly one payment per order. Orders must already
// carry their computed totals.
func (g *Generator) GeneratePayments(orders []dataset.Order) ([]dataset.Payment, error) {
	payments := make([]dataset.Payment, 0, len(orders))
	for _, order := range orders {
		status := dataset.PaymentRefunded
		if order.Status != dataset.StatusCancelled {
			status = g.paymentStatus.Sample(g.rnd)
		}

		var paidAt time.Time
		if order.OrderDate.IsZero() {
			paidAt = g.randomTimestamp(1)
		} else {
			delay := minPaymentDelayMins + g.rnd.Intn(maxPaymentDelayMins-minPaymentDelayMins+1)
			paidAt = order.OrderDate.Add(time.Duration(delay) * time.Minute)
		}

		txn, err := g.transactionID()
		if err != nil {
			return nil, fmt.Errorf("payment for order %d: %w", order.ID, err)
		}

		payments = append(payments, dataset.Payment{
			ID:            order.ID,
			OrderID:       order.ID,
			PaymentMethod: order.PaymentMethod,
			Amount:        order.TotalAmount,
			Status:        status,
			PaymentDate:   paidAt,
			TransactionID: txn,
		})
	}
	return payments, nil
}

func (g *Generator) transactionID() (string, error) {
	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		id, err := uuid.NewRandomFromReader(g.rnd)
		if err != nil {
			return "", fmt.Errorf("transaction id: %w", err)
		}
		candidate := "PAY-" + strings.ToUpper(id.String())
		if g.txns.add(candidate) {
			return candidate, nil
		}
	}
	return "", errors.New("transaction id: no unique value after retries")
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rnd.Intn(len(pool))]
}

func (g *Generator) address() string {
	return fmt.Sprintf("%d %s %s, %s, %s %05d",
		1+g.rnd.Intn(9999),
		g.pick(streetNames),
		g.pick(streetSuffixes),
		g.pick(cities),
		g.pick(states),
		g.rnd.Intn(100000),
	)
}

// randomTimestamp is uniform over the given number of years before the
// reference time, truncated to whole seconds.
func (g *Generator) randomTimestamp(years int) time.Time {
	start := g.ref.AddDate(-years, 0, 0)
	span := g.ref.Sub(start)
	return start.Add(time.Duration(g.rnd.Int63n(int64(span)))).Truncate(time.Second)
}

func (g *Generator) randomDate(years int) time.Time {
	t := g.randomTimestamp(years)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

type uniqueSet struct {
	seen map[string]struct{}
}

func newUniqueSet() *uniqueSet {
	return &uniqueSet{seen: make(map[string]struct{})}
}

func (s *uniqueSet) add(v string) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	return true
}

// claim retries candidate until an unused value comes up and otherwise takes
// fallback, which callers build to be unique on its own.
func (s *uniqueSet) claim(candidate, fallback func() string) string {
	for attempt := 0; attempt < maxUniqueAttempts; attempt++ {
		if v := candidate(); s.add(v) {
			return v
		}
	}
	v := fallback()
	s.add(v)
	return v
}
