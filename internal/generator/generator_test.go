package generator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ecomdata/internal/config"
	"example.com/ecomdata/internal/dataset"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.NumUsers = 40
	cfg.NumProducts = 15
	cfg.NumOrders = 120
	return cfg
}

func newGenerator(t *testing.T, cfg config.Config) *Generator {
	t.Helper()
	g, err := New(cfg)
	require.NoError(t, err)
	return g
}

func TestGenerateUsersAreUniqueAndDense(t *testing.T) {
	g := newGenerator(t, testConfig())
	users := g.GenerateUsers(500)
	require.Len(t, users, 500)

	emails := map[string]bool{}
	phones := map[string]bool{}
	tiers := map[string]bool{"bronze": true, "silver": true, "gold": true, "platinum": true}
	for i, u := range users {
		assert.Equal(t, i+1, u.ID)
		assert.False(t, emails[u.Email], "duplicate email %s", u.Email)
		assert.False(t, phones[u.Phone], "duplicate phone %s", u.Phone)
		emails[u.Email] = true
		phones[u.Phone] = true
		assert.True(t, tiers[u.LoyaltyStatus], u.LoyaltyStatus)
		assert.False(t, u.SignupDate.After(g.ref))
		assert.False(t, u.SignupDate.Before(g.ref.AddDate(-2, 0, -1)))
	}
}

func TestUniqueSetFallsBackWhenCandidatesCollide(t *testing.T) {
	s := newUniqueSet()
	first := s.claim(func() string { return "same" }, func() string { return "fallback-1" })
	second := s.claim(func() string { return "same" }, func() string { return "fallback-2" })

	assert.Equal(t, "same", first)
	assert.Equal(t, "fallback-2", second)
}

func TestGenerateProductsRespectRanges(t *testing.T) {
	cfg := testConfig()
	g := newGenerator(t, cfg)
	products := g.GenerateProducts(300)

	categories := map[string]bool{}
	for _, c := range cfg.Categories {
		categories[c] = true
	}
	low, high := decimal.NewFromInt(minPrice), decimal.NewFromInt(maxPrice)
	for i, p := range products {
		assert.Equal(t, i+1, p.ID)
		assert.True(t, p.Price.IsPositive())
		assert.True(t, p.Price.GreaterThanOrEqual(low), p.Price.String())
		assert.True(t, p.Price.LessThanOrEqual(high), p.Price.String())
		assert.True(t, p.Price.Equal(p.Price.Round(2)))
		assert.GreaterOrEqual(t, p.StockQty, minStock)
		assert.LessOrEqual(t, p.StockQty, maxStock)
		assert.True(t, categories[p.Category], p.Category)
		assert.NotEmpty(t, p.Name)
	}
}

func TestGenerateOrdersReferenceUsers(t *testing.T) {
	cfg := testConfig()
	g := newGenerator(t, cfg)
	users := g.GenerateUsers(5)
	orders, err := g.GenerateOrders(200, users)
	require.NoError(t, err)

	for i, o := range orders {
		assert.Equal(t, i+1, o.ID)
		assert.GreaterOrEqual(t, o.UserID, 1)
		assert.LessOrEqual(t, o.UserID, 5)
		assert.True(t, o.TotalAmount.IsZero())
		assert.Contains(t, cfg.PaymentMethods, o.PaymentMethod)
		assert.False(t, o.OrderDate.After(g.ref))
		assert.False(t, o.OrderDate.Before(g.ref.AddDate(-1, 0, 0)))
		assert.Equal(t, o.OrderDate, o.OrderDate.Truncate(time.Second))
	}

	_, err = g.GenerateOrders(1, nil)
	require.Error(t, err)
}

func TestGenerateOrderItemsLinksDistinctProducts(t *testing.T) {
	cfg := testConfig()
	g := newGenerator(t, cfg)
	users := g.GenerateUsers(10)
	products := g.GenerateProducts(cfg.NumProducts)
	orders, err := g.GenerateOrders(100, users)
	require.NoError(t, err)

	items, err := g.GenerateOrderItems(orders, products)
	require.NoError(t, err)

	prices := map[int]decimal.Decimal{}
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	perOrder := map[int]map[int]bool{}
	for i, it := range items {
		assert.Equal(t, i+1, it.ID, "item ids are global and sequential")
		assert.GreaterOrEqual(t, it.Quantity, 1)
		assert.LessOrEqual(t, it.Quantity, dataset.MaxQuantity)
		assert.True(t, it.UnitPrice.Equal(prices[it.ProductID]))
		want := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		assert.True(t, it.LineTotal.Equal(want))

		if perOrder[it.OrderID] == nil {
			perOrder[it.OrderID] = map[int]bool{}
		}
		assert.False(t, perOrder[it.OrderID][it.ProductID], "product repeated within order %d", it.OrderID)
		perOrder[it.OrderID][it.ProductID] = true
	}
	require.Len(t, perOrder, len(orders), "every order has at least one item")
	for _, seen := range perOrder {
		assert.LessOrEqual(t, len(seen), cfg.MaxItemsPerOrder)
	}
	for _, o := range orders {
		assert.True(t, o.TotalAmount.IsZero(), "linking does not touch order totals")
	}
}

func TestComputeTotalsReturnsNewOrders(t *testing.T) {
	orders := []dataset.Order{
		{ID: 1, TotalAmount: decimal.Zero},
		{ID: 2, TotalAmount: decimal.Zero},
		{ID: 3, TotalAmount: decimal.Zero},
	}
	items := []dataset.OrderItem{
		{ID: 1, OrderID: 1, LineTotal: decimal.RequireFromString("10.10")},
		{ID: 2, OrderID: 1, LineTotal: decimal.RequireFromString("0.20")},
		{ID: 3, OrderID: 2, LineTotal: decimal.RequireFromString("799.99")},
	}

	totalled := ComputeTotals(orders, items)

	require.Len(t, totalled, 3)
	assert.Equal(t, "10.30", totalled[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "799.99", totalled[1].TotalAmount.StringFixed(2))
	assert.True(t, totalled[2].TotalAmount.IsZero())
	for _, o := range orders {
		assert.True(t, o.TotalAmount.IsZero(), "input orders stay untouched")
	}
}

func TestGeneratePaymentsFollowOrders(t *testing.T) {
	cfg := testConfig()
	g := newGenerator(t, cfg)
	placed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orders := []dataset.Order{
		{ID: 1, OrderDate: placed, Status: dataset.StatusCancelled, PaymentMethod: "upi", TotalAmount: decimal.RequireFromString("42.00")},
		{ID: 2, OrderDate: placed, Status: "delivered", PaymentMethod: "card", TotalAmount: decimal.RequireFromString("13.37")},
		{ID: 3, Status: "pending", PaymentMethod: "cod", TotalAmount: decimal.RequireFromString("5.00")},
	}

	payments, err := g.GeneratePayments(orders)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	assert.Equal(t, dataset.PaymentRefunded, payments[0].Status)
	for i, p := range payments {
		o := orders[i]
		assert.Equal(t, o.ID, p.ID)
		assert.Equal(t, o.ID, p.OrderID)
		assert.Equal(t, o.PaymentMethod, p.PaymentMethod)
		assert.True(t, p.Amount.Equal(o.TotalAmount))
		assert.Regexp(t, `^PAY-[0-9A-F-]{36}$`, p.TransactionID)
	}
	for _, p := range payments[:2] {
		delay := p.PaymentDate.Sub(placed)
		assert.GreaterOrEqual(t, delay, 10*time.Minute)
		assert.LessOrEqual(t, delay, 240*time.Minute)
	}

	// zero order timestamp falls back to a draw within the past year
	assert.False(t, payments[2].PaymentDate.IsZero())
	assert.False(t, payments[2].PaymentDate.After(g.ref))
	assert.False(t, payments[2].PaymentDate.Before(g.ref.AddDate(-1, 0, 0)))
}

func TestGenerateSatisfiesInvariants(t *testing.T) {
	cfg := config.Default()
	ds, err := newGenerator(t, cfg).Generate()
	require.NoError(t, err)

	assert.Len(t, ds.Users, cfg.NumUsers)
	assert.Len(t, ds.Products, cfg.NumProducts)
	assert.Len(t, ds.Orders, cfg.NumOrders)
	assert.Len(t, ds.Payments, cfg.NumOrders)

	sums := map[int]decimal.Decimal{}
	for _, it := range ds.OrderItems {
		sums[it.OrderID] = sums[it.OrderID].Add(it.LineTotal)
	}
	cancelled := 0
	for i, o := range ds.Orders {
		assert.True(t, o.TotalAmount.Equal(sums[o.ID].Round(2)), "order %d total", o.ID)
		p := ds.Payments[i]
		assert.False(t, p.PaymentDate.Before(o.OrderDate))
		if o.Status == dataset.StatusCancelled {
			cancelled++
			assert.Equal(t, dataset.PaymentRefunded, p.Status)
		}
	}
	assert.Positive(t, cancelled, "600 orders should include a cancelled one")
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	cfg := testConfig()
	first, err := newGenerator(t, cfg).Generate()
	require.NoError(t, err)
	second, err := newGenerator(t, cfg).Generate()
	require.NoError(t, err)

	for _, entity := range dataset.Entities {
		assert.Equal(t, first.Records(entity), second.Records(entity), entity)
	}

	cfg.Seed++
	third, err := newGenerator(t, cfg).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, first.Records(dataset.Users), third.Records(dataset.Users))
}

func TestSmallScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 2024
	cfg.NumUsers = 5
	cfg.NumProducts = 3
	cfg.NumOrders = 2

	ds, err := newGenerator(t, cfg).Generate()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(ds.OrderItems), 2)
	assert.LessOrEqual(t, len(ds.OrderItems), 10)
	productIDs := map[int]bool{}
	for _, p := range ds.Products {
		productIDs[p.ID] = true
	}
	for _, it := range ds.OrderItems {
		assert.True(t, productIDs[it.ProductID], "item %d references product %d", it.ID, it.ProductID)
	}
	paymentsPerOrder := map[int]int{}
	for _, p := range ds.Payments {
		paymentsPerOrder[p.OrderID]++
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1}, paymentsPerOrder)
}

func TestNewRejectsBadDistributions(t *testing.T) {
	cfg := testConfig()
	cfg.PaymentStatuses = nil
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrInvalidWeights)
}
