package query

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// ErrQueryMissing is returned when a named query has no SQL file on disk.
var ErrQueryMissing = errors.New("query file not found")

// ErrUnknownQuery is returned for names outside the catalog.
var ErrUnknownQuery = errors.New("unknown query")

// Catalog names, in execution order.
const (
	TotalRevenuePerUser       = "total_revenue_per_user"
	TopSellingProducts        = "top_selling_products"
	MonthlySalesSummary       = "monthly_sales_summary"
	PaymentMethodDistribution = "payment_method_distribution"
)

var names = []string{
	TotalRevenuePerUser,
	TopSellingProducts,
	MonthlySalesSummary,
	PaymentMethodDistribution,
}

// Query is a named, parameterless SQL body.
type Query struct {
	Name string
	SQL  string
}

// Catalog resolves named queries to <dir>/<name>.sql.
type Catalog struct {
	dir string
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Names returns the catalog names in execution order.
func (c *Catalog) Names() []string {
	return slices.Clone(names)
}

// KPIs are the queries snapshotted by the report.
func (c *Catalog) KPIs() []string {
	return []string{TotalRevenuePerUser, TopSellingProducts}
}

func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, name+".sql")
}

// Load reads the SQL body of name verbatim.
func (c *Catalog) Load(name string) (Query, error) {
	if !slices.Contains(names, name) {
		return Query{}, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	path := c.Path(name)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Query{}, fmt.Errorf("%w: %s", ErrQueryMissing, path)
		}
		return Query{}, fmt.Errorf("read query %s: %w", name, err)
	}
	return Query{Name: name, SQL: string(body)}, nil
}
