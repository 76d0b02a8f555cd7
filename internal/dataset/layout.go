package dataset

import "strconv"

// Entity names double as exchange file stems and table names.
const (
	Users      = "users"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "order_items"
	Payments   = "payments"
)

// Entities lists every entity in load order: parents before children.
var Entities = []string{Users, Products, Orders, OrderItems, Payments}

// Columns holds the exchange column order for each entity.
var Columns = map[string][]string{
	Users:      {"user_id", "first_name", "last_name", "email", "phone", "signup_date", "loyalty_status", "country"},
	Products:   {"product_id", "name", "category", "price", "stock_qty", "created_at"},
	Orders:     {"order_id", "user_id", "order_date", "status", "payment_method", "shipping_address", "total_amount"},
	OrderItems: {"order_item_id", "order_id", "product_id", "quantity", "unit_price", "line_total"},
	Payments:   {"payment_id", "order_id", "payment_method", "amount", "payment_status", "payment_date", "transaction_id"},
}

// FileName returns the exchange file name for an entity.
func FileName(entity string) string {
	return entity + ".csv"
}

// Records flattens one entity set into string rows matching Columns.
func (d Dataset) Records(entity string) [][]string {
	switch entity {
	case Users:
		rows := make([][]string, 0, len(d.Users))
		for _, u := range d.Users {
			rows = append(rows, []string{
				strconv.Itoa(u.ID),
				u.FirstName,
				u.LastName,
				u.Email,
				u.Phone,
				u.SignupDate.Format(DateLayout),
				u.LoyaltyStatus,
				u.Country,
			})
		}
		return rows
	case Products:
		rows := make([][]string, 0, len(d.Products))
		for _, p := range d.Products {
			rows = append(rows, []string{
				strconv.Itoa(p.ID),
				p.Name,
				p.Category,
				p.Price.StringFixed(2),
				strconv.Itoa(p.StockQty),
				p.CreatedAt.Format(DateLayout),
			})
		}
		return rows
	case Orders:
		rows := make([][]string, 0, len(d.Orders))
		for _, o := range d.Orders {
			rows = append(rows, []string{
				strconv.Itoa(o.ID),
				strconv.Itoa(o.UserID),
				o.OrderDate.Format(TimestampLayout),
				o.Status,
				o.PaymentMethod,
				o.ShippingAddress,
				o.TotalAmount.StringFixed(2),
			})
		}
		return rows
	case OrderItems:
		rows := make([][]string, 0, len(d.OrderItems))
		for _, it := range d.OrderItems {
			rows = append(rows, []string{
				strconv.Itoa(it.ID),
				strconv.Itoa(it.OrderID),
				strconv.Itoa(it.ProductID),
				strconv.Itoa(it.Quantity),
				it.UnitPrice.StringFixed(2),
				it.LineTotal.StringFixed(2),
			})
		}
		return rows
	case Payments:
		rows := make([][]string, 0, len(d.Payments))
		for _, p := range d.Payments {
			rows = append(rows, []string{
				strconv.Itoa(p.ID),
				strconv.Itoa(p.OrderID),
				p.PaymentMethod,
				p.Amount.StringFixed(2),
				p.Status,
				p.PaymentDate.Format(TimestampLayout),
				p.TransactionID,
			})
		}
		return rows
	}
	return nil
}
