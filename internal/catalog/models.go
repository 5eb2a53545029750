package catalog

import "github.com/shopspring/decimal"

// Column names keep the CamelCase headers of the source spreadsheets so a
// catalog seeded elsewhere from the same files stays readable.

type Order struct {
	OrderID        int64  `gorm:"column:OrderID;uniqueIndex:idx_orders_order_id;not null" json:"OrderID"`
	CustomerID     int64  `gorm:"column:CustomerID;index:idx_orders_customer_id;not null" json:"CustomerID"`
	ProductID      int64  `gorm:"column:ProductID;not null" json:"ProductID"`
	OrderStatus    string `gorm:"column:OrderStatus" json:"OrderStatus"`
	ReturnEligible bool   `gorm:"column:ReturnEligible" json:"ReturnEligible"`
	ShippingDate   string `gorm:"column:ShippingDate" json:"ShippingDate"`
}

func (Order) TableName() string { return "orders" }

type Product struct {
	ProductID     int64           `gorm:"column:ProductID;uniqueIndex:idx_products_product_id;not null" json:"ProductID"`
	ProductName   string          `gorm:"column:ProductName" json:"ProductName"`
	Category      string          `gorm:"column:Category" json:"Category"`
	Price         decimal.Decimal `gorm:"column:Price;type:numeric" json:"Price"`
	StockQuantity int64           `gorm:"column:StockQuantity" json:"StockQuantity"`
	Description   string          `gorm:"column:Description" json:"Description"`
	Rating        float64         `gorm:"column:Rating" json:"Rating"`
}

func (Product) TableName() string { return "products" }

// OrderWithProduct is one row of the customer join. Product fields are nil
// when the order references a product that is not in the catalog.
type OrderWithProduct struct {
	Order
	ProductName   *string          `json:"ProductName"`
	Category      *string          `json:"Category"`
	Price         *decimal.Decimal `json:"Price"`
	StockQuantity *int64           `json:"StockQuantity"`
	Description   *string          `json:"Description"`
	Rating        *float64         `json:"Rating"`
}

func joinRow(o Order, p *Product) OrderWithProduct {
	row := OrderWithProduct{Order: o}
	if p == nil {
		return row
	}
	name, category, desc := p.ProductName, p.Category, p.Description
	price, stock, rating := p.Price, p.StockQuantity, p.Rating
	row.ProductName = &name
	row.Category = &category
	row.Price = &price
	row.StockQuantity = &stock
	row.Description = &desc
	row.Rating = &rating
	return row
}
