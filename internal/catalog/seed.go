package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// Table is a header plus string cells, as read from a spreadsheet.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads the first sheet of an .xlsx file or a whole .csv file.
// The first row is the header.
func ReadTable(path string) (*Table, error) {
	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		records, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
		}
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		records, err = r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	t := &Table{Header: records[0]}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ParseOrders maps an order sheet to rows. Unknown columns are ignored.
func ParseOrders(t *Table) ([]Order, error) {
	cols, err := columns(t.Header, "OrderID", "CustomerID", "ProductID")
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(t.Rows))
	for i, rec := range t.Rows {
		line := i + 2
		get := cols.getter(rec)

		var o Order
		if o.OrderID, err = parseID(get("OrderID")); err != nil {
			return nil, fmt.Errorf("row %d OrderID: %w", line, err)
		}
		if o.CustomerID, err = parseID(get("CustomerID")); err != nil {
			return nil, fmt.Errorf("row %d CustomerID: %w", line, err)
		}
		if o.ProductID, err = parseID(get("ProductID")); err != nil {
			return nil, fmt.Errorf("row %d ProductID: %w", line, err)
		}
		if o.ReturnEligible, err = parseBool(get("ReturnEligible")); err != nil {
			return nil, fmt.Errorf("row %d ReturnEligible: %w", line, err)
		}
		o.OrderStatus = get("OrderStatus")
		o.ShippingDate = get("ShippingDate")
		orders = append(orders, o)
	}
	return orders, nil
}

// ParseProducts maps a product sheet to rows. Unknown columns are ignored.
func ParseProducts(t *Table) ([]Product, error) {
	cols, err := columns(t.Header, "ProductID", "ProductName")
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(t.Rows))
	for i, rec := range t.Rows {
		line := i + 2
		get := cols.getter(rec)

		var p Product
		if p.ProductID, err = parseID(get("ProductID")); err != nil {
			return nil, fmt.Errorf("row %d ProductID: %w", line, err)
		}
		p.ProductName = get("ProductName")
		p.Category = get("Category")
		p.Description = get("Description")
		if s := get("Price"); s != "" {
			if p.Price, err = decimal.NewFromString(s); err != nil {
				return nil, fmt.Errorf("row %d Price: %w", line, err)
			}
		}
		if s := get("StockQuantity"); s != "" {
			if p.StockQuantity, err = parseID(s); err != nil {
				return nil, fmt.Errorf("row %d StockQuantity: %w", line, err)
			}
		}
		if s := get("Rating"); s != "" {
			if p.Rating, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("row %d Rating: %w", line, err)
			}
		}
		products = append(products, p)
	}
	return products, nil
}

// Seed replaces both tables in one transaction.
func Seed(ctx context.Context, db *gorm.DB, orders []Order, products []Product) error {
	if err := Migrate(ctx, db); err != nil {
		return err
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&Product{}).Error; err != nil {
			return err
		}
		if len(orders) > 0 {
			if err := tx.CreateInBatches(orders, 200).Error; err != nil {
				return err
			}
		}
		if len(products) > 0 {
			if err := tx.CreateInBatches(products, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Msg("catalog seed failed")
		return errx.WrapDB(err)
	}
	logx.Info().Int("orders", len(orders)).Int("products", len(products)).Msg("catalog seeded")
	return nil
}

// ===================== helpers =====================

type columnIndex map[string]int

func columns(header []string, required ...string) (columnIndex, error) {
	idx := columnIndex{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

// getter returns trimmed cell values by column name; short rows read as empty.
func (c columnIndex) getter(rec []string) func(string) string {
	return func(name string) string {
		i, ok := c[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
}

// parseID accepts integers and integral floats such as "1001.0".
func parseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
