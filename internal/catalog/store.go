package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
)

// Store is the in-memory copy of both tables. It is built once and never
// mutated, so concurrent readers need no locking.
type Store struct {
	orders   []Order
	products []Product

	productByID map[int64]int
	categories  []string
}

// NewStore indexes the given rows, keeping their order as table order.
func NewStore(orders []Order, products []Product) *Store {
	s := &Store{
		orders:      append([]Order(nil), orders...),
		products:    append([]Product(nil), products...),
		productByID: make(map[int64]int, len(products)),
	}

	seen := map[string]bool{}
	for i, p := range s.products {
		if _, dup := s.productByID[p.ProductID]; !dup {
			s.productByID[p.ProductID] = i
		}
		key := strings.ToLower(strings.TrimSpace(p.Category))
		if key != "" && !seen[key] {
			seen[key] = true
			s.categories = append(s.categories, p.Category)
		}
	}
	return s
}

// Load reads both tables in insertion order.
func Load(ctx context.Context, db *gorm.DB) (*Store, error) {
	var orders []Order
	if err := db.WithContext(ctx).Order("rowid").Find(&orders).Error; err != nil {
		logx.Error().Err(err).Msg("failed to load orders")
		return nil, errx.WrapDB(err)
	}
	var products []Product
	if err := db.WithContext(ctx).Order("rowid").Find(&products).Error; err != nil {
		logx.Error().Err(err).Msg("failed to load products")
		return nil, errx.WrapDB(err)
	}

	logx.Info().Int("orders", len(orders)).Int("products", len(products)).Msg("catalog loaded")
	return NewStore(orders, products), nil
}

func (s *Store) Orders() []Order     { return s.orders }
func (s *Store) Products() []Product { return s.products }

// Categories lists distinct product categories in first-seen order.
func (s *Store) Categories() []string { return s.categories }

func (s *Store) product(id int64) (*Product, bool) {
	i, ok := s.productByID[id]
	if !ok {
		return nil, false
	}
	return &s.products[i], true
}
