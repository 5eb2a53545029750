package catalog

import (
	"strings"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

// Resolver turns extracted entities into catalog rows without any external call.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve filters the catalog for the given entities. Rows keep table order.
// NoData is set when a needed field is nil, nothing matches, or the input
// does not make sense for its intent.
func (r *Resolver) Resolve(entities model.ExtractedEntities) model.Resolution {
	if entities == nil {
		return model.Resolution{NoData: true}
	}

	var rows []any
	switch e := entities.(type) {
	case model.OrderInfoEntities:
		rows = r.orderInfo(e)
	case model.ProductInfoEntities:
		rows = r.productInfo(e)
	case model.CompareProductsEntities:
		rows = r.compareProducts(e)
	case model.ProductRecommendationEntities:
		rows = r.recommend(e)
	case model.JoinedQueryEntities:
		rows = r.customerOrders(e)
	}

	return model.Resolution{
		Intent: entities.Intent(),
		Rows:   rows,
		NoData: len(rows) == 0,
	}
}

func (r *Resolver) orderInfo(e model.OrderInfoEntities) []any {
	if e.OrderID == nil {
		return nil
	}
	var rows []any
	for _, o := range r.store.orders {
		if o.OrderID == *e.OrderID {
			rows = append(rows, o)
		}
	}
	return rows
}

// productInfo prefers the id and falls back to the name.
func (r *Resolver) productInfo(e model.ProductInfoEntities) []any {
	var rows []any
	switch {
	case e.ProductID != nil:
		for _, p := range r.store.products {
			if p.ProductID == *e.ProductID {
				rows = append(rows, p)
			}
		}
	case e.ProductName != nil && normalize(*e.ProductName) != "":
		name := normalize(*e.ProductName)
		for _, p := range r.store.products {
			if normalize(p.ProductName) == name {
				rows = append(rows, p)
			}
		}
	}
	return rows
}

// compareProducts needs exactly two names that differ after case folding
// and that both exist in the catalog.
func (r *Resolver) compareProducts(e model.CompareProductsEntities) []any {
	if len(e.ProductNames) != 2 {
		return nil
	}
	a, b := normalize(e.ProductNames[0]), normalize(e.ProductNames[1])
	if a == "" || b == "" || a == b {
		return nil
	}

	var rows []any
	var foundA, foundB bool
	for _, p := range r.store.products {
		switch normalize(p.ProductName) {
		case a:
			foundA = true
			rows = append(rows, p)
		case b:
			foundB = true
			rows = append(rows, p)
		}
	}
	if !foundA || !foundB {
		return nil
	}
	return rows
}

func (r *Resolver) recommend(e model.ProductRecommendationEntities) []any {
	if e.Category == nil {
		return nil
	}
	category := normalize(*e.Category)
	if category == "" {
		return nil
	}
	var rows []any
	for _, p := range r.store.products {
		if normalize(p.Category) == category {
			rows = append(rows, p)
		}
	}
	return rows
}

// customerOrders left-joins every order of the customer to its product.
func (r *Resolver) customerOrders(e model.JoinedQueryEntities) []any {
	if e.CustomerID == nil {
		return nil
	}
	var rows []any
	for _, o := range r.store.orders {
		if o.CustomerID != *e.CustomerID {
			continue
		}
		p, _ := r.store.product(o.ProductID)
		rows = append(rows, joinRow(o, p))
	}
	return rows
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
