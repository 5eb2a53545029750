package catalog

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
)

func ptr[T any](v T) *T { return &v }

func fixtureStore() *Store {
	products := []Product{
		{ProductID: 1, ProductName: "UltraView 50 TV", Category: "Televisions", Price: decimal.RequireFromString("499.99"), StockQuantity: 12, Rating: 4.5},
		{ProductID: 2, ProductName: "SoundMax Bar", Category: "Audio", Price: decimal.RequireFromString("129.00"), StockQuantity: 40, Rating: 4.1},
		{ProductID: 3, ProductName: "UltraView 65 TV", Category: "televisions", Price: decimal.RequireFromString("899.00"), StockQuantity: 3, Rating: 4.7},
	}
	orders := []Order{
		{OrderID: 100, CustomerID: 7, ProductID: 1, OrderStatus: "Shipped", ReturnEligible: true, ShippingDate: "2024-01-03"},
		{OrderID: 101, CustomerID: 8, ProductID: 2, OrderStatus: "Pending"},
		{OrderID: 102, CustomerID: 7, ProductID: 99, OrderStatus: "Delivered"},
	}
	return NewStore(orders, products)
}

func TestResolve_OrderInfo(t *testing.T) {
	r := NewResolver(fixtureStore())

	res := r.Resolve(model.OrderInfoEntities{OrderID: ptr(int64(101))})
	require.False(t, res.NoData)
	require.Equal(t, model.IntentOrderInfo, res.Intent)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "Pending", res.Rows[0].(Order).OrderStatus)

	require.True(t, r.Resolve(model.OrderInfoEntities{}).NoData)
	require.True(t, r.Resolve(model.OrderInfoEntities{OrderID: ptr(int64(5))}).NoData)
}

func TestResolve_ProductInfoPrefersID(t *testing.T) {
	r := NewResolver(fixtureStore())

	res := r.Resolve(model.ProductInfoEntities{ProductID: ptr(int64(2)), ProductName: ptr("UltraView 50 TV")})
	require.Len(t, res.Rows, 1)
	require.Equal(t, "SoundMax Bar", res.Rows[0].(Product).ProductName)

	res = r.Resolve(model.ProductInfoEntities{ProductName: ptr("ultraview 50 tv")})
	require.Len(t, res.Rows, 1)
	require.Equal(t, int64(1), res.Rows[0].(Product).ProductID)

	require.True(t, r.Resolve(model.ProductInfoEntities{}).NoData)
	require.True(t, r.Resolve(model.ProductInfoEntities{ProductName: ptr("  ")}).NoData)
}

func TestResolve_CompareProducts(t *testing.T) {
	r := NewResolver(fixtureStore())

	cases := []struct {
		name   string
		names  []string
		noData bool
	}{
		{name: "two distinct existing", names: []string{"UltraView 50 TV", "soundmax bar"}},
		{name: "same product different case", names: []string{"UltraView 50 TV", "ultraview 50 tv"}, noData: true},
		{name: "one name", names: []string{"UltraView 50 TV"}, noData: true},
		{name: "three names", names: []string{"UltraView 50 TV", "SoundMax Bar", "UltraView 65 TV"}, noData: true},
		{name: "one missing", names: []string{"UltraView 50 TV", "Nope"}, noData: true},
		{name: "nil", names: nil, noData: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := r.Resolve(model.CompareProductsEntities{ProductNames: tc.names})
			require.Equal(t, tc.noData, res.NoData)
		})
	}

	res := r.Resolve(model.CompareProductsEntities{ProductNames: []string{"SoundMax Bar", "UltraView 50 TV"}})
	require.Len(t, res.Rows, 2)
	// table order, not argument order
	require.Equal(t, int64(1), res.Rows[0].(Product).ProductID)
	require.Equal(t, int64(2), res.Rows[1].(Product).ProductID)
}

func TestResolve_RecommendationIsCaseInsensitive(t *testing.T) {
	r := NewResolver(fixtureStore())

	res := r.Resolve(model.ProductRecommendationEntities{Category: ptr("TELEVISIONS")})
	require.Len(t, res.Rows, 2)
	require.True(t, r.Resolve(model.ProductRecommendationEntities{}).NoData)
	require.True(t, r.Resolve(model.ProductRecommendationEntities{Category: ptr("Garden")}).NoData)
}

func TestResolve_JoinedQuery(t *testing.T) {
	r := NewResolver(fixtureStore())

	res := r.Resolve(model.JoinedQueryEntities{CustomerID: ptr(int64(7))})
	require.Len(t, res.Rows, 2)

	first := res.Rows[0].(OrderWithProduct)
	require.Equal(t, int64(100), first.OrderID)
	require.NotNil(t, first.ProductName)
	require.Equal(t, "UltraView 50 TV", *first.ProductName)

	// product 99 is not in the catalog: order fields kept, product fields nil
	second := res.Rows[1].(OrderWithProduct)
	require.Equal(t, int64(102), second.OrderID)
	require.Nil(t, second.ProductName)
	require.Nil(t, second.Price)

	require.True(t, r.Resolve(model.JoinedQueryEntities{CustomerID: ptr(int64(12345))}).NoData)
	require.True(t, r.Resolve(model.JoinedQueryEntities{}).NoData)
}

func TestResolve_NilEntities(t *testing.T) {
	require.True(t, NewResolver(fixtureStore()).Resolve(nil).NoData)
}

func TestStore_Categories(t *testing.T) {
	require.Equal(t, []string{"Televisions", "Audio"}, fixtureStore().Categories())
}

func TestResolve_ManyRowsKeepTableOrder(t *testing.T) {
	var orders []Order
	for i := 0; i < 15; i++ {
		orders = append(orders, Order{OrderID: int64(1000 + i), CustomerID: 1, ProductID: 1, OrderStatus: fmt.Sprintf("s%d", i)})
	}
	r := NewResolver(NewStore(orders, nil))

	res := r.Resolve(model.JoinedQueryEntities{CustomerID: ptr(int64(1))})
	require.Len(t, res.Rows, 15)
	for i, row := range res.Rows {
		require.Equal(t, int64(1000+i), row.(OrderWithProduct).OrderID)
	}
}
