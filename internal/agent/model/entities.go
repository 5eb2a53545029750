package model

// ExtractedEntities is the tagged union of per-intent parameters.
// Implementations are the *Entities structs below; nil fields mean "not supplied".
type ExtractedEntities interface {
	Intent() Intent
	sealed()
}

type OrderInfoEntities struct {
	OrderID *int64 `json:"order_id"`
}

type ProductInfoEntities struct {
	ProductID   *int64  `json:"product_id"`
	ProductName *string `json:"product_name"`
}

type CompareProductsEntities struct {
	ProductNames []string `json:"product_names"`
}

type ProductRecommendationEntities struct {
	Category *string `json:"category"`
}

type JoinedQueryEntities struct {
	CustomerID *int64 `json:"customer_id"`
}

func (OrderInfoEntities) Intent() Intent             { return IntentOrderInfo }
func (ProductInfoEntities) Intent() Intent           { return IntentProductInfo }
func (CompareProductsEntities) Intent() Intent       { return IntentCompareProducts }
func (ProductRecommendationEntities) Intent() Intent { return IntentProductRecommendation }
func (JoinedQueryEntities) Intent() Intent           { return IntentJoinedQuery }

func (OrderInfoEntities) sealed()             {}
func (ProductInfoEntities) sealed()           {}
func (CompareProductsEntities) sealed()       {}
func (ProductRecommendationEntities) sealed() {}
func (JoinedQueryEntities) sealed()           {}

// RequiredKeys returns the JSON keys the extractor must emit for an intent.
func RequiredKeys(intent Intent) []string {
	switch intent {
	case IntentOrderInfo:
		return []string{"order_id"}
	case IntentProductInfo:
		return []string{"product_id", "product_name"}
	case IntentCompareProducts:
		return []string{"product_names"}
	case IntentProductRecommendation:
		return []string{"category"}
	case IntentJoinedQuery:
		return []string{"customer_id"}
	default:
		return nil
	}
}
