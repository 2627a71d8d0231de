package model

// Article is a purchasable fare product.  Articles are read-mostly
// reference data fetched from the central REST API; the price is a
// passthrough value, no pricing computation happens in this service.
//
// Fields:
//
//	ID        – surrogate primary key.
//	ArticleID – identifier assigned by the central system.
//	Name      – display name shown on validators.
//	Price     – unit price.
type Article struct {
	ID        uint64  // articles.id
	ArticleID int64   // articles.article_id
	Name      string  // articles.article_name
	Price     float64 // articles.article_price
}
