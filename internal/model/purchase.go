package model

// Purchase records one purchase attempt made from a validator.  The
// table is append-only: every attempt writes exactly one row whether it
// succeeded or not, so the purchase log doubles as the failure audit.
//
// Fields:
//
//	ID         – surrogate primary key.
//	ArticleID  – article the validator asked for.
//	CardNumber – card presented for payment.
//	Quantity   – number of units requested.
//	Success    – outcome of the attempt.
//	Timestamp  – when the attempt was logged (store-side clock).
type Purchase struct {
	ID         uint64 // purchases.id
	ArticleID  int64  // purchases.article_id
	CardNumber string // purchases.card_number
	Quantity   int64  // purchases.quantity
	Success    bool   // purchases.success
	Timestamp  string // purchases.timestamp
}
