package model

// Coupon is a card-bound fare-eligibility record synced from the central
// billing system.  Several coupons may share one card number; lookups
// take the first match.  Validity is always recomputed from the stored
// window against the current time and is never cached as a flag.
//
// Fields:
//
//	ID               – surrogate primary key.
//	CouponID         – identifier assigned by the central system.
//	CustomerID       – owning customer.
//	CardID           – physical card identifier, when known.
//	CardNumber       – card number presented by validators.
//	ValidFrom        – start of the validity window (YYYY-MM-DDTHH:MM:SS).
//	ValidTo          – end of the validity window, inclusive.
//	TrafficAreaGroup – area group the coupon is valid in.
type Coupon struct {
	ID               uint64  // coupons.id
	CouponID         int64   // coupons.coupon_id
	CustomerID       int64   // coupons.customer_id
	CardID           *int64  // coupons.card_id (nullable)
	CardNumber       string  // coupons.card_number
	ValidFrom        string  // coupons.valid_from
	ValidTo          string  // coupons.valid_to
	TrafficAreaGroup string  // coupons.traffic_area_group
}
