package repository

import (
	"context"
	"database/sql"

	"github.com/BBlazev/OCUgRPC/internal/model"
)

// CouponRepo provides access to the coupons table.  Coupons arrive via
// the reference-data fetcher and are read by card-number lookups from
// validator sessions.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

// Insert appends one coupon row.  Re-fetching reference data inserts
// again rather than upserting by coupon_id; that matches the central
// feed today and keeps the "first match" card lookup stable.
func (r *CouponRepo) Insert(ctx context.Context, c *model.Coupon) error {
	const q = `INSERT INTO coupons (coupon_id, customer_id, card_id, card_number, valid_from, valid_to, traffic_area_group)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		c.CouponID, c.CustomerID, nullInt64(c.CardID), c.CardNumber,
		c.ValidFrom, c.ValidTo, c.TrafficAreaGroup,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// FirstByCard returns the first coupon stored for the given card
// number, in insertion order.  Many coupons may share a card number;
// validation deliberately considers only the first match.  ErrNotFound
// is returned when the card is unknown.
func (r *CouponRepo) FirstByCard(ctx context.Context, cardNumber string) (*model.Coupon, error) {
	const q = `SELECT id, coupon_id, customer_id, card_id, card_number, valid_from, valid_to, traffic_area_group
		FROM coupons WHERE card_number = ? ORDER BY id LIMIT 1`
	var (
		c      model.Coupon
		cardID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, q, cardNumber).Scan(
		&c.ID, &c.CouponID, &c.CustomerID, &cardID, &c.CardNumber,
		&c.ValidFrom, &c.ValidTo, &c.TrafficAreaGroup,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cardID.Valid {
		v := cardID.Int64
		c.CardID = &v
	}
	return &c, nil
}

// ListByCard returns every coupon stored for the card, in insertion
// order.  Used by the offline `validate` subcommand to print details.
func (r *CouponRepo) ListByCard(ctx context.Context, cardNumber string) ([]model.Coupon, error) {
	const q = `SELECT id, coupon_id, customer_id, card_id, card_number, valid_from, valid_to, traffic_area_group
		FROM coupons WHERE card_number = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, cardNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Coupon
	for rows.Next() {
		var (
			c      model.Coupon
			cardID sql.NullInt64
		)
		if err := rows.Scan(
			&c.ID, &c.CouponID, &c.CustomerID, &cardID, &c.CardNumber,
			&c.ValidFrom, &c.ValidTo, &c.TrafficAreaGroup,
		); err != nil {
			return nil, err
		}
		if cardID.Valid {
			v := cardID.Int64
			c.CardID = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of coupon rows, for the ops stats endpoint.
func (r *CouponRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&n)
	return n, err
}

// nullInt64 maps an optional int64 onto a driver-level NULL.
func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// nullString maps an optional string onto a driver-level NULL.
func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
