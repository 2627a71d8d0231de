package repository

import (
	"context"
	"database/sql"

	"github.com/BBlazev/OCUgRPC/internal/model"
)

// PurchaseRepo provides access to the append-only purchases log.
type PurchaseRepo struct {
	db *sql.DB
}

// NewPurchaseRepo returns a new PurchaseRepo bound to the given database.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// Log appends one purchase attempt.  Every attempt writes exactly one
// row regardless of outcome; the timestamp comes from the store's own
// clock.
func (r *PurchaseRepo) Log(ctx context.Context, articleID int64, cardNumber string, quantity int64, success bool) error {
	const q = `INSERT INTO purchases (article_id, card_number, quantity, success, timestamp)
		VALUES (?, ?, ?, ?, datetime('now','localtime'))`
	_, err := r.db.ExecContext(ctx, q, articleID, cardNumber, quantity, success)
	return err
}

// ListByCard returns the purchase history for a card, newest first.
func (r *PurchaseRepo) ListByCard(ctx context.Context, cardNumber string) ([]model.Purchase, error) {
	const q = `SELECT id, article_id, card_number, quantity, success, timestamp
		FROM purchases WHERE card_number = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, cardNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.ArticleID, &p.CardNumber, &p.Quantity, &p.Success, &p.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of purchase rows, for the ops stats endpoint.
func (r *PurchaseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n)
	return n, err
}
