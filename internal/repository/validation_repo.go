package repository

import (
	"context"
	"database/sql"
)

// ValidationRepo provides access to the validation audit tables.  Only
// QR scans are written today; card_validated exists in the schema for
// parity with the central system but has no writer yet.
type ValidationRepo struct {
	db *sql.DB
}

// NewValidationRepo returns a new ValidationRepo bound to the given database.
func NewValidationRepo(db *sql.DB) *ValidationRepo { return &ValidationRepo{db: db} }

// LogQR appends one QR scan attempt to qr_validated.
func (r *ValidationRepo) LogQR(ctx context.Context, token string, validatorID int64, valid bool) error {
	const q = `INSERT INTO qr_validated (qr_code, validator_id, valid) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, token, validatorID, valid)
	return err
}

// CountQR returns the number of audited QR scans, for the ops stats
// endpoint.
func (r *ValidationRepo) CountQR(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qr_validated`).Scan(&n)
	return n, err
}
