package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BBlazev/OCUgRPC/internal/database"
	"github.com/BBlazev/OCUgRPC/internal/model"
	"github.com/BBlazev/OCUgRPC/internal/validity"
)

// ActivationWindow is how long a ticket stays valid after its first
// successful scan.
const ActivationWindow = 30 * time.Minute

// TicketRepo provides access to the tickets table.  Tickets are written
// by the ingestion client (replace-by-ticket_id) and activated by
// validator sessions (stamp-once window).  Both writes run in
// immediate-lock transactions followed by a full WAL checkpoint, so a
// committed ticket survives losing power immediately afterwards.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// Upsert stores a ticket with replace-by-ticket_id semantics: a resync
// of an already-known ticket replaces every column, including the
// validity window.  The write runs in its own exclusive transaction and
// is checkpointed before returning.
func (r *TicketRepo) Upsert(ctx context.Context, t *model.Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO tickets (ticket_id, active, date_created, account_id, caption,
			valid_from, valid_to, traffic_area, traffic_zone, article_id, invoice_item_id, token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticket_id) DO UPDATE SET
			active = excluded.active,
			date_created = excluded.date_created,
			account_id = excluded.account_id,
			caption = excluded.caption,
			valid_from = excluded.valid_from,
			valid_to = excluded.valid_to,
			traffic_area = excluded.traffic_area,
			traffic_zone = excluded.traffic_zone,
			article_id = excluded.article_id,
			invoice_item_id = excluded.invoice_item_id,
			token = excluded.token`
	if _, err := tx.ExecContext(ctx, q,
		t.TicketID, t.Active, t.DateCreated, nullInt64(t.AccountID), t.Caption,
		nullString(t.ValidFrom), nullString(t.ValidTo), t.TrafficArea,
		nullInt64(t.TrafficZone), nullInt64(t.ArticleID), nullInt64(t.InvoiceItemID),
		nullString(t.Token),
	); err != nil {
		return fmt.Errorf("upsert ticket %d: %w", t.TicketID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return database.Checkpoint(ctx, r.db)
}

// GetByToken returns the ticket carrying the given activation token, or
// ErrNotFound.
func (r *TicketRepo) GetByToken(ctx context.Context, token string) (*model.Ticket, error) {
	const q = `SELECT id, ticket_id, active, date_created, account_id, caption,
			valid_from, valid_to, traffic_area, traffic_zone, article_id, invoice_item_id, token
		FROM tickets WHERE token = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, token)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// Activation is the outcome of an Activate call.  Activated reports
// whether this call performed the one-time transition; ValidFrom and
// ValidTo carry the window that is stored afterwards, whichever caller
// stamped it.
type Activation struct {
	Activated bool
	ValidFrom string
	ValidTo   string
}

// Activate stamps the validity window of the ticket carrying token, if
// it has none yet.  The discover-then-stamp step runs inside a single
// immediate-lock transaction keyed on the token, so concurrent first
// scans cannot produce divergent windows: the loser blocks on BEGIN,
// then observes the winner's window and returns it unchanged.  Returns
// ErrNotFound when no ticket carries the token.
func (r *TicketRepo) Activate(ctx context.Context, token string, now time.Time) (*Activation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var from, to sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT valid_from, valid_to FROM tickets WHERE token = ? LIMIT 1`, token,
	).Scan(&from, &to)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}

	if from.Valid && to.Valid {
		// Already activated; nothing to write.
		return &Activation{ValidFrom: from.String, ValidTo: to.String}, nil
	}

	validFrom := validity.Format(now)
	validTo := validity.Format(now.Add(ActivationWindow))
	if _, err := tx.ExecContext(ctx,
		`UPDATE tickets SET valid_from = ?, valid_to = ? WHERE token = ?`,
		validFrom, validTo, token,
	); err != nil {
		return nil, fmt.Errorf("stamp window: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if err := database.Checkpoint(ctx, r.db); err != nil {
		return nil, err
	}
	return &Activation{Activated: true, ValidFrom: validFrom, ValidTo: validTo}, nil
}

// Count returns the number of ticket rows, for the ops stats endpoint.
func (r *TicketRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&n)
	return n, err
}

// rowScanner lets scanTicket work for both QueryRow and rows.Next
// iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var (
		t                                  model.Ticket
		accountID, trafficZone             sql.NullInt64
		articleID, invoiceItemID           sql.NullInt64
		validFrom, validTo, token, caption sql.NullString
		dateCreated, trafficArea           sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.TicketID, &t.Active, &dateCreated, &accountID, &caption,
		&validFrom, &validTo, &trafficArea, &trafficZone, &articleID, &invoiceItemID, &token,
	)
	if err != nil {
		return nil, err
	}
	t.DateCreated = dateCreated.String
	t.Caption = caption.String
	t.TrafficArea = trafficArea.String
	if accountID.Valid {
		v := accountID.Int64
		t.AccountID = &v
	}
	if trafficZone.Valid {
		v := trafficZone.Int64
		t.TrafficZone = &v
	}
	if articleID.Valid {
		v := articleID.Int64
		t.ArticleID = &v
	}
	if invoiceItemID.Valid {
		v := invoiceItemID.Int64
		t.InvoiceItemID = &v
	}
	if validFrom.Valid {
		v := validFrom.String
		t.ValidFrom = &v
	}
	if validTo.Valid {
		v := validTo.String
		t.ValidTo = &v
	}
	if token.Valid {
		v := token.String
		t.Token = &v
	}
	return &t, nil
}
