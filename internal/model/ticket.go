package model

// Ticket is a fare credential streamed from the central ticketing
// system.  A ticket arrives with a null validity window; the first
// successful QR scan stamps a fixed 30-minute window exactly once,
// after which the ticket behaves as a time-boxed credential until it
// expires.  Writes use replace-by-TicketID semantics so a resynced
// ticket replaces the local row wholesale.
//
// Fields:
//
//	ID            – surrogate primary key.
//	TicketID      – replace-by-id identity from the central system.
//	Active        – active flag as issued.
//	DateCreated   – issue timestamp (YYYY-MM-DDTHH:MM:SS).
//	AccountID     – owning account, when known.
//	Caption       – display caption.
//	ValidFrom     – window start; nil until activation.
//	ValidTo       – window end; nil until activation.
//	TrafficArea   – area the ticket is valid in.
//	TrafficZone   – zone restriction, when present.
//	ArticleID     – article the ticket was issued for, when present.
//	InvoiceItemID – billing reference, when present.
//	Token         – unique activation key carried in the QR payload.
type Ticket struct {
	ID            uint64  // tickets.id
	TicketID      int64   // tickets.ticket_id
	Active        bool    // tickets.active
	DateCreated   string  // tickets.date_created
	AccountID     *int64  // tickets.account_id (nullable)
	Caption       string  // tickets.caption
	ValidFrom     *string // tickets.valid_from (nullable until activation)
	ValidTo       *string // tickets.valid_to (nullable until activation)
	TrafficArea   string  // tickets.traffic_area
	TrafficZone   *int64  // tickets.traffic_zone (nullable)
	ArticleID     *int64  // tickets.article_id (nullable)
	InvoiceItemID *int64  // tickets.invoice_item_id (nullable)
	Token         *string // tickets.token (nullable)
}
