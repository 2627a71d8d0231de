// Package ingest runs the background client that streams newly issued
// tickets from the central ticketing system into the local replica.
package ingest

import (
	"github.com/BBlazev/OCUgRPC/internal/model"
)

// Event types carried on the sync stream.  The stream is a
// discriminated union of ticket lifecycle events; this service consumes
// only creations and acknowledges the rest unread.
const (
	EventTicketCreated = "ticket.created"
)

// TicketEvent is one message on the sync stream.
type TicketEvent struct {
	Type   string         `json:"type"`
	Ticket *TicketPayload `json:"ticket,omitempty"`
}

// TicketPayload is the wire form of a ticket.  Optional fields are
// pointers so an absent field stays null in the local store instead of
// being zero-defaulted.
type TicketPayload struct {
	ID            int64   `json:"id"`
	Active        bool    `json:"active"`
	DateCreated   string  `json:"date_created,omitempty"`
	AccountID     *int64  `json:"account_id,omitempty"`
	Caption       string  `json:"caption,omitempty"`
	ValidFrom     *string `json:"valid_from,omitempty"`
	ValidTo       *string `json:"valid_to,omitempty"`
	TrafficArea   string  `json:"traffic_area,omitempty"`
	TrafficZone   *int64  `json:"traffic_zone,omitempty"`
	ArticleID     *int64  `json:"article_id,omitempty"`
	InvoiceItemID *int64  `json:"invoice_item_id,omitempty"`
	Token         *string `json:"token,omitempty"`
}

// ToModel maps the wire ticket onto the stored form.
func (p *TicketPayload) ToModel() *model.Ticket {
	return &model.Ticket{
		TicketID:      p.ID,
		Active:        p.Active,
		DateCreated:   p.DateCreated,
		AccountID:     p.AccountID,
		Caption:       p.Caption,
		ValidFrom:     p.ValidFrom,
		ValidTo:       p.ValidTo,
		TrafficArea:   p.TrafficArea,
		TrafficZone:   p.TrafficZone,
		ArticleID:     p.ArticleID,
		InvoiceItemID: p.InvoiceItemID,
		Token:         p.Token,
	}
}
