// Package server implements the TCP surface validators connect to.
// Each connection carries exactly one newline-terminated command and
// one newline-terminated reply, after which the connection closes.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/BBlazev/OCUgRPC/internal/cache"
	"github.com/BBlazev/OCUgRPC/internal/repository"
	"github.com/BBlazev/OCUgRPC/internal/validity"
)

// Protocol replies shared by several commands.
const (
	replyEmptyRequest   = "FAIL Empty request"
	replyUnknownCommand = "FAIL Unknown command"
	replyInvalidQR      = "Invalid QR format"
	replyTicketValid    = `{"isValid":true}`
	replyTicketInvalid  = `{"isValid":false}`
	replyTicketActive   = `{"status":"TICKET_ACTIVATED","isValid":true}`
)

// Validators do not identify themselves on the wire yet; every audit
// row is attributed to this placeholder until the protocol grows an
// identity field.
const defaultValidatorID = 1

// sessionReadTimeout bounds how long an accepted connection may sit
// without sending its command, so abandoned sockets cannot hold the
// listener's shutdown wait open.
const sessionReadTimeout = 30 * time.Second

// SessionHandler dispatches validator commands against the shared
// store.  One handler serves every connection; per-connection state is
// only the socket itself.
type SessionHandler struct {
	Coupons     *repository.CouponRepo
	Articles    *repository.ArticleRepo
	Tickets     *repository.TicketRepo
	Purchases   *repository.PurchaseRepo
	Validations *repository.ValidationRepo
	Cache       *cache.ArticleCache // optional, may be nil
	Clock       validity.Clock
}

// Handle runs one session: read a single line, process it, write the
// reply and close.  A connection that sends nothing before the read
// deadline is dropped without a reply.
func (h *SessionHandler) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}

	reply := h.Process(ctx, line)
	if _, err := conn.Write([]byte(reply + "\n")); err != nil {
		log.Printf("session: write reply: %v", err)
	}
}

// Process maps one raw command line onto its reply.  It is exported
// separately from Handle so protocol behaviour can be tested without a
// socket.
func (h *SessionHandler) Process(ctx context.Context, raw string) string {
	trimmed := strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, raw)
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" {
		return replyEmptyRequest
	}

	switch {
	case trimmed == "FETCH_ARTICLES":
		return h.fetchArticles(ctx)
	case strings.HasPrefix(trimmed, "PURCHASE "):
		return h.purchase(ctx, trimmed[len("PURCHASE "):])
	case strings.HasPrefix(trimmed, "QR"):
		return h.validateQR(ctx, trimmed[len("QR"):])
	case isCardNumber(trimmed):
		return h.validateCard(ctx, trimmed)
	default:
		return replyUnknownCommand
	}
}

// isCardNumber reports whether the command is a bare alphanumeric
// token, which the protocol treats as a card number to validate.
func isCardNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// wireArticle is the JSON shape of one article in the FETCH_ARTICLES
// reply, matching the central catalogue's column names.
type wireArticle struct {
	ArticleID int64   `json:"article_id"`
	Name      string  `json:"article_name"`
	Price     float64 `json:"article_price"`
}

// fetchArticles renders the curated article list.  Any failure degrades
// to an empty array; validators treat "[]" as "nothing for sale".
func (h *SessionHandler) fetchArticles(ctx context.Context) string {
	if payload, ok := h.Cache.Get(ctx); ok {
		return payload
	}

	articles, err := h.Articles.ListForValidators(ctx)
	if err != nil {
		log.Printf("session: list articles: %v", err)
		return "[]"
	}

	out := make([]wireArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, wireArticle{ArticleID: a.ArticleID, Name: a.Name, Price: a.Price})
	}
	body, err := json.Marshal(out)
	if err != nil {
		log.Printf("session: marshal articles: %v", err)
		return "[]"
	}

	payload := string(body)
	h.Cache.Set(ctx, payload)
	return payload
}

// purchase handles `PURCHASE <article_id> <card_number> <quantity>`.
// Only the first three fields are read; trailing tokens are ignored.
// Malformed numeric fields fail before any logging; every attempt that
// gets past parsing writes exactly one purchases row.  The card check
// runs before the article lookup, so a bad card never touches the
// article table.
func (h *SessionHandler) purchase(ctx context.Context, args string) string {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return "FAIL Invalid format"
	}
	quantity, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "FAIL Invalid format"
	}
	articleID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return "FAIL Invalid article_id"
	}
	cardNumber := fields[1]

	if !h.cardIsValid(ctx, cardNumber) {
		h.logPurchase(ctx, articleID, cardNumber, quantity, false)
		return "FAIL Invalid card"
	}

	if _, err := h.Articles.GetByArticleID(ctx, articleID); err != nil {
		h.logPurchase(ctx, articleID, cardNumber, quantity, false)
		if errors.Is(err, repository.ErrNotFound) {
			return "FAIL Article not found"
		}
		log.Printf("session: article lookup: %v", err)
		return "FAIL Internal error"
	}

	if err := h.Purchases.Log(ctx, articleID, cardNumber, quantity, true); err != nil {
		log.Printf("session: log purchase: %v", err)
		return "FAIL Logging error"
	}
	return "SUCCESS"
}

// logPurchase records a failed attempt; a failure to log a failure is
// itself only logged, the protocol reply is already decided.
func (h *SessionHandler) logPurchase(ctx context.Context, articleID int64, cardNumber string, quantity int64, success bool) {
	if err := h.Purchases.Log(ctx, articleID, cardNumber, quantity, success); err != nil {
		log.Printf("session: log purchase: %v", err)
	}
}

// cardIsValid checks the first coupon bound to the card against the
// current time.  Unknown card, store failure and unparseable window all
// read as invalid; validity is recomputed on every call, never cached.
func (h *SessionHandler) cardIsValid(ctx context.Context, cardNumber string) bool {
	c, err := h.Coupons.FirstByCard(ctx, cardNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("session: coupon lookup: %v", err)
		}
		return false
	}
	return validity.WindowContains(c.ValidFrom, c.ValidTo, h.Clock.Now())
}

// validateCard handles the bare card-number command.  The reply is the
// coupon_id of the first matching valid coupon, or "0".
func (h *SessionHandler) validateCard(ctx context.Context, cardNumber string) string {
	c, err := h.Coupons.FirstByCard(ctx, cardNumber)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("session: coupon lookup: %v", err)
		}
		return "0"
	}
	if !validity.WindowContains(c.ValidFrom, c.ValidTo, h.Clock.Now()) {
		return "0"
	}
	return strconv.FormatInt(c.CouponID, 10)
}

// validateQR handles `QR<uuid>|<token>|<timestamp>|<hash>`.  A ticket
// seen for the first time gets its 30-minute window stamped in one
// exclusive transaction; afterwards the stored window decides.  Every
// attempt is appended to the qr_validated audit.
func (h *SessionHandler) validateQR(ctx context.Context, args string) string {
	parts := strings.SplitN(args, "|", 4)
	if len(parts) != 4 {
		return replyInvalidQR
	}
	token := parts[1]
	now := h.Clock.Now()

	reply := h.resolveTicket(ctx, token, now)
	valid := reply != replyTicketInvalid
	if err := h.Validations.LogQR(ctx, token, defaultValidatorID, valid); err != nil {
		log.Printf("session: log qr validation: %v", err)
	}
	return reply
}

// resolveTicket walks the ticket state machine for one scan: NOT_FOUND
// and EXPIRED answer invalid, ACTIVE answers valid, a null window
// activates.  The pre-read keeps already-activated scans off the write
// lock; the activation itself re-checks under the exclusive transaction.
func (h *SessionHandler) resolveTicket(ctx context.Context, token string, now time.Time) string {
	t, err := h.Tickets.GetByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("session: ticket lookup: %v", err)
		}
		return replyTicketInvalid
	}

	if t.ValidFrom != nil && t.ValidTo != nil {
		if validity.WindowContains(*t.ValidFrom, *t.ValidTo, now) {
			return replyTicketValid
		}
		return replyTicketInvalid
	}

	act, err := h.Tickets.Activate(ctx, token, now)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("session: activate ticket: %v", err)
		}
		return replyTicketInvalid
	}
	if act.Activated {
		return replyTicketActive
	}
	// Lost the activation race; judge by the winner's window.
	if validity.WindowContains(act.ValidFrom, act.ValidTo, now) {
		return replyTicketValid
	}
	return replyTicketInvalid
}
