package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/BBlazev/OCUgRPC/internal/repository"
)

const (
	// ticketExchange is the fanout exchange the central system
	// publishes ticket lifecycle events to.  Every vehicle binds its
	// own queue; the subscription is fleet-wide, no per-device filter.
	ticketExchange = "ticket.events"

	// connectTimeout bounds how long one dial attempt may take before
	// it counts as a failed connection.
	connectTimeout = 5 * time.Second

	// reconnectBackoff is the fixed sleep between reconnect attempts.
	// Sync must keep trying for as long as the service runs, so the
	// retry itself is unbounded.
	reconnectBackoff = 5 * time.Second
)

// Consumer is the long-lived ingestion client.  It connects to the sync
// broker, subscribes once, and persists every created ticket into the
// local replica immediately, one exclusive transaction and durability
// flush per ticket.  Disconnects back off and reconnect; Stop cancels
// the in-flight subscription and waits for the worker to exit, so no
// ticket write can race with shutdown.
type Consumer struct {
	url     string
	tickets *repository.TicketRepo

	enabled atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	// mu guards conn: the worker installs it after dialing while Stop
	// closes it from the controller goroutine to abort a blocking read.
	mu   sync.Mutex
	conn *amqp.Connection
}

// NewConsumer returns a consumer for the given broker URL, writing
// through the given ticket repository.
func NewConsumer(url string, tickets *repository.TicketRepo) *Consumer {
	return &Consumer{
		url:     url,
		tickets: tickets,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutine.  Calling Start twice is a no-op.
func (c *Consumer) Start() {
	if c.enabled.Swap(true) {
		return
	}
	go c.run()
	log.Printf("ingest: started streaming worker")
}

// Stop flips the enabled flag, cancels the live subscription and waits
// for the worker to finish.  Safe to call before Start and more than
// once.
func (c *Consumer) Stop() {
	if !c.enabled.Swap(false) {
		return
	}
	close(c.stop)

	c.mu.Lock()
	if c.conn != nil {
		log.Printf("ingest: cancelling live subscription")
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	<-c.done
	log.Printf("ingest: stopped")
}

// Running reports whether the worker is enabled, for the ops stats
// endpoint.
func (c *Consumer) Running() bool { return c.enabled.Load() }

// run is the worker loop: dial, subscribe, drain the stream, and on any
// end other than an explicit Stop, back off and reconnect.
func (c *Consumer) run() {
	defer close(c.done)

	for c.enabled.Load() {
		log.Printf("ingest: connecting to %s", c.url)
		conn, err := amqp.DialConfig(c.url, amqp.Config{
			Dial: amqp.DefaultDial(connectTimeout),
		})
		if err != nil {
			log.Printf("ingest: dial failed: %v; retrying in %s", err, reconnectBackoff)
			if !c.sleep(reconnectBackoff) {
				return
			}
			continue
		}

		// Stop may have fired while the dial was in flight, before the
		// connection was visible to it.  Re-check after installing so
		// the worker closes the fresh connection itself instead of
		// subscribing to a stream nobody will ever cancel.
		if !c.install(conn) {
			c.clear()
			_ = conn.Close()
			return
		}

		err = c.consume(conn)

		c.clear()
		_ = conn.Close()

		if !c.enabled.Load() {
			return
		}
		log.Printf("ingest: stream ended: %v; reconnecting in %s", err, reconnectBackoff)
		if !c.sleep(reconnectBackoff) {
			return
		}
	}
}

// install publishes the live connection for Stop to cancel and reports
// whether the worker is still enabled afterwards.  Installing before
// the enabled check closes the window where Stop ran during the dial:
// either Stop sees the connection and closes it, or the worker sees the
// flipped flag and closes it itself.
func (c *Consumer) install(conn *amqp.Connection) bool {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return c.enabled.Load()
}

// clear withdraws the connection from Stop's view once the worker owns
// its teardown again.
func (c *Consumer) clear() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

// consume issues the one subscribe call and processes deliveries until
// the stream closes.  The queue is exclusive and auto-deleted: the
// subscription exists only while this worker holds it.
func (c *Consumer) consume(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(ticketExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", ticketExchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	log.Printf("ingest: subscribed, waiting for tickets")

	for d := range deliveries {
		if err := c.handle(d.Body); err != nil {
			log.Printf("ingest: handle event failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handle persists one stream event.  Events other than ticket creation
// are acknowledged unread.
func (c *Consumer) handle(body []byte) error {
	var ev TicketEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if ev.Type != EventTicketCreated || ev.Ticket == nil {
		return nil
	}

	t := ev.Ticket.ToModel()
	if err := c.tickets.Upsert(context.Background(), t); err != nil {
		return err
	}
	log.Printf("ingest: stored ticket %d", t.TicketID)
	return nil
}

// sleep waits for d unless Stop fires first; it reports whether the
// worker should keep running.
func (c *Consumer) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-c.stop:
		return false
	}
}
