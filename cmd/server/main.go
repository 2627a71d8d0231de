// Command server is the validator backend: a TCP command endpoint for
// field validators plus a background client keeping the local ticket
// replica in sync with the central ticketing system.
//
// Usage:
//
//	server server [tcp_port] [sync_url]   start TCP listener + ingestion client
//	server fetch coupons|articles         bulk-load reference data from the REST API
//	server validate <card_number>         offline card check against the local store
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BBlazev/OCUgRPC/internal/cache"
	"github.com/BBlazev/OCUgRPC/internal/config"
	"github.com/BBlazev/OCUgRPC/internal/database"
	"github.com/BBlazev/OCUgRPC/internal/fetcher"
	"github.com/BBlazev/OCUgRPC/internal/handler"
	"github.com/BBlazev/OCUgRPC/internal/ingest"
	"github.com/BBlazev/OCUgRPC/internal/repository"
	"github.com/BBlazev/OCUgRPC/internal/router"
	"github.com/BBlazev/OCUgRPC/internal/server"
	"github.com/BBlazev/OCUgRPC/internal/validity"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  %[1]s server [tcp_port] [sync_url]   start the validator service
  %[1]s fetch coupons|articles         fetch reference data from the REST API
  %[1]s validate <card_number>         validate a card against the local store
`, os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "server":
		runServer(cfg, db, os.Args[2:])
	case "fetch":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		runFetch(cfg, db, os.Args[2])
	case "validate":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		runValidate(db, os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// runServer starts the ingestion client, the validator TCP listener and
// the optional ops API, then blocks until a shutdown signal.  Shutdown
// order: ingestion first (no ticket write may race the exit), then the
// listener (in-flight sessions finish their reply), then the ops server.
func runServer(cfg config.Config, db *sql.DB, args []string) {
	tcpPort := cfg.TCPPort
	if len(args) >= 1 {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("invalid tcp port %q", args[0])
		}
		tcpPort = p
	}
	syncURL := cfg.SyncURL
	if len(args) >= 2 {
		syncURL = args[1]
	}

	coupons := repository.NewCouponRepo(db)
	articles := repository.NewArticleRepo(db)
	tickets := repository.NewTicketRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	validations := repository.NewValidationRepo(db)

	articleCache := cache.NewArticleCache(config.NewRedisClient(), 30*time.Second)

	consumer := ingest.NewConsumer(syncURL, tickets)
	consumer.Start()

	srv := server.New(&server.SessionHandler{
		Coupons:     coupons,
		Articles:    articles,
		Tickets:     tickets,
		Purchases:   purchases,
		Validations: validations,
		Cache:       articleCache,
		Clock:       validity.SystemClock{},
	})
	if err := srv.Listen(fmt.Sprintf(":%d", tcpPort)); err != nil {
		consumer.Stop()
		log.Fatalf("start listener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Printf("server: serve: %v", err)
		}
	}()

	var ops *echo.Echo
	if cfg.OpsPort != "" {
		ops = echo.New()
		ops.HideBanner = true
		router.RegisterRoutes(ops, &handler.OpsHandler{
			Coupons:     coupons,
			Articles:    articles,
			Tickets:     tickets,
			Purchases:   purchases,
			Validations: validations,
			Fetcher:     &fetcher.Fetcher{Coupons: coupons, Articles: articles},
			Cache:       articleCache,
			Ingest:      consumer,

			CouponEndpoint:   cfg.CouponEndpoint,
			ArticlesEndpoint: cfg.ArticlesEndpoint,
		})
		go func() {
			if err := ops.Start("localhost:" + cfg.OpsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("ops: %v", err)
			}
		}()
	}

	log.Printf("all services started (env=%s, tcp=%d, sync=%s)", cfg.Env, tcpPort, syncURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Printf("received %s, shutting down", s)

	consumer.Stop()
	srv.Stop()
	if ops != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Printf("ops: shutdown: %v", err)
		}
	}
	log.Printf("all services stopped")
}

// runFetch bulk-loads one reference-data set from the central REST API.
func runFetch(cfg config.Config, db *sql.DB, what string) {
	f := &fetcher.Fetcher{
		Coupons:  repository.NewCouponRepo(db),
		Articles: repository.NewArticleRepo(db),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		n   int
		err error
	)
	switch what {
	case "coupon", "coupons":
		n, err = f.FetchCoupons(ctx, cfg.CouponEndpoint)
	case "article", "articles":
		n, err = f.FetchArticles(ctx, cfg.ArticlesEndpoint)
	default:
		fmt.Fprintf(os.Stderr, "unknown fetch type: %s\n", what)
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("fetch %s: %v", what, err)
	}
	log.Printf("inserted %d %s", n, what)
}

// runValidate checks a card against the local store and prints every
// coupon bound to it.  The exit status reflects what a validator would
// be told: zero when any coupon's window contains now, one otherwise.
func runValidate(db *sql.DB, cardNumber string) {
	coupons := repository.NewCouponRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	all, err := coupons.ListByCard(ctx, cardNumber)
	if err != nil || len(all) == 0 {
		fmt.Println("INVALID or EXPIRED")
		os.Exit(1)
	}

	now := validity.SystemClock{}.Now()
	anyValid := false
	for _, c := range all {
		status := "EXPIRED"
		if validity.WindowContains(c.ValidFrom, c.ValidTo, now) {
			status = "VALID"
			anyValid = true
		}
		fmt.Printf("%s - Coupon ID: %d\n", status, c.CouponID)
		fmt.Printf("  Customer ID: %d\n", c.CustomerID)
		fmt.Printf("  Valid From: %s\n", c.ValidFrom)
		fmt.Printf("  Valid To: %s\n", c.ValidTo)
	}
	if !anyValid {
		os.Exit(1)
	}
}
