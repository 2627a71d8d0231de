// Package fetcher pulls coupon and article reference data from the
// central REST API and inserts it into the local store.  Fetches are
// out-of-band bulk loads: parse a JSON array, insert row by row, skip
// malformed elements.  Re-fetching appends; rows are never upserted.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/BBlazev/OCUgRPC/internal/model"
	"github.com/BBlazev/OCUgRPC/internal/repository"
)

// httpTimeout bounds one fetch round trip against the central API.
const httpTimeout = 5 * time.Second

// Fetcher loads reference data over HTTP into the repositories.
type Fetcher struct {
	Coupons  *repository.CouponRepo
	Articles *repository.ArticleRepo
	Client   *http.Client // defaults to a 5s-timeout client when nil
}

// wireCoupon mirrors the central API's coupon JSON.
type wireCoupon struct {
	ID               int64   `json:"id"`
	CustomerID       int64   `json:"customerId"`
	CardID           *int64  `json:"cardId"`
	CardNumber       string  `json:"cardNumber"`
	ValidFrom        string  `json:"validFrom"`
	ValidTo          string  `json:"validTo"`
	TrafficAreaGroup string  `json:"trafficAreaGroup"`
}

// wireArticle mirrors the central API's article JSON.
type wireArticle struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FetchCoupons GETs the coupon endpoint and inserts every element of
// the returned array.  Returns the number of rows inserted.
func (f *Fetcher) FetchCoupons(ctx context.Context, endpoint string) (int, error) {
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	var items []wireCoupon
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, fmt.Errorf("parse coupons: %w", err)
	}
	log.Printf("fetcher: parsed %d coupons", len(items))

	inserted := 0
	for _, item := range items {
		c := model.Coupon{
			CouponID:         item.ID,
			CustomerID:       item.CustomerID,
			CardID:           item.CardID,
			CardNumber:       item.CardNumber,
			ValidFrom:        item.ValidFrom,
			ValidTo:          item.ValidTo,
			TrafficAreaGroup: item.TrafficAreaGroup,
		}
		if err := f.Coupons.Insert(ctx, &c); err != nil {
			log.Printf("fetcher: insert coupon %d: %v", item.ID, err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// FetchArticles GETs the article endpoint and inserts every element of
// the returned array.  Returns the number of rows inserted.
func (f *Fetcher) FetchArticles(ctx context.Context, endpoint string) (int, error) {
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	var items []wireArticle
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, fmt.Errorf("parse articles: %w", err)
	}
	log.Printf("fetcher: parsed %d articles", len(items))

	inserted := 0
	for _, item := range items {
		a := model.Article{ArticleID: item.ID, Name: item.Name, Price: item.Price}
		if err := f.Articles.Insert(ctx, &a); err != nil {
			log.Printf("fetcher: insert article %d: %v", item.ID, err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// get performs one GET and returns the body of a 200 response.
func (f *Fetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
