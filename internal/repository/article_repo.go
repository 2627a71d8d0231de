package repository

import (
	"context"
	"database/sql"

	"github.com/BBlazev/OCUgRPC/internal/model"
)

// ArticleRepo provides access to the articles reference table.
type ArticleRepo struct {
	db *sql.DB
}

// NewArticleRepo returns a new ArticleRepo bound to the given database.
func NewArticleRepo(db *sql.DB) *ArticleRepo { return &ArticleRepo{db: db} }

// Insert appends one article row.  Like coupons, re-fetching inserts
// again; the feed is authoritative and rows are never edited locally.
func (r *ArticleRepo) Insert(ctx context.Context, a *model.Article) error {
	const q = `INSERT INTO articles (article_id, article_name, article_price) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.ArticleID, a.Name, a.Price)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByArticleID returns the article with the given central identifier,
// or ErrNotFound.
func (r *ArticleRepo) GetByArticleID(ctx context.Context, articleID int64) (*model.Article, error) {
	const q = `SELECT id, article_id, article_name, article_price FROM articles WHERE article_id = ? LIMIT 1`
	var a model.Article
	err := r.db.QueryRowContext(ctx, q, articleID).Scan(&a.ID, &a.ArticleID, &a.Name, &a.Price)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListForValidators returns the curated subset of articles a validator
// may sell: the five fare products matched by name pattern, in
// ascending article_id order.  The patterns mirror the central
// catalogue's naming and are fixed, not caller input.
func (r *ArticleRepo) ListForValidators(ctx context.Context) ([]model.Article, error) {
	const q = `SELECT article_id, article_name, article_price
		FROM articles
		WHERE article_name LIKE '%Dnevna karta%'
		   OR article_name LIKE '%Pojedinačna karta%30%minuta%'
		   OR article_name LIKE '%Pojedinačna karta%60%minuta%'
		   OR article_name LIKE '%Karte II zone%'
		   OR article_name LIKE '%Karta I zona%'
		ORDER BY article_id
		LIMIT 5`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ArticleID, &a.Name, &a.Price); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of article rows, for the ops stats endpoint.
func (r *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n)
	return n, err
}
