package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/linkrank/internal/model"
)

// UpsertDocument inserts or replaces a crawled document.
// The stored outbound links are replaced by the document's links.
func (rdb *RankDB) UpsertDocument(ctx context.Context, doc model.CrawledDocument) error {
	return rdb.UpsertDocuments(ctx, []model.CrawledDocument{doc})
}

// UpsertDocuments inserts or replaces documents in a single transaction.
// Either every document is stored or none is. Records in docs that share
// a URL are merged first, so the stored page links to the union of their
// targets, as the link graph would.
func (rdb *RankDB) UpsertDocuments(ctx context.Context, docs []model.CrawledDocument) error {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	docQuery := `
	INSERT INTO documents (url, title, text, source)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		text = excluded.text,
		source = excluded.source,
		imported_at = CURRENT_TIMESTAMP
	`

	for _, doc := range model.MergeDocuments(docs) {
		if !doc.HasURL() {
			return rollback(tx, fmt.Errorf("cannot store document without url (source %q)", doc.Source))
		}

		if _, err := tx.ExecContext(ctx, docQuery, doc.URL, doc.Title, doc.Text, doc.Source); err != nil {
			return rollback(tx, fmt.Errorf("failed to upsert document %s: %w", doc.URL, err))
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM links WHERE source_url = ?", doc.URL); err != nil {
			return rollback(tx, fmt.Errorf("failed to clear links of %s: %w", doc.URL, err))
		}

		for pos, target := range doc.OutboundLinks {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO links (source_url, position, target_url) VALUES (?, ?, ?)",
				doc.URL, pos, target,
			); err != nil {
				return rollback(tx, fmt.Errorf("failed to insert link of %s: %w", doc.URL, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by URL. It returns nil when the URL is unknown.
func (rdb *RankDB) GetDocument(ctx context.Context, url string) (*model.CrawledDocument, error) {
	query := `
	SELECT url, title, text, source FROM documents
	WHERE url = ?
	`

	var doc model.CrawledDocument
	var title, text, source sql.NullString
	err := rdb.db.QueryRowContext(ctx, query, url).Scan(&doc.URL, &title, &text, &source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.Title = title.String
	doc.Text = text.String
	doc.Source = source.String

	links, err := rdb.outboundLinks(ctx, url)
	if err != nil {
		return nil, err
	}
	doc.OutboundLinks = links

	return &doc, nil
}

// ListDocuments returns every stored document ordered by URL.
func (rdb *RankDB) ListDocuments(ctx context.Context) ([]model.CrawledDocument, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT url, title, text, source FROM documents
	ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.CrawledDocument
	index := make(map[string]int)
	for rows.Next() {
		var doc model.CrawledDocument
		var title, text, source sql.NullString
		if err := rows.Scan(&doc.URL, &title, &text, &source); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Title = title.String
		doc.Text = text.String
		doc.Source = source.String
		index[doc.URL] = len(docs)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	linkRows, err := rdb.db.QueryContext(ctx, `
	SELECT source_url, target_url FROM links
	ORDER BY source_url, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var src, dst string
		if err := linkRows.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if i, ok := index[src]; ok {
			docs[i].OutboundLinks = append(docs[i].OutboundLinks, dst)
		}
	}

	return docs, linkRows.Err()
}

// CountDocuments returns the number of stored documents.
func (rdb *RankDB) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := rdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// InboundLinks returns the distinct URLs of stored documents that link to url.
func (rdb *RankDB) InboundLinks(ctx context.Context, url string) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT DISTINCT source_url FROM links
	WHERE target_url = ?
	ORDER BY source_url
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbound links: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("failed to scan inbound link: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// outboundLinks returns the stored links of url in crawl order.
func (rdb *RankDB) outboundLinks(ctx context.Context, url string) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT target_url FROM links
	WHERE source_url = ?
	ORDER BY position
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var dst string
		if err := rows.Scan(&dst); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, dst)
	}
	return links, rows.Err()
}
