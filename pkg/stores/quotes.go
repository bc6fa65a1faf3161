package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openjoinery/joinery/pkg/engine"
)

// CreateQuotation creates a new quotation record
func (s *SQLiteStore) CreateQuotation(ctx context.Context, q *Quotation) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = engine.QuotationDraft
	}
	if q.Currency == "" {
		q.Currency = "INR"
	}
	if q.VersionNo == 0 {
		q.VersionNo = 1
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now

	query := `
		INSERT INTO quotations (id, reference, version_no, status, currency, total_price, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		q.ID,
		q.Reference,
		q.VersionNo,
		string(q.Status),
		q.Currency,
		q.TotalPrice,
		q.Notes,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quotation: %w", err)
	}

	return nil
}

const quotationColumns = `id, reference, version_no, status, currency, total_price, notes, created_at, updated_at`

func scanQuotation(row rowScanner) (*Quotation, error) {
	q := &Quotation{}
	var status string
	err := row.Scan(
		&q.ID,
		&q.Reference,
		&q.VersionNo,
		&status,
		&q.Currency,
		&q.TotalPrice,
		&q.Notes,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	q.Status = engine.QuotationStatus(status)
	return q, nil
}

// GetQuotation retrieves a quotation by ID
func (s *SQLiteStore) GetQuotation(ctx context.Context, id string) (*Quotation, error) {
	q, err := scanQuotation(s.db.QueryRowContext(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("quotation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}
	return q, nil
}

// ListQuotations lists quotations with pagination, newest first
func (s *SQLiteStore) ListQuotations(ctx context.Context, limit, offset int) ([]*Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}
	defer rows.Close()

	quotes := []*Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotations: %w", err)
	}

	return quotes, nil
}

// UpdateQuotationStatus updates the status of a quotation
func (s *SQLiteStore) UpdateQuotationStatus(ctx context.Context, id string, status engine.QuotationStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE quotations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update quotation status: %w", err)
	}
	return checkAffected(result, "quotation", id)
}

// UpdateQuotationTotal stores a recomputed total price
func (s *SQLiteStore) UpdateQuotationTotal(ctx context.Context, id string, total float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE quotations SET total_price = ?, updated_at = ? WHERE id = ?`,
		total, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update quotation total: %w", err)
	}
	return checkAffected(result, "quotation", id)
}

// CreateQuoteItem adds an item to a quotation. The product is referenced by ID.
func (s *SQLiteStore) CreateQuoteItem(ctx context.Context, item *engine.QuoteItem) error {
	if item.Product == nil || item.Product.ID == "" {
		return fmt.Errorf("quote item requires a product")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	query := `
		INSERT INTO quote_items (id, quotation_id, product_id, quantity, width, height, depth,
			overrides, computed_price, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.QuotationID,
		item.Product.ID,
		item.Quantity,
		item.Width,
		item.Height,
		item.Depth,
		item.Overrides,
		item.ComputedPrice,
		item.Notes,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create quote item: %w", err)
	}

	return nil
}

const quoteItemSelect = `
	SELECT qi.id, qi.quotation_id, qi.quantity, qi.width, qi.height, qi.depth,
		   qi.overrides, qi.computed_price, qi.notes,
		   p.id, p.name, p.category, p.pricing_model, p.unit_rate, p.description,
		   t.id, t.code, t.name, t.category, t.description, t.version,
		   t.base_thickness, t.back_panel_thickness, t.plinth_height
	FROM quote_items qi
	JOIN products p ON p.id = qi.product_id
	LEFT JOIN templates t ON t.id = p.template_id
`

// scanQuoteItem reads the quote item columns and then the product and
// template columns in productSelect order.
func scanQuoteItem(row rowScanner) (*engine.QuoteItem, error) {
	item := &engine.QuoteItem{}
	var product productRow

	dest := []interface{}{
		&item.ID,
		&item.QuotationID,
		&item.Quantity,
		&item.Width,
		&item.Height,
		&item.Depth,
		&item.Overrides,
		&item.ComputedPrice,
		&item.Notes,
	}
	dest = append(dest, product.dest()...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	item.Product = product.build()
	return item, nil
}

// GetQuoteItem retrieves a quote item with its product and template
func (s *SQLiteStore) GetQuoteItem(ctx context.Context, id string) (*engine.QuoteItem, error) {
	item, err := scanQuoteItem(s.db.QueryRowContext(ctx, quoteItemSelect+` WHERE qi.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("quote item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote item: %w", err)
	}
	return item, nil
}

// UpdateQuoteItem updates quantity, dimensions, overrides, notes and price
func (s *SQLiteStore) UpdateQuoteItem(ctx context.Context, item *engine.QuoteItem) error {
	query := `
		UPDATE quote_items
		SET quantity = ?, width = ?, height = ?, depth = ?, overrides = ?, computed_price = ?, notes = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		item.Quantity,
		item.Width,
		item.Height,
		item.Depth,
		item.Overrides,
		item.ComputedPrice,
		item.Notes,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote item: %w", err)
	}
	return checkAffected(result, "quote item", item.ID)
}

// DeleteQuoteItem deletes a quote item and its cutlist
func (s *SQLiteStore) DeleteQuoteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quote_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote item: %w", err)
	}
	return checkAffected(result, "quote item", id)
}

// ListQuoteItems lists the items of a quotation in insertion order, each
// joined with its product and template.
func (s *SQLiteStore) ListQuoteItems(ctx context.Context, quotationID string) ([]*engine.QuoteItem, error) {
	rows, err := s.db.QueryContext(ctx, quoteItemSelect+` WHERE qi.quotation_id = ? ORDER BY qi.rowid`, quotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote items: %w", err)
	}
	defer rows.Close()

	items := []*engine.QuoteItem{}
	for rows.Next() {
		item, err := scanQuoteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote items: %w", err)
	}

	return items, nil
}
