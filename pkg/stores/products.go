package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openjoinery/joinery/pkg/engine"
)

const productSelect = `
	SELECT p.id, p.name, p.category, p.pricing_model, p.unit_rate, p.description,
		   t.id, t.code, t.name, t.category, t.description, t.version,
		   t.base_thickness, t.back_panel_thickness, t.plinth_height
	FROM products p
	LEFT JOIN templates t ON t.id = p.template_id
`

// productRow holds the scan targets of one product and its optional template.
type productRow struct {
	p engine.Product

	tID, tCode, tName, tCategory, tDescription sql.NullString
	tVersion                                   sql.NullInt64
	base, back, plinth                         *float64
}

func (r *productRow) dest() []interface{} {
	return []interface{}{
		&r.p.ID,
		&r.p.Name,
		&r.p.Category,
		&r.p.PricingModel,
		&r.p.UnitRate,
		&r.p.Description,
		&r.tID,
		&r.tCode,
		&r.tName,
		&r.tCategory,
		&r.tDescription,
		&r.tVersion,
		&r.base,
		&r.back,
		&r.plinth,
	}
}

func (r *productRow) build() *engine.Product {
	p := r.p
	if r.tID.Valid {
		p.Template = &engine.Template{
			ID:                 r.tID.String,
			Code:               r.tCode.String,
			Name:               r.tName.String,
			Category:           r.tCategory.String,
			Description:        r.tDescription.String,
			Version:            int(r.tVersion.Int64),
			BaseThickness:      r.base,
			BackPanelThickness: r.back,
			PlinthHeight:       r.plinth,
		}
	}
	return &p
}

func scanProduct(row rowScanner) (*engine.Product, error) {
	var r productRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.build(), nil
}

// CreateProduct creates a catalogue product. The template, if any, is
// referenced by ID.
func (s *SQLiteStore) CreateProduct(ctx context.Context, product *engine.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	var templateID string
	if product.Template != nil {
		templateID = product.Template.ID
	}

	query := `
		INSERT INTO products (id, name, category, pricing_model, unit_rate, description, template_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		string(engine.ParsePricingModel(product.PricingModel)),
		product.UnitRate,
		product.Description,
		nullString(templateID),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetProduct retrieves a product with its template
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*engine.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetProductByName retrieves a product by its unique name
func (s *SQLiteStore) GetProductByName(ctx context.Context, name string) (*engine.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, productSelect+` WHERE p.name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, notFound("product", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListProducts lists the catalogue ordered by category and name
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]*engine.Product, error) {
	rows, err := s.db.QueryContext(ctx, productSelect+` ORDER BY p.category, p.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*engine.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// CountProducts returns the number of catalogue products
func (s *SQLiteStore) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
