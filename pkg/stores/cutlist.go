package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openjoinery/joinery/pkg/engine"
)

// ReplaceCutlist atomically swaps the cutlist of one quote item for parts.
// Either every previous row is removed and every new row inserted, or
// nothing changes.
func (s *SQLiteStore) ReplaceCutlist(ctx context.Context, quotationID, quoteItemID string, parts []engine.PartDescriptor) ([]*CutlistItem, error) {
	now := time.Now().UTC()
	items := make([]*CutlistItem, 0, len(parts))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cutlist_items WHERE quote_item_id = ?`, quoteItemID); err != nil {
			return fmt.Errorf("failed to clear cutlist: %w", err)
		}

		query := `
			INSERT INTO cutlist_items (id, quotation_id, quote_item_id, position, part_name, part_type,
				cut_width, cut_height, thickness, quantity, material_type, edge_banding, grain_direction, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		for i, part := range parts {
			item := &CutlistItem{
				ID:             uuid.New().String(),
				QuotationID:    quotationID,
				QuoteItemID:    quoteItemID,
				Position:       i + 1,
				CreatedAt:      now,
				PartDescriptor: part,
			}

			_, err := tx.ExecContext(ctx, query,
				item.ID,
				item.QuotationID,
				item.QuoteItemID,
				item.Position,
				part.PartName,
				part.PartType,
				part.Width,
				part.Height,
				part.Thickness,
				part.Quantity,
				part.MaterialType,
				part.EdgeBanding,
				part.GrainDirection,
				item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create cutlist item %q: %w", part.PartName, err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// ListCutlist lists the cutlist of a quotation, grouped by quote item in
// insertion order and then by part position.
func (s *SQLiteStore) ListCutlist(ctx context.Context, quotationID string) ([]*CutlistItem, error) {
	query := `
		SELECT c.id, c.quotation_id, c.quote_item_id, c.position, c.part_name, c.part_type,
			   c.cut_width, c.cut_height, c.thickness, c.quantity,
			   c.material_type, c.edge_banding, c.grain_direction, c.created_at
		FROM cutlist_items c
		JOIN quote_items qi ON qi.id = c.quote_item_id
		WHERE c.quotation_id = ?
		ORDER BY qi.rowid, c.position
	`

	rows, err := s.db.QueryContext(ctx, query, quotationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cutlist: %w", err)
	}
	defer rows.Close()

	items := []*CutlistItem{}
	for rows.Next() {
		c := &CutlistItem{}
		err := rows.Scan(
			&c.ID,
			&c.QuotationID,
			&c.QuoteItemID,
			&c.Position,
			&c.PartName,
			&c.PartType,
			&c.Width,
			&c.Height,
			&c.Thickness,
			&c.Quantity,
			&c.MaterialType,
			&c.EdgeBanding,
			&c.GrainDirection,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cutlist item: %w", err)
		}
		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cutlist: %w", err)
	}

	return items, nil
}
