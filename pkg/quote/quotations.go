package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/stores"
)

// NewQuotation describes a quotation to create.
type NewQuotation struct {
	Reference string
	Currency  string
	Notes     string
}

// ItemInput describes a product line to add to a quotation. The product is
// found by ProductID, or by ProductName when the ID is empty.
type ItemInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	Width       *float64
	Height      *float64
	Depth       *float64
	Overrides   string
	Notes       string
}

// ItemUpdate changes the non-nil fields of a quote item.
type ItemUpdate struct {
	Quantity  *int
	Width     *float64
	Height    *float64
	Depth     *float64
	Overrides *string
	Notes     *string
}

// CreateQuotation creates a draft quotation. A reference is generated when
// none is given.
func (s *Service) CreateQuotation(ctx context.Context, in NewQuotation) (*stores.Quotation, error) {
	ref := strings.TrimSpace(in.Reference)
	if ref == "" {
		ref = "Q-" + strings.ToUpper(uuid.New().String()[:8])
	}

	q := &stores.Quotation{
		Reference: ref,
		Status:    engine.QuotationDraft,
		Currency:  in.Currency,
		Notes:     in.Notes,
	}
	if err := s.store.CreateQuotation(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("quotation_id", q.ID).
		Str("reference", q.Reference).
		Msg("Quotation created")
	return q, nil
}

// AddItem prices a new line and adds it to a draft quotation.
func (s *Service) AddItem(ctx context.Context, quotationID string, in ItemInput) (*engine.QuoteItem, error) {
	if _, err := s.draft(ctx, quotationID); err != nil {
		return nil, err
	}

	product, err := s.product(ctx, in)
	if err != nil {
		return nil, err
	}

	item := &engine.QuoteItem{
		QuotationID: quotationID,
		Product:     product,
		Quantity:    in.Quantity,
		Width:       in.Width,
		Height:      in.Height,
		Depth:       in.Depth,
		Overrides:   in.Overrides,
		Notes:       in.Notes,
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	item.ComputedPrice = PriceItem(item)

	if err := s.store.CreateQuoteItem(ctx, item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotal(ctx, quotationID); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("quotation_id", quotationID).
		Str("quote_item_id", item.ID).
		Str("product", product.Name).
		Float64("price", item.ComputedPrice).
		Msg("Quote item added")
	return item, nil
}

// UpdateItem applies upd to an item of a draft quotation and reprices it.
func (s *Service) UpdateItem(ctx context.Context, itemID string, upd ItemUpdate) (*engine.QuoteItem, error) {
	item, err := s.store.GetQuoteItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.draft(ctx, item.QuotationID); err != nil {
		return nil, err
	}

	if upd.Quantity != nil {
		item.Quantity = *upd.Quantity
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
	}
	if upd.Width != nil {
		item.Width = upd.Width
	}
	if upd.Height != nil {
		item.Height = upd.Height
	}
	if upd.Depth != nil {
		item.Depth = upd.Depth
	}
	if upd.Overrides != nil {
		item.Overrides = *upd.Overrides
	}
	if upd.Notes != nil {
		item.Notes = *upd.Notes
	}
	item.ComputedPrice = PriceItem(item)

	if err := s.store.UpdateQuoteItem(ctx, item); err != nil {
		return nil, err
	}
	if err := s.recalculateTotal(ctx, item.QuotationID); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item, and its cutlist, from a draft quotation.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	item, err := s.store.GetQuoteItem(ctx, itemID)
	if err != nil {
		return err
	}
	if _, err := s.draft(ctx, item.QuotationID); err != nil {
		return err
	}

	if err := s.store.DeleteQuoteItem(ctx, itemID); err != nil {
		return err
	}
	return s.recalculateTotal(ctx, item.QuotationID)
}

// Submit freezes a draft quotation.
func (s *Service) Submit(ctx context.Context, quotationID string) (*stores.Quotation, error) {
	q, err := s.draft(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuotationStatus(ctx, quotationID, engine.QuotationSubmitted); err != nil {
		return nil, err
	}
	q.Status = engine.QuotationSubmitted

	s.logger.Info().Str("quotation_id", quotationID).Msg("Quotation submitted")
	return q, nil
}

// Quotation returns a quotation by ID.
func (s *Service) Quotation(ctx context.Context, quotationID string) (*stores.Quotation, error) {
	return s.store.GetQuotation(ctx, quotationID)
}

// Items lists the items of a quotation in insertion order.
func (s *Service) Items(ctx context.Context, quotationID string) ([]*engine.QuoteItem, error) {
	return s.store.ListQuoteItems(ctx, quotationID)
}

// Cutlist lists the stored cutlist of a quotation.
func (s *Service) Cutlist(ctx context.Context, quotationID string) ([]*stores.CutlistItem, error) {
	return s.store.ListCutlist(ctx, quotationID)
}

func (s *Service) draft(ctx context.Context, quotationID string) (*stores.Quotation, error) {
	q, err := s.store.GetQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if !q.Status.IsDraft() {
		return nil, fmt.Errorf("quotation %s is %s: %w", q.Reference, q.Status, ErrNotDraft)
	}
	return q, nil
}

func (s *Service) product(ctx context.Context, in ItemInput) (*engine.Product, error) {
	switch {
	case in.ProductID != "":
		return s.store.GetProduct(ctx, in.ProductID)
	case in.ProductName != "":
		return s.store.GetProductByName(ctx, in.ProductName)
	default:
		return nil, fmt.Errorf("quote item requires a product")
	}
}

func (s *Service) recalculateTotal(ctx context.Context, quotationID string) error {
	items, err := s.store.ListQuoteItems(ctx, quotationID)
	if err != nil {
		return err
	}

	var total float64
	for _, item := range items {
		total += item.ComputedPrice
	}
	return s.store.UpdateQuotationTotal(ctx, quotationID, total)
}
