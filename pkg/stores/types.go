package stores

import (
	"context"
	"database/sql"
	"time"

	"github.com/openjoinery/joinery/pkg/engine"
)

// Quotation is a priced collection of quote items.
type Quotation struct {
	ID         string                 `json:"id"`
	Reference  string                 `json:"reference"`
	VersionNo  int                    `json:"version_no"`
	Status     engine.QuotationStatus `json:"status"`
	Currency   string                 `json:"currency"`
	TotalPrice float64                `json:"total_price"`
	Notes      string                 `json:"notes,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// CutlistItem is a persisted part descriptor.
type CutlistItem struct {
	ID          string    `json:"id"`
	QuotationID string    `json:"quotation_id"`
	QuoteItemID string    `json:"quote_item_id"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`

	engine.PartDescriptor
}

// Store defines the interface for the persistence layer
type Store interface {
	engine.TemplateDefinitionProvider

	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Template operations
	SaveDefinition(ctx context.Context, def *engine.Definition) (*engine.Template, error)
	GetTemplate(ctx context.Context, id string) (*engine.Template, error)
	GetTemplateByCode(ctx context.Context, code string) (*engine.Template, error)
	ListTemplates(ctx context.Context) ([]*engine.Template, error)
	LoadDefinition(ctx context.Context, code string) (*engine.Definition, error)
	DeleteTemplate(ctx context.Context, id string) error

	// Product operations
	CreateProduct(ctx context.Context, product *engine.Product) error
	GetProduct(ctx context.Context, id string) (*engine.Product, error)
	GetProductByName(ctx context.Context, name string) (*engine.Product, error)
	ListProducts(ctx context.Context) ([]*engine.Product, error)
	CountProducts(ctx context.Context) (int, error)

	// Quotation operations
	CreateQuotation(ctx context.Context, q *Quotation) error
	GetQuotation(ctx context.Context, id string) (*Quotation, error)
	ListQuotations(ctx context.Context, limit, offset int) ([]*Quotation, error)
	UpdateQuotationStatus(ctx context.Context, id string, status engine.QuotationStatus) error
	UpdateQuotationTotal(ctx context.Context, id string, total float64) error

	// Quote item operations
	CreateQuoteItem(ctx context.Context, item *engine.QuoteItem) error
	GetQuoteItem(ctx context.Context, id string) (*engine.QuoteItem, error)
	UpdateQuoteItem(ctx context.Context, item *engine.QuoteItem) error
	DeleteQuoteItem(ctx context.Context, id string) error
	ListQuoteItems(ctx context.Context, quotationID string) ([]*engine.QuoteItem, error)

	// Cutlist operations
	ReplaceCutlist(ctx context.Context, quotationID, quoteItemID string, parts []engine.PartDescriptor) ([]*CutlistItem, error)
	ListCutlist(ctx context.Context, quotationID string) ([]*CutlistItem, error)

	// Utility
	HealthCheck(ctx context.Context) error
}

var _ Store = (*SQLiteStore)(nil)
