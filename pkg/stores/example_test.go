package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	// Create store configuration
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            ":memory:", // Use in-memory database for example
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initialize the database connection
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_SaveDefinition demonstrates storing a template and
// reading it back as a definition.
func ExampleSQLiteStore_SaveDefinition() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	def := &engine.Definition{
		Template: engine.Template{Code: "OPEN_SHELF", Name: "Open Shelf Unit"},
		PartRules: []engine.PartRule{
			{PartName: "Side", WidthExpr: "D", HeightExpr: "H", QtyExpr: "2", Order: 1},
			{PartName: "Shelf", WidthExpr: "W - 2*T", HeightExpr: "D", QtyExpr: "3", Order: 2},
		},
	}
	if _, err := store.SaveDefinition(ctx, def); err != nil {
		log.Fatal(err)
	}

	loaded, err := store.LoadDefinition(ctx, "OPEN_SHELF")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s v%d with %d part rules\n", loaded.Template.Code, loaded.Template.Version, len(loaded.PartRules))
	// Output: OPEN_SHELF v1 with 2 part rules
}

// ExampleSQLiteStore_ReplaceCutlist demonstrates persisting generated parts
// for a quote item.
func ExampleSQLiteStore_ReplaceCutlist() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	product := &engine.Product{Name: "Vanity", PricingModel: "PER_UNIT", UnitRate: engine.Float(8000)}
	_ = store.CreateProduct(ctx, product)

	quote := &stores.Quotation{Reference: "Example"}
	_ = store.CreateQuotation(ctx, quote)

	item := &engine.QuoteItem{QuotationID: quote.ID, Product: product, Quantity: 1}
	_ = store.CreateQuoteItem(ctx, item)

	parts := []engine.PartDescriptor{
		{PartName: "Vanity", PartType: engine.PartTypeGeneric, Width: 800, Height: 600, Thickness: 18, Quantity: 1},
	}
	if _, err := store.ReplaceCutlist(ctx, quote.ID, item.ID, parts); err != nil {
		log.Fatal(err)
	}

	cutlist, _ := store.ListCutlist(ctx, quote.ID)
	for _, c := range cutlist {
		fmt.Printf("%d. %s %gx%gx%g\n", c.Position, c.PartName, c.Width, c.Height, c.Thickness)
	}
	// Output: 1. Vanity 800x600x18
}
