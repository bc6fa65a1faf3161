package quote

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/stores"
)

// DemoProduct is a catalogue entry created on an empty database.
type DemoProduct struct {
	Name         string
	Category     string
	PricingModel engine.PricingModel
	UnitRate     float64
	TemplateCode string
}

// DemoProducts are seeded when the product table is empty. Two use the
// builtin templates; the rest exercise the generic fallback part.
var DemoProducts = []DemoProduct{
	{Name: "Kitchen Base Cabinet", Category: "Kitchen", PricingModel: engine.PricingRunningFoot, UnitRate: 50, TemplateCode: "KITCHEN_BASE"},
	{Name: "2-Door Wardrobe", Category: "Wardrobe", PricingModel: engine.PricingArea, UnitRate: 0.002, TemplateCode: "WARDROBE_2_SPLIT"},
	{Name: "Kitchen Wall Cabinet", Category: "Kitchen", PricingModel: engine.PricingRunningFoot, UnitRate: 40},
	{Name: "TV Unit Base", Category: "Living", PricingModel: engine.PricingPerUnit, UnitRate: 15000},
	{Name: "Vanity", Category: "Bathroom", PricingModel: engine.PricingPerUnit, UnitRate: 8000},
}

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Templates []*engine.Template
	Products  int
}

// Seed saves defs, replacing templates with the same code, and creates the
// demo products if no product exists yet. It is safe to run repeatedly.
func Seed(ctx context.Context, store stores.Store, defs []*engine.Definition, logger zerolog.Logger) (*SeedResult, error) {
	result := &SeedResult{}
	byCode := make(map[string]*engine.Template, len(defs))

	for _, def := range defs {
		tmpl, err := store.SaveDefinition(ctx, def)
		if err != nil {
			return nil, fmt.Errorf("failed to seed template %s: %w", def.Template.Code, err)
		}
		byCode[tmpl.Code] = tmpl
		result.Templates = append(result.Templates, tmpl)

		logger.Debug().
			Str("template", tmpl.Code).
			Int("version", tmpl.Version).
			Msg("Template seeded")
	}

	count, err := store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		logger.Debug().Int("products", count).Msg("Products exist, skipping demo catalogue")
		return result, nil
	}

	for _, demo := range DemoProducts {
		product := &engine.Product{
			Name:         demo.Name,
			Category:     demo.Category,
			PricingModel: string(demo.PricingModel),
			UnitRate:     engine.Float(demo.UnitRate),
			Description:  "Seeded product",
		}
		if demo.TemplateCode != "" {
			tmpl, ok := byCode[demo.TemplateCode]
			if !ok {
				existing, err := store.GetTemplateByCode(ctx, demo.TemplateCode)
				if err != nil && !stores.IsNotFound(err) {
					return nil, err
				}
				tmpl = existing
			}
			product.Template = tmpl
		}

		if err := store.CreateProduct(ctx, product); err != nil {
			return nil, fmt.Errorf("failed to seed product %s: %w", demo.Name, err)
		}
		result.Products++
	}

	logger.Info().
		Int("templates", len(result.Templates)).
		Int("products", result.Products).
		Msg("Seeded catalogue")
	return result, nil
}
