package quote_test

import (
	"fmt"

	"github.com/openjoinery/joinery/pkg/engine"
	"github.com/openjoinery/joinery/pkg/quote"
)

func ExamplePrice() {
	// A 900mm kitchen base run at 50 per mm.
	fmt.Println(quote.Price(engine.PricingRunningFoot, 50, 900, 720, 560, 1))

	// Two vanities at a flat rate.
	fmt.Println(quote.Price(engine.PricingPerUnit, 8000, 800, 600, 450, 2))

	// Output:
	// 45000
	// 16000
}

func ExampleSummarize() {
	parts := []engine.PartDescriptor{
		{PartName: "Side Panel", Width: 560, Height: 2100, Thickness: 18, Quantity: 2, MaterialType: "18mm Plywood"},
		{PartName: "Back Panel", Width: 1200, Height: 2100, Thickness: 6, Quantity: 1, MaterialType: "6mm Back Panel"},
	}

	summary := quote.Summarize(parts, quote.DefaultSheetWidth, quote.DefaultSheetHeight)
	fmt.Printf("%d pieces on %d sheets\n", summary.Pieces, summary.Sheets)
	for _, m := range summary.Materials {
		fmt.Printf("%s: %d pieces, %d sheets\n", m.Material, m.Pieces, m.Sheets)
	}

	// Output:
	// 3 pieces on 2 sheets
	// 18mm Plywood: 2 pieces, 1 sheets
	// 6mm Back Panel: 1 pieces, 1 sheets
}

func ExampleFallbackPart() {
	item := engine.QuoteItem{
		Product:  &engine.Product{Name: "TV Unit Base"},
		Quantity: 1,
		Width:    engine.Float(1800),
		Height:   engine.Float(450),
		Depth:    engine.Float(400),
	}

	p := quote.FallbackPart(&item)
	fmt.Printf("%s %s %.0fx%.0fx%.0f qty %d\n", p.PartName, p.PartType, p.Width, p.Height, p.Thickness, p.Quantity)

	// Output:
	// TV Unit Base GENERIC 1800x450x400 qty 1
}
