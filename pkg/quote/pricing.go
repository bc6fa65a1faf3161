package quote

import (
	"github.com/openjoinery/joinery/pkg/engine"
)

// Price computes a line price from a pricing model, a unit rate, the item
// dimensions in millimetres and a quantity.
//
//	VOLUME      rate * H * W * D * qty
//	AREA        rate * H * W * qty
//	RUNNING_FT  rate * W * qty
//	PER_UNIT    rate * qty
func Price(model engine.PricingModel, rate, width, height, depth float64, qty int) float64 {
	q := float64(qty)
	switch model {
	case engine.PricingVolume:
		return rate * height * width * depth * q
	case engine.PricingArea:
		return rate * height * width * q
	case engine.PricingRunningFoot:
		return rate * width * q
	default:
		return rate * q
	}
}

// PriceItem prices a quote item from its product. Missing dimensions count
// as zero, a missing rate as zero and a non-positive quantity as one.
func PriceItem(item *engine.QuoteItem) float64 {
	if item == nil || item.Product == nil {
		return 0
	}
	p := item.Product

	return Price(
		engine.ParsePricingModel(p.PricingModel),
		valueOr(p.UnitRate, 0),
		valueOr(item.Width, 0),
		valueOr(item.Height, 0),
		valueOr(item.Depth, 0),
		quantityOf(item),
	)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func quantityOf(item *engine.QuoteItem) int {
	if item.Quantity <= 0 {
		return 1
	}
	return item.Quantity
}
