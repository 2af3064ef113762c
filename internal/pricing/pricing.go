// Package pricing computes per-line VAT and subtotals plus aggregate
// totals for order and quotation line items. It is pure: the same
// input always yields the same totals, so recomputation on every edit
// is safe.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProduct marks a line item that cannot be priced: missing
// section or type, non-positive quantity, or a price that is not a
// finite non-negative number.
var ErrInvalidProduct = errors.New("invalid product")

// DefaultVATRate applies when no rate is configured.
const DefaultVATRate = 0.15

// Line is one raw product line as submitted by the caller.
type Line struct {
	Section     string
	Type        string
	Description string
	Quantity    int
	Price       float64
}

// PricedLine is a line with its derived tax amounts.
type PricedLine struct {
	Line
	VAT      float64
	Subtotal float64
}

// Totals are the aggregate amounts across a list of lines.
// Subtotal always equals Price + VAT.
type Totals struct {
	Price    float64
	VAT      float64
	Subtotal float64
}

// Calculator prices line items at a fixed VAT rate.
type Calculator struct {
	rate float64
}

// NewCalculator returns a calculator at the given VAT rate. Rates
// outside (0, 1] fall back to the default.
func NewCalculator(vatRate float64) *Calculator {
	if vatRate <= 0 || vatRate > 1 || math.IsNaN(vatRate) {
		vatRate = DefaultVATRate
	}
	return &Calculator{rate: vatRate}
}

// Rate returns the VAT rate in use.
func (c *Calculator) Rate() float64 {
	return c.rate
}

// PriceLine validates one line and computes its vat and subtotal.
// All arithmetic is float64; amounts like 19.99 carry the usual binary
// representation error, which stays consistent across recomputations.
func (c *Calculator) PriceLine(l Line) (PricedLine, error) {
	if err := validateLine(l); err != nil {
		return PricedLine{}, err
	}

	gross := l.Price * float64(l.Quantity)
	vat := gross * c.rate

	return PricedLine{
		Line:     l,
		VAT:      vat,
		Subtotal: gross + vat,
	}, nil
}

// PriceAll prices every line and folds the aggregate totals. The first
// invalid line aborts the whole computation.
func (c *Calculator) PriceAll(lines []Line) ([]PricedLine, Totals, error) {
	if len(lines) == 0 {
		return nil, Totals{}, fmt.Errorf("%w: no line items", ErrInvalidProduct)
	}

	priced := make([]PricedLine, 0, len(lines))
	var totals Totals

	for i, l := range lines {
		pl, err := c.PriceLine(l)
		if err != nil {
			return nil, Totals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		priced = append(priced, pl)
		totals.Price += l.Price * float64(l.Quantity)
		totals.VAT += pl.VAT
		totals.Subtotal += pl.Subtotal
	}

	return priced, totals, nil
}

func validateLine(l Line) error {
	if l.Section == "" {
		return fmt.Errorf("%w: missing section", ErrInvalidProduct)
	}
	if l.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidProduct)
	}
	if l.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidProduct)
	}
	if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price < 0 {
		return fmt.Errorf("%w: price must be a finite non-negative number", ErrInvalidProduct)
	}
	return nil
}
