// Package compute holds the pure invoice arithmetic: totals, line items,
// numbering and status rules. Nothing here touches the cache or the store.
package compute

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
)

var (
	DefaultFederalRate    = decimal.RequireFromString("0.05")
	DefaultProvincialRate = decimal.RequireFromString("0.09975")
)

// Totals are the monetary fields persisted on an invoice.
type Totals struct {
	Subtotal      decimal.Decimal
	FederalTax    decimal.Decimal
	ProvincialTax decimal.Decimal
	Total         decimal.Decimal
}

// ComputeTotals applies each enabled tax to subtotal. Amounts are not rounded.
func ComputeTotals(subtotal decimal.Decimal, applyFederal, applyProvincial bool, federalRate, provincialRate decimal.Decimal) Totals {
	t := Totals{
		Subtotal:      subtotal,
		FederalTax:    decimal.Zero,
		ProvincialTax: decimal.Zero,
	}
	if applyFederal {
		t.FederalTax = subtotal.Mul(federalRate)
	}
	if applyProvincial {
		t.ProvincialTax = subtotal.Mul(provincialRate)
	}
	t.Total = subtotal.Add(t.FederalTax).Add(t.ProvincialTax)
	return t
}

// RatesOrDefault returns the team's tax rates, substituting fallback for an
// unset (zero) rate. Zero fallbacks resolve to the package defaults.
func RatesOrDefault(team entity.Team, fallbackFederal, fallbackProvincial decimal.Decimal) (federal, provincial decimal.Decimal) {
	if fallbackFederal.IsZero() {
		fallbackFederal = DefaultFederalRate
	}
	if fallbackProvincial.IsZero() {
		fallbackProvincial = DefaultProvincialRate
	}

	federal, provincial = team.FederalTaxRate, team.ProvincialTaxRate
	if federal.IsZero() {
		federal = fallbackFederal
	}
	if provincial.IsZero() {
		provincial = fallbackProvincial
	}
	return federal, provincial
}

// Line is a line item as entered, before it is persisted.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

func (l Line) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

func (l Line) blank() bool {
	return strings.TrimSpace(l.Description) == ""
}

// Subtotal sums quantity times rate over every line, blank descriptions
// included.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// PersistableLines drops lines without a description and numbers the rest
// by position. IDs and ownership are left to the caller.
func PersistableLines(lines []Line) []entity.InvoiceLineItem {
	out := make([]entity.InvoiceLineItem, 0, len(lines))
	for _, l := range lines {
		if l.blank() {
			continue
		}
		out = append(out, entity.InvoiceLineItem{
			Description: strings.TrimSpace(l.Description),
			Quantity:    l.Quantity,
			Rate:        l.Rate,
			Amount:      l.Amount(),
			SortOrder:   len(out),
		})
	}
	return out
}

// LinesOf converts stored line items back into editable lines.
func LinesOf(items []entity.InvoiceLineItem) []Line {
	out := make([]Line, 0, len(items))
	for _, item := range items {
		out = append(out, Line{Description: item.Description, Quantity: item.Quantity, Rate: item.Rate})
	}
	return out
}
