package compute

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotalsIsLinear(t *testing.T) {
	rA, rB := d("0.05"), d("0.09975")
	for _, s := range []string{"0", "1", "99.99", "1000", "12345.678"} {
		for _, applyA := range []bool{false, true} {
			for _, applyB := range []bool{false, true} {
				subtotal := d(s)
				got := ComputeTotals(subtotal, applyA, applyB, rA, rB)

				factor := decimal.NewFromInt(1)
				if applyA {
					factor = factor.Add(rA)
				}
				if applyB {
					factor = factor.Add(rB)
				}
				assert.Truef(t, got.Total.Equal(subtotal.Mul(factor)), "subtotal %s applyA %v applyB %v: %s", s, applyA, applyB, got.Total)
			}
		}
	}
}

func TestComputeTotalsZero(t *testing.T) {
	got := ComputeTotals(decimal.Zero, true, true, d("0.05"), d("0.09975"))
	assert.True(t, got.FederalTax.IsZero())
	assert.True(t, got.ProvincialTax.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotalsQuebecExample(t *testing.T) {
	lines := []Line{{Description: "Design", Quantity: d("10"), Rate: d("100")}}
	got := ComputeTotals(Subtotal(lines), true, true, DefaultFederalRate, DefaultProvincialRate)

	assert.Equal(t, "1000", got.Subtotal.String())
	assert.Equal(t, "50", got.FederalTax.String())
	assert.Equal(t, "99.75", got.ProvincialTax.String())
	assert.Equal(t, "1149.75", got.Total.String())
}

func TestRatesOrDefault(t *testing.T) {
	fed, prov := RatesOrDefault(entity.Team{}, decimal.Zero, decimal.Zero)
	assert.True(t, fed.Equal(d("0.05")))
	assert.True(t, prov.Equal(d("0.09975")))

	fed, prov = RatesOrDefault(entity.Team{FederalTaxRate: d("0.06")}, d("0.07"), d("0.08"))
	assert.True(t, fed.Equal(d("0.06")))
	assert.True(t, prov.Equal(d("0.08")))
}

func TestSubtotalIncludesBlankLinesButPersistenceDropsThem(t *testing.T) {
	lines := []Line{
		{Description: "Shoot", Quantity: d("2"), Rate: d("150")},
		{Description: "  ", Quantity: d("1"), Rate: d("50")},
		{Description: "Edit", Quantity: d("1.5"), Rate: d("80")},
	}

	assert.Equal(t, "470", Subtotal(lines).String())

	items := PersistableLines(lines)
	require.Len(t, items, 2)
	assert.Equal(t, "Shoot", items[0].Description)
	assert.Equal(t, 0, items[0].SortOrder)
	assert.Equal(t, "Edit", items[1].Description)
	assert.Equal(t, 1, items[1].SortOrder)
	assert.Equal(t, "120", items[1].Amount.String())
}

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		name    string
		numbers []string
		want    string
	}{
		{"first of year", nil, "0001"},
		{"gap keeps max", []string{"0001", "0003"}, "0004"},
		{"unordered", []string{"0007", "0002"}, "0008"},
		{"prefixed", []string{"INV-0009"}, "0010"},
		{"no digits", []string{"draft"}, "0001"},
		{"wider than pad", []string{"9999"}, "10000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextInvoiceNumber(tt.numbers))
		})
	}
}

func TestNextInvoiceNumberRestartsEachYear(t *testing.T) {
	year := 2025
	invoices := []entity.Invoice{
		{InvoiceNumber: "0001", IssueDate: time.Date(year, 1, 10, 0, 0, 0, 0, time.UTC)},
		{InvoiceNumber: "0002", IssueDate: time.Date(year, 6, 3, 0, 0, 0, 0, time.UTC)},
		{InvoiceNumber: "0001", IssueDate: time.Date(year+1, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	assert.Equal(t, "0003", NextInvoiceNumber(NumbersInYear(invoices, year)))
	assert.Equal(t, "0002", NextInvoiceNumber(NumbersInYear(invoices, year+1)))
	assert.Equal(t, "0001", NextInvoiceNumber(NumbersInYear(invoices, year+2)))
}

func TestNextInvoiceNumberIsStrictlyIncreasing(t *testing.T) {
	var numbers []string
	prev := int64(0)
	for i := 0; i < 25; i++ {
		next := NextInvoiceNumber(numbers)
		seq := Sequence(next)
		assert.Greater(t, seq, prev)
		prev = seq
		numbers = append(numbers, next)
	}
	assert.Equal(t, "0025", numbers[len(numbers)-1])
}

func TestFormatNumber(t *testing.T) {
	got, err := FormatNumber(42, 6)
	require.NoError(t, err)
	assert.Equal(t, "000042", got)

	_, err = FormatNumber(0, 4)
	assert.Error(t, err)
}

func TestStatusRules(t *testing.T) {
	assert.True(t, ValidStatus(entity.InvoiceStatusOverdue))
	assert.False(t, ValidStatus("sent"))

	assert.True(t, CanTransition(entity.InvoiceStatusDraft, entity.InvoiceStatusUnpaid))
	assert.True(t, CanTransition(entity.InvoiceStatusUnpaid, entity.InvoiceStatusPaid))
	assert.True(t, CanTransition(entity.InvoiceStatusOverdue, entity.InvoiceStatusPaid))
	assert.False(t, CanTransition(entity.InvoiceStatusDraft, entity.InvoiceStatusPaid))
	assert.False(t, CanTransition(entity.InvoiceStatusPaid, entity.InvoiceStatusUnpaid))
	assert.False(t, CanTransition(entity.InvoiceStatusCancelled, entity.InvoiceStatusPaid))

	assert.True(t, Outstanding(entity.InvoiceStatusOverdue))
	assert.False(t, Outstanding(entity.InvoiceStatusDraft))
}
