package compute

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/smallbiznis/siino/internal/entity"
)

const DefaultNumberWidth = 4

var nonDigitRe = regexp.MustCompile(`\D+`)

// Sequence extracts the numeric part of an invoice number. Numbers without
// digits count as zero.
func Sequence(number string) int64 {
	digits := nonDigitRe.ReplaceAllString(number, "")
	if digits == "" {
		return 0
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// MaxSequence returns the highest sequence among numbers, or zero.
func MaxSequence(numbers []string) int64 {
	var highest int64
	for _, n := range numbers {
		if seq := Sequence(n); seq > highest {
			highest = seq
		}
	}
	return highest
}

// FormatNumber zero-pads seq to width digits.
func FormatNumber(seq int64, width int) (string, error) {
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}
	if width <= 0 {
		width = DefaultNumberWidth
	}
	return fmt.Sprintf("%0*d", width, seq), nil
}

// NextInvoiceNumber returns the number following the highest of numbers,
// which should all belong to the current calendar year.
func NextInvoiceNumber(numbers []string) string {
	return NextInvoiceNumberWidth(numbers, DefaultNumberWidth)
}

func NextInvoiceNumberWidth(numbers []string, width int) string {
	// MaxSequence is never negative, so the sequence is at least 1.
	out, _ := FormatNumber(MaxSequence(numbers)+1, width)
	return out
}

// InvoicesInYear keeps the invoices issued in year.
func InvoicesInYear(invoices []entity.Invoice, year int) []entity.Invoice {
	out := make([]entity.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.IssueDate.Year() == year {
			out = append(out, inv)
		}
	}
	return out
}

// NumbersInYear returns the numbers of the invoices issued in year.
func NumbersInYear(invoices []entity.Invoice, year int) []string {
	inYear := InvoicesInYear(invoices, year)
	out := make([]string, 0, len(inYear))
	for _, inv := range inYear {
		out = append(out, inv.InvoiceNumber)
	}
	return out
}
