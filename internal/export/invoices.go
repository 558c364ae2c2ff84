// Package export writes spreadsheet reports of cached records.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/invoice/compute"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidYear = errors.New("invalid_year")

var invoiceHeader = []string{
	"Number",
	"Client",
	"Issue date",
	"Due date",
	"Status",
	"Subtotal",
	"TPS",
	"TVQ",
	"Total",
	"Paid date",
}

var invoiceColumnWidths = []float64{12, 30, 14, 14, 12, 14, 12, 12, 14, 14}

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	Log     *zap.Logger
	Session *session.Session
	Cache   *cache.Cache
}

type Exporter struct {
	log     *zap.Logger
	session *session.Session
	cache   *cache.Cache
}

func New(p Params) *Exporter {
	return &Exporter{
		log:     p.Log.Named("export"),
		session: p.Session,
		cache:   p.Cache,
	}
}

// Invoices writes the workbook of the invoices issued in year to w and
// returns how many invoices it holds.
func (e *Exporter) Invoices(ctx context.Context, year int, w io.Writer) (int, error) {
	if _, err := e.session.RequireTeam(); err != nil {
		return 0, err
	}
	if year <= 0 {
		return 0, ErrInvalidYear
	}
	invoices := compute.InvoicesInYear(e.cache.Invoices(), year)
	slices.SortStableFunc(invoices, func(a, b entity.Invoice) int {
		if c := a.IssueDate.Compare(b.IssueDate); c != 0 {
			return c
		}
		return compareSeq(a.InvoiceNumber, b.InvoiceNumber)
	})

	f, err := InvoiceWorkbook(invoices, year)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	logger.WithContext(e.session.Context(ctx), e.log).Info("invoices exported",
		zap.Int("year", year),
		zap.Int("count", len(invoices)),
	)
	return len(invoices), nil
}

func compareSeq(a, b string) int {
	sa, sb := compute.Sequence(a), compute.Sequence(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

// InvoiceWorkbook builds a single-sheet workbook, one invoice per row and a
// totals row of SUM formulas. The caller closes the file.
func InvoiceWorkbook(invoices []entity.Invoice, year int) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := fmt.Sprintf("Invoices %d", year)
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#EDE6F5"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	money := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &money})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &money})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	for col, header := range invoiceHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheet, name, name, invoiceColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, inv := range invoices {
		row := i + 2
		paid := ""
		if inv.PaidDate != nil {
			paid = inv.PaidDate.Format(dateLayout)
		}
		values := []any{
			inv.InvoiceNumber,
			inv.ClientName(),
			inv.IssueDate.Format(dateLayout),
			inv.DueDate.Format(dateLayout),
			string(inv.Status),
			inv.Subtotal.InexactFloat64(),
			inv.FederalTaxAmount.InexactFloat64(),
			inv.ProvincialTaxAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			paid,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("I%d", row), moneyStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style row %d: %w", row, err)
		}
	}

	totalRow := len(invoices) + 2
	if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		f.Close()
		return nil, err
	}
	for _, col := range []string{"F", "G", "H", "I"} {
		cell := fmt.Sprintf("%s%d", col, totalRow)
		if len(invoices) == 0 {
			if err := f.SetCellValue(sheet, cell, 0); err != nil {
				f.Close()
				return nil, err
			}
			continue
		}
		formula := fmt.Sprintf("SUM(%s2:%s%d)", col, col, totalRow-1)
		if err := f.SetCellFormula(sheet, cell, formula); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set total %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("I%d", totalRow), totalStyle); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
