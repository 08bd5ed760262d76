package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

const xlsxSheet = "Invoices"

// ExportXLSX builds a workbook with the same columns and row semantics
// as the CSV export: one row per attachment, blank cells for absent
// amounts, failure rows carrying the error in the status column.
func ExportXLSX(emails []invoice.ProcessedEmail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(xlsxSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(xlsxSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	for i, h := range csvHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheet, cell, h); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	row := 2
	for _, email := range emails {
		emailDate := formatMillis(email.InternalDate)
		for _, att := range email.Attachments {
			if err := writeXLSXRow(f, row, email, att, emailDate); err != nil {
				return nil, err
			}
			row++
		}
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 12) // email date
	_ = f.SetColWidth(xlsxSheet, "B", "C", 30) // sender, subject
	_ = f.SetColWidth(xlsxSheet, "D", "E", 24) // filename, company
	_ = f.SetColWidth(xlsxSheet, "F", "G", 16) // invoice number, date
	_ = f.SetColWidth(xlsxSheet, "H", "J", 14) // amounts
	_ = f.SetColWidth(xlsxSheet, "K", "L", 20) // category, status

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSXRow(f *excelize.File, row int, email invoice.ProcessedEmail, att invoice.ProcessedAttachment, emailDate string) error {
	write := func(col int, v any) error {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		return f.SetCellValue(xlsxSheet, cell, v)
	}
	writeAmount := func(col int, d *decimal.Decimal) error {
		if d == nil {
			return nil
		}
		v, _ := d.Float64()
		return write(col, v)
	}

	cells := []any{emailDate, email.From, email.Subject, att.Filename}

	if !att.Success {
		cells = append(cells, "", "", "", "", "", "", categoryUnassigned, "שגיאה: "+att.Error)
		for i, v := range cells {
			if err := write(i+1, v); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
		return nil
	}

	var company, number, date string
	var total, tax *decimal.Decimal
	if rec := att.InvoiceData; rec != nil {
		company, number, date = rec.CompanyName, rec.InvoiceNumber, rec.Date
		total, tax = rec.TotalAmount, rec.TaxAmount
	}
	cells = append(cells, company, number, date)
	for i, v := range cells {
		if err := write(i+1, v); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
	}
	if err := writeAmount(8, total); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	if err := writeAmount(9, tax); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	if err := writeAmount(10, netAmount(total, tax)); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	if err := write(11, Categorize(att, email)); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	if err := write(12, statusSucceeded); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
