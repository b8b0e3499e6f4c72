package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/salonops/salon-ledger/internal/domain/audit"
	"github.com/salonops/salon-ledger/internal/domain/booking"
)

const (
	sheetAdjustments  = "Adjustments"
	sheetUnreconciled = "Unreconciled"
)

// Build renders the reconciliation workbook: one sheet with the audit trail
// over the requested range, one with completed appointments whose side-effect
// flags are still unset (the rows that need a manual look).
func Build(entries []audit.Entry, unreconciled []booking.Appointment) (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(sheetAdjustments); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetUnreconciled); err != nil {
		return nil, err
	}
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if defaultSheet != sheetAdjustments && defaultSheet != sheetUnreconciled {
		_ = f.DeleteSheet(defaultSheet)
	}

	if err := writeAdjustments(f, entries); err != nil {
		return nil, err
	}
	if err := writeUnreconciled(f, unreconciled); err != nil {
		return nil, err
	}
	return f, nil
}

func writeAdjustments(f *excelize.File, entries []audit.Entry) error {
	headers := []string{"ID", "Product", "Branch", "Delta", "Before", "After", "Reason", "Actor", "Created"}
	if err := writeRow(f, sheetAdjustments, 1, headers...); err != nil {
		return err
	}
	for i, e := range entries {
		err := writeRow(f, sheetAdjustments, i+2,
			fmt.Sprint(e.ID), fmt.Sprint(e.ProductID), e.BranchID,
			fmt.Sprint(e.Delta), fmt.Sprint(e.Before), fmt.Sprint(e.After),
			e.Reason, e.Actor, e.CreatedAt.Format("2006-01-02 15:04:05"))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeUnreconciled(f *excelize.File, appts []booking.Appointment) error {
	headers := []string{"Appointment", "Service", "Branch", "Status", "Products deducted", "Revenue recorded", "Updated"}
	if err := writeRow(f, sheetUnreconciled, 1, headers...); err != nil {
		return err
	}
	for i, a := range appts {
		err := writeRow(f, sheetUnreconciled, i+2,
			fmt.Sprint(a.ID), a.ServiceName, a.Branch, string(a.Status),
			fmt.Sprint(a.ProductsDeducted), fmt.Sprint(a.RevenueRecorded),
			a.UpdatedAt.Format("2006-01-02 15:04:05"))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
