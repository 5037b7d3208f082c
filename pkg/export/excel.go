package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"privaflow/pkg/sample"
)

const verificationSheet = "Verification"

// WriteVerificationXLSX writes the verification sample as a spreadsheet
// workbook, mirroring the CSV layout: rating scale, header, one row per
// sampled record with empty evaluation cells.
func WriteVerificationXLSX(w io.Writer, smp sample.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(verificationSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("dropping default sheet: %w", err)
	}

	if err := f.SetCellValue(verificationSheet, "A1", ratingScale); err != nil {
		return fmt.Errorf("writing rating scale: %w", err)
	}
	if err := setRow(f, 2, verificationHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range smp.Records {
		if err := setRow(f, i+3, verificationRow(rec)); err != nil {
			return fmt.Errorf("writing sample row %d: %w", i, err)
		}
	}

	// wide first column for the text segment, readable defaults elsewhere
	if err := f.SetColWidth(verificationSheet, "A", "A", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(verificationSheet, "B", "N", 22); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(verificationSheet, cell, &cells)
}
