package reports

import (
	"io"

	"github.com/xuri/excelize/v2"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

// Sheet is one worksheet of an exported workbook.
type Sheet struct {
	Name     string
	Headings []string
	Rows     []ExcelExporter
}

func rowsOf[T ExcelExporter](records []T) []ExcelExporter {
	rows := make([]ExcelExporter, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return rows
}

// NewWorkbook builds a workbook with one worksheet per sheet, in order.
func NewWorkbook(sheets ...Sheet) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	for col, h := range sheet.Headings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, h); err != nil {
			return err
		}
	}

	rowNo := 2
	for _, d := range sheet.Rows {
		for col, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return err
			}
		}
		rowNo++
	}
	return nil
}

func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	f, err := NewWorkbook(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func SaveWorkbook(filename string, sheets ...Sheet) error {
	f, err := NewWorkbook(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(filename)
}
