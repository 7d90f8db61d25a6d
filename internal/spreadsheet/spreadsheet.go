package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"resultscraper/internal/results"
	"resultscraper/internal/roster"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSuccessful = "Successful Results"
	SheetFailed     = "Failed Results"

	TemplateName = "sample_template.xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported roster format, expected .xlsx or .csv")

func writeTable(f *excelize.File, sheet string, t results.Table, headerStyle int) error {
	if len(t.Columns) == 0 {
		return nil
	}
	header := slices.Clone(t.Columns)
	err := f.SetSheetRow(sheet, "A1", &header)
	if err != nil {
		return err
	}
	err = f.SetRowStyle(sheet, 1, 1, headerStyle)
	if err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := slices.Clone(row)
		err = f.SetSheetRow(sheet, cell, &values)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveResults writes the success table to the "Successful Results" sheet
// and, when there are any failures, the failure table to "Failed Results".
func SaveResults(path string, success, failure results.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", SheetSuccessful)
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	err = writeTable(f, SheetSuccessful, success, headerStyle)
	if err != nil {
		return fmt.Errorf("write %s: %w", SheetSuccessful, err)
	}
	if !failure.Empty() {
		_, err = f.NewSheet(SheetFailed)
		if err != nil {
			return err
		}
		err = writeTable(f, SheetFailed, failure, headerStyle)
		if err != nil {
			return fmt.Errorf("write %s: %w", SheetFailed, err)
		}
	}
	return f.SaveAs(path)
}

func readTable(f *excelize.File, sheet string) (results.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return results.Table{}, err
	}
	if len(rows) == 0 {
		return results.Table{}, nil
	}

	t := results.Table{Columns: rows[0]}
	for _, row := range rows[1:] {
		padded := make([]string, len(t.Columns))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t, nil
}

// LoadResults reads an export back. Workbooks that were not produced by
// SaveResults are accepted too, their first sheet is taken as the success
// table.
func LoadResults(path string) (success, failure results.Table, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return results.Table{}, results.Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if !slices.Contains(sheets, SheetSuccessful) {
		if len(sheets) == 0 {
			return results.Table{}, results.Table{}, fmt.Errorf("%s has no sheets", path)
		}
		success, err = readTable(f, sheets[0])
		return success, results.Table{}, err
	}

	success, err = readTable(f, SheetSuccessful)
	if err != nil {
		return results.Table{}, results.Table{}, err
	}
	if slices.Contains(sheets, SheetFailed) {
		failure, err = readTable(f, SheetFailed)
		if err != nil {
			return results.Table{}, results.Table{}, err
		}
	}
	return success, failure, nil
}

// dateOfBirthLayout is the DD/MM/YYYY form the portal expects.
const dateOfBirthLayout = "02/01/2006"

// dateCell turns a cell that Excel stores as a date into DD/MM/YYYY. A date
// cell keeps its serial number as the raw value and shows a formatted one,
// text and plain numbers show their raw value unchanged.
func dateCell(formatted, raw string, date1904 bool) (string, bool) {
	if formatted == raw {
		return "", false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return t.Format(dateOfBirthLayout), true
}

func readWorkbookRoster(path string) (roster.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return roster.Sheet{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return roster.Sheet{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return roster.Sheet{}, err
	}
	if len(rows) == 0 {
		return roster.Sheet{}, nil
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return roster.Sheet{}, err
	}

	sheet := roster.Sheet{Header: rows[0], Rows: rows[1:]}
	dobCol := slices.IndexFunc(sheet.Header, func(h string) bool {
		return strings.TrimSpace(h) == roster.ColumnDateOfBirth
	})
	if dobCol < 0 {
		return sheet, nil
	}

	date1904 := false
	props, err := f.GetWorkbookProps()
	if err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	for i, row := range sheet.Rows {
		if dobCol >= len(row) || i+1 >= len(raw) || dobCol >= len(raw[i+1]) {
			continue
		}
		dob, ok := dateCell(row[dobCol], raw[i+1][dobCol], date1904)
		if ok {
			row[dobCol] = dob
		}
	}
	return sheet, nil
}

// ReadRoster reads the first sheet of an .xlsx workbook or a .csv file.
// Dates of birth stored as Excel dates come back as DD/MM/YYYY.
func ReadRoster(path string) (roster.Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbookRoster(path)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return roster.Sheet{}, err
		}
		defer file.Close()
		return roster.ReadCSV(file)
	}
	return roster.Sheet{}, ErrUnsupportedFormat
}

// WriteTemplate writes a roster with two example students to path.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]string{
		{roster.ColumnRegisterNumber, roster.ColumnDateOfBirth},
		{"123456789", "01/01/2000"},
		{"987654321", "15/06/1999"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		err = f.SetSheetRow("Sheet1", cell, &values)
		if err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
