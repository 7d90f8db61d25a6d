package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"resultscraper/internal/results"
	"resultscraper/internal/roster"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func batch() []results.Result {
	return []results.Result{
		{
			results.KeyRegisterNumber: "111",
			results.KeyDateOfBirth:    "01/01/2000",
			results.KeyStudentName:    "Priya Raman",
			"ENG_0":                   "78",
			"ENG_2":                   "A",
			"TAM_0":                   "60",
		},
		{
			results.KeyRegisterNumber: "333",
			results.KeyDateOfBirth:    "03/03/2000",
			results.KeyStudentName:    "Arun Kumar",
			"ENG_0":                   "55",
		},
		results.Failure("222", "02/02/2000", "Website returned error: Invalid Register Number"),
	}
}

func TestSaveAndLoadResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	success, failure := results.Normalize(batch())
	require.NoError(t, SaveResults(path, success, failure))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{SheetSuccessful, SheetFailed}, f.GetSheetList())
	require.NoError(t, f.Close())

	loadedSuccess, loadedFailure, err := LoadResults(path)
	require.NoError(t, err)

	diff := cmp.Diff(success, loadedSuccess)
	if diff != "" {
		t.Fatal(diff)
	}
	diff = cmp.Diff(failure, loadedFailure)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestSaveWithoutFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	success, failure := results.Normalize(batch()[:2])
	require.True(t, failure.Empty())
	require.NoError(t, SaveResults(path, success, failure))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{SheetSuccessful}, f.GetSheetList())
}

func TestLoadForeignWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"NAME", "REG NO", "MTH101"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"Priya", "111"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	success, failure, err := LoadResults(path)
	require.NoError(t, err)
	require.Equal(t, []string{"NAME", "REG NO", "MTH101"}, success.Columns)
	require.Equal(t, [][]string{{"Priya", "111", ""}}, success.Rows)
	require.True(t, failure.Empty())
}

func TestTemplateIsAValidRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), TemplateName)
	require.NoError(t, WriteTemplate(path))

	sheet, err := ReadRoster(path)
	require.NoError(t, err)
	queries, err := sheet.Queries()
	require.NoError(t, err)
	require.Equal(t, []roster.Query{
		{RegisterNumber: "123456789", DateOfBirth: "01/01/2000"},
		{RegisterNumber: "987654321", DateOfBirth: "15/06/1999"},
	}, queries)
}

func TestReadRosterDateCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{roster.ColumnRegisterNumber, roster.ColumnDateOfBirth}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "123456789"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "987654321"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", "01/02/1999"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sheet, err := ReadRoster(path)
	require.NoError(t, err)
	queries, err := sheet.Queries()
	require.NoError(t, err)
	require.Equal(t, []roster.Query{
		{RegisterNumber: "123456789", DateOfBirth: "15/06/2000"},
		{RegisterNumber: "987654321", DateOfBirth: "01/02/1999"},
	}, queries)
}

func TestDateCell(t *testing.T) {
	dob, ok := dateCell("06-15-00", "36692", false)
	require.True(t, ok)
	require.Equal(t, "15/06/2000", dob)

	_, ok = dateCell("01/02/1999", "01/02/1999", false)
	require.False(t, ok)
	_, ok = dateCell("12345", "12345", false)
	require.False(t, ok)
	_, ok = dateCell("n/a", "x", false)
	require.False(t, ok)
}

func TestReadRosterCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("Register Number,Date of Birth\n111,01/01/2000\n"), 0600))

	sheet, err := ReadRoster(path)
	require.NoError(t, err)
	queries, err := sheet.Queries()
	require.NoError(t, err)
	require.Equal(t, []roster.Query{{RegisterNumber: "111", DateOfBirth: "01/01/2000"}}, queries)

	_, err = ReadRoster(filepath.Join(t.TempDir(), "roster.txt"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
