package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	ColumnRegisterNumber = "Register Number"
	ColumnDateOfBirth    = "Date of Birth"
)

// Query identifies a single student on the portal, DateOfBirth is expected
// to be DD/MM/YYYY.
type Query struct {
	RegisterNumber string
	DateOfBirth    string
}

// Sheet is a roster as it was read from a file, before validation.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ValidationError lists everything wrong with a roster at once so the user
// can fix the file in one go.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid roster: " + strings.Join(e.Problems, "; ")
}

var ErrCountMismatch = errors.New("the number of register numbers and dates of birth must be the same")

func (s Sheet) column(name string) int {
	for i, h := range s.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ValidDateOfBirth reports whether dob consists of three slash separated
// numeric groups.
func ValidDateOfBirth(dob string) bool {
	parts := strings.Split(dob, "/")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if !isDigits(p) {
			return false
		}
	}
	return true
}

// Validate returns a human readable message for every problem in the
// sheet, an empty result means the sheet can be turned into queries.
func Validate(s Sheet) []string {
	var problems []string

	regCol := s.column(ColumnRegisterNumber)
	dobCol := s.column(ColumnDateOfBirth)

	var missing []string
	if regCol < 0 {
		missing = append(missing, ColumnRegisterNumber)
	}
	if dobCol < 0 {
		missing = append(missing, ColumnDateOfBirth)
	}
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
	}

	var regMissing, dobMissing bool
	var badDates []string
	for i, row := range s.Rows {
		if blank(row) {
			continue
		}
		if regCol >= 0 && cell(row, regCol) == "" {
			regMissing = true
		}
		if dobCol < 0 {
			continue
		}
		dob := cell(row, dobCol)
		if dob == "" {
			dobMissing = true
			continue
		}
		if !ValidDateOfBirth(dob) {
			badDates = append(badDates, fmt.Sprintf("Row %d: Date of birth '%s' is not in DD/MM/YYYY format", i+1, dob))
		}
	}
	if regMissing {
		problems = append(problems, "Some register numbers are missing")
	}
	if dobMissing {
		problems = append(problems, "Some dates of birth are missing")
	}
	return append(problems, badDates...)
}

// Queries validates the sheet and returns one query per non-blank row, in
// file order.
func (s Sheet) Queries() ([]Query, error) {
	if problems := Validate(s); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	regCol := s.column(ColumnRegisterNumber)
	dobCol := s.column(ColumnDateOfBirth)

	var queries []Query
	for _, row := range s.Rows {
		if blank(row) {
			continue
		}
		queries = append(queries, Query{
			RegisterNumber: cell(row, regCol),
			DateOfBirth:    cell(row, dobCol),
		})
	}
	return queries, nil
}

func lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// FromManual pairs up two newline separated lists, blank lines are ignored.
func FromManual(registerNumbers, datesOfBirth string) ([]Query, error) {
	regs := lines(registerNumbers)
	dobs := lines(datesOfBirth)
	if len(regs) != len(dobs) {
		return nil, fmt.Errorf("%w (%d register numbers, %d dates of birth)", ErrCountMismatch, len(regs), len(dobs))
	}

	queries := make([]Query, len(regs))
	for i := range regs {
		queries[i] = Query{RegisterNumber: regs[i], DateOfBirth: dobs[i]}
	}
	return queries, nil
}

// ReadCSV reads a roster whose first record is the header.
func ReadCSV(r io.Reader) (Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read csv roster: %w", err)
	}
	if len(records) == 0 {
		return Sheet{}, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return Sheet{Header: header, Rows: records[1:]}, nil
}
