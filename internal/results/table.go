package results

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	ColumnName           = "NAME"
	ColumnRegisterNumber = "REG NO"
	ColumnDateOfBirth    = "DOB"
)

// Table is a rectangular view of a batch, every row has exactly one cell
// per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Head returns a table with at most n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Normalize partitions a batch into a success table with one column per
// observed subject position and a failure table holding failures as-is.
func Normalize(rs []Result) (success Table, failure Table) {
	var successful, failed []Result
	for _, r := range rs {
		if r.Failed() {
			failed = append(failed, r)
		} else {
			successful = append(successful, r)
		}
	}
	return successTable(successful), failureTable(failed)
}

type column struct {
	name string
	key  string
}

// leadingColumn reports whether a bare subject code would clash with one
// of the fixed student columns.
func leadingColumn(code string) bool {
	switch code {
	case ColumnName, ColumnRegisterNumber, ColumnDateOfBirth:
		return true
	}
	return false
}

func successTable(rs []Result) Table {
	if len(rs) == 0 {
		return Table{}
	}

	registry := BuildRegistry(rs)
	columns := []column{
		{name: ColumnName, key: KeyStudentName},
		{name: ColumnRegisterNumber, key: KeyRegisterNumber},
		{name: ColumnDateOfBirth, key: KeyDateOfBirth},
	}
	for _, code := range registry.Codes() {
		positions := registry[code]
		for _, pos := range positions {
			name := code
			if len(positions) > 1 || leadingColumn(code) {
				name = SubjectKey(code, pos)
			}
			columns = append(columns, column{name: name, key: SubjectKey(code, pos)})
		}
	}

	t := Table{Columns: make([]string, len(columns))}
	for i, c := range columns {
		t.Columns[i] = c.name
	}
	for _, r := range rs {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r[c.key]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var failureLeading = []string{KeyError, KeyRegisterNumber, KeyDateOfBirth}

func failureTable(rs []Result) Table {
	if len(rs) == 0 {
		return Table{}
	}

	present := map[string]struct{}{}
	for _, r := range rs {
		for k := range r {
			present[k] = struct{}{}
		}
	}

	var columns []string
	for _, k := range failureLeading {
		if _, ok := present[k]; ok {
			columns = append(columns, k)
			delete(present, k)
		}
	}
	var rest []string
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	t := Table{Columns: columns}
	for _, r := range rs {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r[c]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// DisplayName gives the columns of positions 0, 2, 4 and 6 the meaning the
// portal uses for them. It is only meant for display, exports keep the
// original column names.
func DisplayName(column string) string {
	code, rawPos, ok := strings.Cut(column, "_")
	if !ok || strings.Contains(rawPos, "_") {
		return column
	}
	pos, err := strconv.Atoi(rawPos)
	if err != nil {
		return column
	}
	switch pos {
	case 0:
		return fmt.Sprintf("%s Mark1", code)
	case 2:
		return fmt.Sprintf("%s Mark2", code)
	case 4:
		return fmt.Sprintf("%s Mark3", code)
	case 6:
		return fmt.Sprintf("%s Result", code)
	}
	return column
}

// Display returns a copy of the table with display column names.
func (t Table) Display() Table {
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = DisplayName(c)
	}
	return Table{Columns: columns, Rows: t.Rows}
}
