package sample

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/aristath/portsort/internal/database"
	"github.com/aristath/portsort/internal/utils"
)

// FromRecords builds a table from a header row followed by numeric data rows.
// Empty cells are rejected; ragged rows and non-numeric cells produce a
// NonTabularInputError naming the cell.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &NonTabularInputError{Reason: "missing header row"}
	}

	header := records[0]
	cols := make([][]float64, len(header))
	for i := range cols {
		cols[i] = make([]float64, 0, len(records)-1)
	}

	for r, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		if len(record) != len(header) {
			return nil, &NonTabularInputError{
				Row:    r + 1,
				Reason: fmt.Sprintf("has %d cells, header has %d", len(record), len(header)),
			}
		}
		for c, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &NonTabularInputError{
					Column: header[c],
					Row:    r + 1,
					Reason: fmt.Sprintf("value %q is not numeric", cell),
				}
			}
			cols[c] = append(cols[c], v)
		}
	}

	return NewTable(header, cols)
}

// ReadCSV parses comma separated input with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &NonTabularInputError{Row: parseErr.Line, Reason: parseErr.Err.Error()}
		}
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return FromRecords(records)
}

// ReadXLSX reads a worksheet of an Excel workbook. An empty sheet name selects
// the first sheet.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &NonTabularInputError{Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	// excelize drops trailing empty cells, so pad short rows to the header width
	if len(rows) > 0 {
		width := len(rows[0])
		for i := 1; i < len(rows); i++ {
			if len(rows[i]) > 0 && len(rows[i]) < width {
				rows[i] = append(rows[i], make([]string, width-len(rows[i]))...)
			}
		}
	}
	return FromRecords(rows)
}

// LoadSQLite reads the given numeric columns of a table from the sample store.
// When columns is empty every column of the table is loaded.
func LoadSQLite(ctx context.Context, db *database.DB, table string, columns []string) (*Table, error) {
	if !database.ValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	tables, err := db.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	available, err := db.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = available
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns", table)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		if !database.ValidIdentifier(c) {
			return nil, fmt.Errorf("invalid column name %q", c)
		}
		if !slices.Contains(available, c) {
			return nil, fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, c, table)
		}
		quoted[i] = `"` + c + `"`
	}

	query := fmt.Sprintf("SELECT %s FROM %q", strings.Join(quoted, ", "), table)
	done := utils.MeasureDBQuery("load_"+table, log.With().Str("database", db.Name()).Logger())
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make([][]float64, len(columns))
	dest := make([]any, len(columns))
	row := 0
	for rows.Next() {
		row++
		vals := make([]*float64, len(columns))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &NonTabularInputError{Row: row, Reason: err.Error()}
		}
		for i, v := range vals {
			if v == nil {
				return nil, &NonTabularInputError{Column: columns[i], Row: row, Reason: "NULL value"}
			}
			cols[i] = append(cols[i], *v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sample table %s: %w", table, err)
	}
	done(row)

	return NewTable(columns, cols)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
