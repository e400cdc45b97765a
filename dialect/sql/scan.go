package sql

import (
	"fmt"
)

// ScanInt scans and returns an int from the rows. The rows are closed.
func ScanInt(rows ColumnScanner) (int, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("sql: scan int: no rows in result set")
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	if rows.Next() {
		return 0, fmt.Errorf("sql: scan int: multiple rows in result set")
	}
	return n, rows.Err()
}

// ScanMaps scans every row into a map. Keys are the given names when their
// count matches the result columns, and the column names reported by the
// driver otherwise. Byte slices are copied, as the driver may reuse them.
// The rows are closed.
func ScanMaps(rows ColumnScanner, keys ...string) ([]map[string]any, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql: scan maps: columns: %w", err)
	}
	if len(keys) == len(columns) {
		columns = keys
	}
	var (
		out  []map[string]any
		vals = make([]any, len(columns))
		ptrs = make([]any, len(columns))
	)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sql: scan maps: %w", err)
		}
		m := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := vals[i].([]byte); ok {
				vals[i] = append([]byte(nil), b...)
			}
			m[c] = vals[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
