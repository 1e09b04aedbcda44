package google

import (
	"fmt"
	"strconv"
	"strings"

	"ledger/internal/sheets"
)

// parseIDColumn maps transaction ids to their 1-based row numbers. Header
// and blank cells are skipped; the first occurrence of an id wins.
func parseIDColumn(values [][]any) map[int64]int {
	rows := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, seen := rows[id]; !seen {
			rows[id] = i + 1
		}
	}
	return rows
}

// sheetYear returns the year a sheet title starts with.
func sheetYear(title string) (int, bool) {
	if len(title) < 6 || title[4] != ' ' {
		return 0, false
	}
	y, err := strconv.Atoi(title[0:4])
	if err != nil || y <= 1900 || y >= 3000 {
		return 0, false
	}
	return y, true
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if _, ok := sheetYear(base); ok {
		return base
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a sheet title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, sheets.IDColumn, row)
}
