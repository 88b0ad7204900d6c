package google

import (
	"fmt"
	"strings"
)

// parseIDColumn maps each donation id in column A to its 1-based row and
// returns the number of rows in use. The header row and blanks are not ids.
func parseIDColumn(values [][]interface{}) (map[string]int, int) {
	rows := make(map[string]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.EqualFold(v, fmt.Sprint(ledgerHeader[0])) {
			continue
		}
		if _, dup := rows[v]; !dup {
			rows[v] = i + 1
		}
	}
	return rows, len(values)
}
