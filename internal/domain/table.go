package domain

// Table is an untyped upstream result kept in column order, used when a
// response has to be shown as-is.
type Table struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Cells returns the row values in column order.
func (t Table) Cells(i int) []string {
	row := t.Rows[i]
	out := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = row[c]
	}
	return out
}
