package models

// MQueryResult is the tabular outcome of an arbitrary statement: ordered
// columns and rows of driver-typed values. Statements without a result set
// produce zero columns and zero rows.
type MQueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the result carries no rows.
func (r *MQueryResult) Empty() bool {
	return len(r.Rows) == 0
}
