package core

// AssetSnapshot is one recorded account balance on a specific date.
type AssetSnapshot struct {
	ID          int64   `json:"id"`
	Date        Date    `json:"date"`
	AccountName string  `json:"account_name"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
}

// RowError reports why one CSV data row was rejected.
type RowError struct {
	LineNumber int    `json:"line_number"`
	Error      string `json:"error"`
}

// ImportOutcome is the report returned once per import call.
type ImportOutcome struct {
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed"`
}

// SummaryBucket holds one month's per-currency balance totals.
type SummaryBucket struct {
	Month  string             `json:"month"`
	Totals map[string]float64 `json:"totals"`
}

// DateRange is a half-open [From, Before) filter; nil bounds are open.
type DateRange struct {
	From   *Date
	Before *Date
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool {
	if r.From != nil && d.Before(r.From.Time) {
		return false
	}
	if r.Before != nil && !d.Before(r.Before.Time) {
		return false
	}
	return true
}
