package models

// MFetchReport aggregates the outcome of a batch fetch. A failed item never
// aborts the batch; its error message is kept per symbol/indicator.
type MFetchReport struct {
	Total    int               `json:"total"`
	Success  int               `json:"success"`
	Failed   int               `json:"failed"`
	Rows     int               `json:"rows"`
	Failures map[string]string `json:"failures,omitempty"`
}

// AddSuccess records one succeeded item and the rows it wrote.
func (r *MFetchReport) AddSuccess(rows int) {
	r.Total++
	r.Success++
	r.Rows += rows
}

// AddFailure records one failed item with its error message.
func (r *MFetchReport) AddFailure(item string, err error) {
	r.Total++
	r.Failed++
	if r.Failures == nil {
		r.Failures = make(map[string]string)
	}
	r.Failures[item] = err.Error()
}
