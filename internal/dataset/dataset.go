// Package dataset loads the denormalized CEAP reimbursement table and gives
// classifiers read-only access to its rows.
package dataset

import (
	"github.com/Veraticus/quota-hawk/internal/model"
)

// Dataset is an immutable, ordered collection of reimbursement records.
// Classifiers must return one verdict per record, in record order.
type Dataset struct {
	records []model.ReimbursementRecord
}

// New wraps a slice of records. The dataset takes ownership of the slice;
// callers must not mutate it afterwards.
func New(records []model.ReimbursementRecord) *Dataset {
	return &Dataset{records: records}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns the underlying rows. Treat the result as read-only.
func (d *Dataset) Records() []model.ReimbursementRecord {
	return d.records
}
