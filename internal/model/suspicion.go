package model

// Suspicion is one row of the merged output table: the identity triple of a
// reimbursement plus one flag per classifier that ran over it.
type Suspicion struct {
	Flags       map[string]bool
	ApplicantID string
	Year        int
	DocumentID  int
}

// NewSuspicion starts an empty suspicion row for a record.
func NewSuspicion(r *ReimbursementRecord) Suspicion {
	return Suspicion{
		ApplicantID: r.ApplicantID,
		Year:        r.Year,
		DocumentID:  r.DocumentID,
		Flags:       make(map[string]bool),
	}
}

// Set records a classifier's verdict under its column name.
func (s *Suspicion) Set(name string, v Verdict) {
	s.Flags[name] = v.Flagged()
}
