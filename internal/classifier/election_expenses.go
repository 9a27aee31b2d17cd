package classifier

import (
	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
)

// CandidateLegalEntity is the Federal Revenue classification for an
// individual registered as a candidate for elective office.
const CandidateLegalEntity = "409-0 - CANDIDATO A CARGO POLITICO ELETIVO"

// ElectionExpenses flags reimbursements paid to recipients registered as
// election candidates. Campaign suppliers are not normal operating-expense
// recipients.
type ElectionExpenses struct {
	fitted bool
}

// NewElectionExpenses creates the detector.
func NewElectionExpenses() *ElectionExpenses {
	return &ElectionExpenses{}
}

// Name implements Classifier.
func (c *ElectionExpenses) Name() string { return "election_expenses" }

// Fit implements Classifier. The detector is a pure function of the
// legal-entity column, so fitting only marks it ready.
func (c *ElectionExpenses) Fit(_ *dataset.Dataset) error {
	c.fitted = true
	return nil
}

// Transform implements Classifier.
func (c *ElectionExpenses) Transform(_ *dataset.Dataset) error { return nil }

// Predict implements Classifier.
func (c *ElectionExpenses) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}

	verdicts := make([]model.Verdict, ds.Len())
	for i, r := range ds.Records() {
		if r.LegalEntity == CandidateLegalEntity {
			verdicts[i] = model.Suspicious
		} else {
			verdicts[i] = model.NotSuspicious
		}
	}
	return verdicts, nil
}

// AlwaysRefit implements Classifier. Fitting is free, caching buys nothing.
func (c *ElectionExpenses) AlwaysRefit() bool { return true }

// ModelState implements Classifier.
func (c *ElectionExpenses) ModelState() ([]byte, error) {
	return encodeState(c.fitted)
}

// RestoreModel implements Classifier.
func (c *ElectionExpenses) RestoreModel(data []byte) error {
	return decodeState(data, &c.fitted)
}
