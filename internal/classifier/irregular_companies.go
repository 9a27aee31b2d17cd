package classifier

import (
	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
)

// IrregularCompanies flags expenses issued to a company after its
// registration stopped being active (shut down, void, suspended or inapt).
type IrregularCompanies struct {
	fitted bool
}

// NewIrregularCompanies creates the detector.
func NewIrregularCompanies() *IrregularCompanies {
	return &IrregularCompanies{}
}

// Name implements Classifier.
func (c *IrregularCompanies) Name() string { return "irregular_companies" }

// Fit implements Classifier.
func (c *IrregularCompanies) Fit(_ *dataset.Dataset) error {
	c.fitted = true
	return nil
}

// Transform implements Classifier.
func (c *IrregularCompanies) Transform(_ *dataset.Dataset) error { return nil }

// Predict implements Classifier. A row is suspicious when the company was
// already inactive on the expense's issue date. Rows missing either date
// cannot be compared and stay not-applicable.
func (c *IrregularCompanies) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}

	verdicts := make([]model.Verdict, ds.Len())
	for i, r := range ds.Records() {
		switch {
		case !r.CompanyInactive():
			verdicts[i] = model.NotSuspicious
		case r.SituationDate == nil || r.IssueDate == nil:
			verdicts[i] = model.NotApplicable
		case r.SituationDate.Before(*r.IssueDate):
			verdicts[i] = model.Suspicious
		default:
			verdicts[i] = model.NotSuspicious
		}
	}
	return verdicts, nil
}

// AlwaysRefit implements Classifier.
func (c *IrregularCompanies) AlwaysRefit() bool { return true }

// ModelState implements Classifier.
func (c *IrregularCompanies) ModelState() ([]byte, error) {
	return encodeState(c.fitted)
}

// RestoreModel implements Classifier.
func (c *IrregularCompanies) RestoreModel(data []byte) error {
	return decodeState(data, &c.fitted)
}
