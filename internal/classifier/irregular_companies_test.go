package classifier

import (
	"testing"

	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIrregularCompanies_Predict(t *testing.T) {
	issue := date(2016, 6, 15)
	before := date(2016, 1, 1)
	after := date(2016, 12, 1)

	ds := newDataset(
		model.ReimbursementRecord{Situation: "ATIVA", SituationDate: before, IssueDate: issue},
		model.ReimbursementRecord{Situation: model.SituationShutDown, SituationDate: before, IssueDate: issue},
		model.ReimbursementRecord{Situation: model.SituationVoid, SituationDate: before, IssueDate: issue},
		model.ReimbursementRecord{Situation: model.SituationInapt, SituationDate: before, IssueDate: issue},
		model.ReimbursementRecord{Situation: model.SituationSuspended, SituationDate: before, IssueDate: issue},
		model.ReimbursementRecord{Situation: model.SituationShutDown, SituationDate: after, IssueDate: issue},
	)

	c := NewIrregularCompanies()
	require.NoError(t, c.Fit(ds))

	verdicts, err := c.Predict(ds)
	require.NoError(t, err)

	flagged := make([]bool, len(verdicts))
	for i, v := range verdicts {
		flagged[i] = v.Flagged()
	}
	assert.Equal(t, []bool{false, true, true, true, true, false}, flagged)
}

func TestIrregularCompanies_MissingDates(t *testing.T) {
	ds := newDataset(
		model.ReimbursementRecord{Situation: model.SituationShutDown, IssueDate: date(2016, 6, 1)},
		model.ReimbursementRecord{Situation: model.SituationShutDown, SituationDate: date(2016, 1, 1)},
	)

	c := NewIrregularCompanies()
	require.NoError(t, c.Fit(ds))

	verdicts, err := c.Predict(ds)
	require.NoError(t, err)
	assert.Equal(t, []model.Verdict{model.NotApplicable, model.NotApplicable}, verdicts)
}

func TestIrregularCompanies_PredictIsIdempotent(t *testing.T) {
	ds := newDataset(
		model.ReimbursementRecord{Situation: model.SituationShutDown, SituationDate: date(2015, 1, 1), IssueDate: date(2016, 6, 1)},
		model.ReimbursementRecord{Situation: "ATIVA"},
	)

	c := NewIrregularCompanies()
	require.NoError(t, c.Fit(ds))

	first, err := c.Predict(ds)
	require.NoError(t, err)
	second, err := c.Predict(ds)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
