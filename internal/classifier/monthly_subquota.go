package classifier

import (
	"math"
	"sort"
	"time"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
)

// subquotaLimit is a legally fixed monthly ceiling for one expense
// subcategory, effective from Since onwards.
type subquotaLimit struct {
	Since      time.Time
	LimitCents int64
}

// monthlyLimits maps subquota descriptions to their ceilings. Values come
// from the Chamber of Deputies CEAP regulations.
var monthlyLimits = map[string]subquotaLimit{
	"Automotive vehicle renting or watercraft charter": {
		Since:      time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 1_090_000,
	},
	"Taxi, toll and parking": {
		Since:      time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 270_000,
	},
	"Aircraft renting or charter of aircraft": {
		Since:      time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 3_500_000,
	},
	"Fuels and lubricants": {
		Since:      time.Date(2015, 10, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 600_000,
	},
	"Security service provided by specialized company": {
		Since:      time.Date(2015, 10, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 870_000,
	},
	"Participation in course, talk or similar event": {
		Since:      time.Date(2015, 10, 1, 0, 0, 0, 0, time.UTC),
		LimitCents: 769_600,
	},
}

// MonthlySubquotaLimit flags reimbursements that push an applicant's
// cumulative spend within one subquota over that subquota's monthly
// ceiling. Once a month is over the limit every later row in the same
// partition is flagged too.
type MonthlySubquotaLimit struct {
	fitted bool
}

// NewMonthlySubquotaLimit creates the detector.
func NewMonthlySubquotaLimit() *MonthlySubquotaLimit {
	return &MonthlySubquotaLimit{}
}

// Name implements Classifier.
func (c *MonthlySubquotaLimit) Name() string { return "monthly_subquota_limit" }

// Fit implements Classifier. The "model" is the static limits table.
func (c *MonthlySubquotaLimit) Fit(_ *dataset.Dataset) error {
	c.fitted = true
	return nil
}

// Transform implements Classifier.
func (c *MonthlySubquotaLimit) Transform(_ *dataset.Dataset) error { return nil }

type monthPartition struct {
	applicant string
	subquota  string
	year      int
	month     time.Month
}

// Predict implements Classifier.
func (c *MonthlySubquotaLimit) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}

	verdicts := make([]model.Verdict, ds.Len())
	records := ds.Records()

	partitions := make(map[monthPartition][]int)
	for i, r := range records {
		limit, tracked := monthlyLimits[r.Category]
		if !tracked || r.IssueDate == nil || r.IssueDate.Before(limit.Since) {
			verdicts[i] = model.NotApplicable
			continue
		}
		key := monthPartition{
			applicant: r.ApplicantID,
			subquota:  r.Category,
			year:      r.IssueDate.Year(),
			month:     r.IssueDate.Month(),
		}
		partitions[key] = append(partitions[key], i)
	}

	for key, indices := range partitions {
		sort.SliceStable(indices, func(a, b int) bool {
			return records[indices[a]].IssueDate.Before(*records[indices[b]].IssueDate)
		})

		limit := monthlyLimits[key.subquota].LimitCents
		var cumulative int64
		breached := false
		for _, idx := range indices {
			cumulative += cents(records[idx].NetValue)
			if cumulative > limit {
				breached = true
			}
			if breached {
				verdicts[idx] = model.Suspicious
			} else {
				verdicts[idx] = model.NotSuspicious
			}
		}
	}

	return verdicts, nil
}

// AlwaysRefit implements Classifier. The fitted state is configuration, not
// learned parameters; persisting it would only go stale.
func (c *MonthlySubquotaLimit) AlwaysRefit() bool { return true }

// ModelState implements Classifier.
func (c *MonthlySubquotaLimit) ModelState() ([]byte, error) {
	return encodeState(c.fitted)
}

// RestoreModel implements Classifier.
func (c *MonthlySubquotaLimit) RestoreModel(data []byte) error {
	return decodeState(data, &c.fitted)
}

func cents(value float64) int64 {
	return int64(math.Round(value * 100))
}
