package classifier

import (
	"fmt"
	"math"
	"regexp"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"
)

// Hotels bill lodging under "Meal", so their prices are not comparable to
// restaurant prices.
var hotelPattern = regexp.MustCompile(`(?i)hot(el|eis|éis)`)

// MealPriceConfig holds the empirically chosen constants of the meal-price
// detector. The defaults are the observed production values.
type MealPriceConfig struct {
	// Clusters is the number of restaurant price tiers.
	Clusters int
	// ClusterStdMultiplier sets the cluster-level threshold at
	// mean + multiplier*std.
	ClusterStdMultiplier float64
	// RecipientStdMultiplier sets the tighter own-data threshold for
	// recipients with enough history.
	RecipientStdMultiplier float64
	// MinApplicants and MinRecords gate which recipients are
	// statistically meaningful (both strict lower bounds).
	MinApplicants int
	MinRecords    int
}

// DefaultMealPriceConfig returns the production constants.
func DefaultMealPriceConfig() MealPriceConfig {
	return MealPriceConfig{
		Clusters:               3,
		ClusterStdMultiplier:   4,
		RecipientStdMultiplier: 3,
		MinApplicants:          3,
		MinRecords:             20,
	}
}

// mealPriceModel is the fitted state: price-tier centroids in (mean, std)
// space with one threshold per tier, plus tighter per-recipient thresholds
// for recipients that had enough data at fit time.
type mealPriceModel struct {
	RecipientThresholds map[string]float64
	Centroids           [][2]float64
	Thresholds          []float64
}

// MealPrice flags meal reimbursements priced as outliers relative to other
// reimbursements at the same establishment. Clustering recipients into
// price tiers keeps a cheap diner's noisy day from looking like an
// expensive restaurant's overspending.
type MealPrice struct {
	model *mealPriceModel
	cfg   MealPriceConfig
}

// NewMealPrice creates the detector with the given constants.
func NewMealPrice(cfg MealPriceConfig) *MealPrice {
	return &MealPrice{cfg: cfg}
}

// Name implements Classifier.
func (c *MealPrice) Name() string { return "meal_price_outlier" }

func mealApplicable(r *model.ReimbursementRecord) bool {
	return r.Category == "Meal" &&
		len(r.RecipientDigits()) == 14 &&
		!hotelPattern.MatchString(r.Recipient)
}

// recipientStats is a per-establishment price profile.
type recipientStats struct {
	mean       float64
	std        float64
	applicants int
	records    int
}

func aggregateByRecipient(ds *dataset.Dataset) map[string]recipientStats {
	values := make(map[string][]float64)
	applicants := make(map[string]map[string]struct{})
	for i := range ds.Records() {
		r := &ds.Records()[i]
		if !mealApplicable(r) {
			continue
		}
		id := r.RecipientDigits()
		values[id] = append(values[id], r.NetValue)
		if applicants[id] == nil {
			applicants[id] = make(map[string]struct{})
		}
		applicants[id][r.ApplicantID] = struct{}{}
	}

	out := make(map[string]recipientStats, len(values))
	for id, vs := range values {
		s := recipientStats{
			mean:       stat.Mean(vs, nil),
			applicants: len(applicants[id]),
			records:    len(vs),
		}
		if len(vs) > 1 {
			s.std = stat.StdDev(vs, nil)
		}
		out[id] = s
	}
	return out
}

func (c *MealPrice) meaningful(s recipientStats) bool {
	return s.applicants > c.cfg.MinApplicants && s.records > c.cfg.MinRecords
}

// Fit implements Classifier. It profiles every applicable establishment,
// clusters the statistically meaningful ones into price tiers and derives
// an outlier threshold per tier and per meaningful recipient.
func (c *MealPrice) Fit(ds *dataset.Dataset) error {
	stats := aggregateByRecipient(ds)

	m := &mealPriceModel{RecipientThresholds: make(map[string]float64)}
	var obs clusters.Observations
	for id, s := range stats {
		if !c.meaningful(s) {
			continue
		}
		m.RecipientThresholds[id] = s.mean + c.cfg.RecipientStdMultiplier*s.std
		obs = append(obs, clusters.Coordinates{s.mean, s.std})
	}

	// With fewer meaningful recipients than tiers there is nothing to
	// cluster; the model keeps only the per-recipient thresholds.
	if len(obs) >= c.cfg.Clusters {
		km := kmeans.New()
		tiers, err := km.Partition(obs, c.cfg.Clusters)
		if err != nil {
			return fmt.Errorf("failed to cluster recipients: %w", err)
		}
		for _, tier := range tiers {
			mean, std := tier.Center[0], tier.Center[1]
			m.Centroids = append(m.Centroids, [2]float64{mean, std})
			m.Thresholds = append(m.Thresholds, mean+c.cfg.ClusterStdMultiplier*std)
		}
	}

	c.model = m
	return nil
}

// Transform implements Classifier.
func (c *MealPrice) Transform(_ *dataset.Dataset) error { return nil }

// Predict implements Classifier. Establishment profiles are recomputed from
// the predict-time data; each gets its tier's threshold, overridden by the
// fit-time own-data threshold when one exists (more specific wins).
func (c *MealPrice) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if c.model == nil {
		return nil, ErrNotFitted
	}

	stats := aggregateByRecipient(ds)
	thresholds := make(map[string]float64, len(stats))
	for id, s := range stats {
		if t, ok := c.model.RecipientThresholds[id]; ok {
			thresholds[id] = t
			continue
		}
		if tier, ok := c.nearestTier(s.mean, s.std); ok {
			thresholds[id] = c.model.Thresholds[tier]
		}
	}

	verdicts := make([]model.Verdict, ds.Len())
	for i := range ds.Records() {
		r := &ds.Records()[i]
		if !mealApplicable(r) {
			verdicts[i] = model.NotApplicable
			continue
		}
		t, ok := thresholds[r.RecipientDigits()]
		if ok && r.NetValue > t {
			verdicts[i] = model.Suspicious
		} else {
			verdicts[i] = model.NotSuspicious
		}
	}
	return verdicts, nil
}

func (c *MealPrice) nearestTier(mean, std float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, centroid := range c.model.Centroids {
		d := math.Hypot(mean-centroid[0], std-centroid[1])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// AlwaysRefit implements Classifier.
func (c *MealPrice) AlwaysRefit() bool { return false }

// ModelState implements Classifier.
func (c *MealPrice) ModelState() ([]byte, error) {
	if c.model == nil {
		return nil, ErrNotFitted
	}
	return encodeState(c.model)
}

// RestoreModel implements Classifier.
func (c *MealPrice) RestoreModel(data []byte) error {
	m := &mealPriceModel{}
	if err := decodeState(data, m); err != nil {
		return err
	}
	if m.RecipientThresholds == nil {
		m.RecipientThresholds = make(map[string]float64)
	}
	c.model = m
	return nil
}
