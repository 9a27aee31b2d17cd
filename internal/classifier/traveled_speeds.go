package classifier

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/umahmood/haversine"
	"gonum.org/v1/gonum/mat"
)

// Brazil's bounding box; coordinates outside it are geocoding noise.
const (
	brazilLonMin = -73.99
	brazilLonMax = -34.79
	brazilLatMin = -33.74
	brazilLatMax = 5.27
)

// TraveledSpeedsConfig holds the detector's constants. The defaults are the
// observed production values.
type TraveledSpeedsConfig struct {
	// Contamination is the target share of day-groups to flag when
	// calibrating the residual threshold. Must be strictly inside (0,1).
	Contamination float64
	// Degree of the polynomial regressing distance on expense count.
	Degree int
	// ThresholdStep is the calibration step, in km.
	ThresholdStep float64
	// MaxExpenses flags any day with more same-day meals than this
	// outright.
	MaxExpenses int
}

// DefaultTraveledSpeedsConfig returns the production constants.
func DefaultTraveledSpeedsConfig() TraveledSpeedsConfig {
	return TraveledSpeedsConfig{
		Contamination: 0.001,
		Degree:        3,
		ThresholdStep: 50,
		MaxExpenses:   8,
	}
}

// traveledSpeedsModel is the fitted state: polynomial coefficients in
// ascending degree order plus the calibrated absolute-residual threshold.
type traveledSpeedsModel struct {
	Coeffs    []float64
	Threshold float64
}

// TraveledSpeeds flags days where one applicant's same-day meal expenses
// imply physically implausible travel. The distance measure is the sum over
// all location pairs, not a shortest tour, so scattered same-day locations
// are penalized harder than a plausible route.
type TraveledSpeeds struct {
	model *traveledSpeedsModel
	cfg   TraveledSpeedsConfig
}

// NewTraveledSpeeds creates the detector, rejecting out-of-range
// contamination values.
func NewTraveledSpeeds(cfg TraveledSpeedsConfig) (*TraveledSpeeds, error) {
	if cfg.Contamination <= 0 || cfg.Contamination >= 1 {
		return nil, fmt.Errorf("contamination must be in (0, 1), got %v", cfg.Contamination)
	}
	if cfg.Degree <= 0 {
		return nil, fmt.Errorf("polynomial degree must be positive, got %d", cfg.Degree)
	}
	if cfg.ThresholdStep <= 0 {
		return nil, fmt.Errorf("threshold step must be positive, got %v", cfg.ThresholdStep)
	}
	return &TraveledSpeeds{cfg: cfg}, nil
}

// Name implements Classifier.
func (c *TraveledSpeeds) Name() string { return "traveled_speeds" }

func travelApplicable(r *model.ReimbursementRecord) bool {
	return r.Category == "Meal" &&
		!r.IsPartyExpense &&
		r.IssueDate != nil &&
		r.Latitude != nil && r.Longitude != nil &&
		*r.Longitude > brazilLonMin && *r.Longitude < brazilLonMax &&
		*r.Latitude > brazilLatMin && *r.Latitude < brazilLatMax
}

type dayKey struct {
	applicant string
	date      time.Time
}

// dayGroup is one applicant-day of meal expenses with known locations.
type dayGroup struct {
	rows     []int
	distance float64
}

// groupByDay buckets applicable rows per (applicant, issue date) and
// computes each bucket's total pairwise distance. Days with a single
// expense imply no travel and are dropped.
func groupByDay(ds *dataset.Dataset) map[dayKey]*dayGroup {
	groups := make(map[dayKey]*dayGroup)
	for i := range ds.Records() {
		r := &ds.Records()[i]
		if !travelApplicable(r) {
			continue
		}
		key := dayKey{
			applicant: r.ApplicantID,
			date:      time.Date(r.IssueDate.Year(), r.IssueDate.Month(), r.IssueDate.Day(), 0, 0, 0, 0, time.UTC),
		}
		if groups[key] == nil {
			groups[key] = &dayGroup{}
		}
		groups[key].rows = append(groups[key].rows, i)
	}

	records := ds.Records()
	for key, g := range groups {
		if len(g.rows) < 2 {
			delete(groups, key)
			continue
		}
		points := make([]haversine.Coord, len(g.rows))
		for j, idx := range g.rows {
			points[j] = haversine.Coord{Lat: *records[idx].Latitude, Lon: *records[idx].Longitude}
		}
		g.distance = pairwiseDistanceKm(points)
	}
	return groups
}

// pairwiseDistanceKm sums the great-circle distance over all C(n,2) point
// pairs.
func pairwiseDistanceKm(points []haversine.Coord) float64 {
	var total float64
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			_, km := haversine.Distance(points[i], points[j])
			total += km
		}
	}
	return total
}

// Fit implements Classifier. It regresses day-distance on expense count
// with a polynomial, then calibrates the residual threshold whose flag rate
// comes closest to the target contamination.
func (c *TraveledSpeeds) Fit(ds *dataset.Dataset) error {
	groups := groupByDay(ds)

	// Graceful degradation on empty fit data: a zero polynomial with an
	// unreachable threshold flags only the expense-count rule.
	if len(groups) == 0 {
		c.model = &traveledSpeedsModel{
			Coeffs:    make([]float64, c.cfg.Degree+1),
			Threshold: math.Inf(1),
		}
		return nil
	}

	xs := make([]float64, 0, len(groups))
	ys := make([]float64, 0, len(groups))
	expenses := make([]int, 0, len(groups))
	for _, g := range groups {
		xs = append(xs, float64(len(g.rows)))
		ys = append(ys, g.distance)
		expenses = append(expenses, len(g.rows))
	}

	coeffs := polyfit(xs, ys, c.cfg.Degree)

	residuals := make([]float64, len(xs))
	maxPredicted := 0.0
	for i := range xs {
		predicted := polyval(coeffs, xs[i])
		residuals[i] = math.Abs(ys[i] - predicted)
		if predicted > maxPredicted {
			maxPredicted = predicted
		}
	}

	c.model = &traveledSpeedsModel{
		Coeffs:    coeffs,
		Threshold: c.calibrateThreshold(residuals, expenses, maxPredicted),
	}
	return nil
}

// calibrateThreshold steps candidate thresholds and keeps the one whose
// flag rate is closest to the contamination target. Groups already flagged
// by the expense-count rule do not count towards the rate.
func (c *TraveledSpeeds) calibrateThreshold(residuals []float64, expenses []int, maxPredicted float64) float64 {
	total := float64(len(residuals))
	best := 0.0
	bestGap := math.Inf(1)
	for t := 0.0; t <= maxPredicted; t += c.cfg.ThresholdStep {
		flagged := 0
		for i, res := range residuals {
			if expenses[i] <= c.cfg.MaxExpenses && res > t {
				flagged++
			}
		}
		gap := math.Abs(float64(flagged)/total - c.cfg.Contamination)
		if gap < bestGap {
			best, bestGap = t, gap
		}
	}
	return best
}

// Transform implements Classifier.
func (c *TraveledSpeeds) Transform(_ *dataset.Dataset) error { return nil }

// Predict implements Classifier. Every row of a flagged applicant-day is
// flagged.
func (c *TraveledSpeeds) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if c.model == nil {
		return nil, ErrNotFitted
	}

	verdicts := make([]model.Verdict, ds.Len())
	for _, g := range groupByDay(ds) {
		residual := math.Abs(g.distance - polyval(c.model.Coeffs, float64(len(g.rows))))
		suspicious := len(g.rows) > c.cfg.MaxExpenses || residual > c.model.Threshold
		for _, idx := range g.rows {
			if suspicious {
				verdicts[idx] = model.Suspicious
			} else {
				verdicts[idx] = model.NotSuspicious
			}
		}
	}
	return verdicts, nil
}

// AlwaysRefit implements Classifier.
func (c *TraveledSpeeds) AlwaysRefit() bool { return false }

// ModelState implements Classifier.
func (c *TraveledSpeeds) ModelState() ([]byte, error) {
	if c.model == nil {
		return nil, ErrNotFitted
	}
	return encodeState(c.model)
}

// RestoreModel implements Classifier.
func (c *TraveledSpeeds) RestoreModel(data []byte) error {
	m := &traveledSpeedsModel{}
	if err := decodeState(data, m); err != nil {
		return err
	}
	c.model = m
	return nil
}

// polyfit solves the least-squares polynomial of the given degree,
// returning coefficients in ascending order. Underdetermined input falls
// back to the zero polynomial.
func polyfit(xs, ys []float64, degree int) []float64 {
	n := degree + 1
	if len(xs) < n {
		return make([]float64, n)
	}

	a := mat.NewDense(len(xs), n, nil)
	for i, x := range xs {
		v := 1.0
		for j := 0; j < n; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var solved mat.VecDense
	err := qr.SolveVecTo(&solved, false, mat.NewVecDense(len(ys), ys))
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return make([]float64, n)
		}
	}

	coeffs := make([]float64, n)
	for j := 0; j < n; j++ {
		coeffs[j] = solved.AtVec(j)
	}
	return coeffs
}

func polyval(coeffs []float64, x float64) float64 {
	var y float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}
