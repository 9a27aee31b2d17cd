package classifier

import (
	"testing"
	"time"

	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umahmood/haversine"
)

func travelRecord(applicant string, day int, lat, lon float64) model.ReimbursementRecord {
	return model.ReimbursementRecord{
		ApplicantID:  applicant,
		Year:         2016,
		Category:     "Meal",
		NetValue:     50,
		RecipientID:  dinerID,
		Recipient:    "RESTAURANTE EXEMPLO LTDA",
		DocumentType: model.DocumentBillOfSale,
		IssueDate:    date(2016, time.July, day),
		Latitude:     coord(lat),
		Longitude:    coord(lon),
	}
}

// travelFitDataset builds one applicant with day-groups of 2, 3, 4 and 5
// expenses around Brasília, enough to fit the cubic exactly.
func travelFitDataset() []model.ReimbursementRecord {
	var records []model.ReimbursementRecord
	for day, size := range map[int]int{1: 2, 2: 3, 3: 4, 4: 5} {
		for i := 0; i < size; i++ {
			// ~15 km per step, so day distances span tens to hundreds
			// of km and threshold calibration has room to move.
			offset := float64(i) * 0.1
			records = append(records, travelRecord("600", day, -15.79+offset, -47.88+offset))
		}
	}
	return records
}

func TestNewTraveledSpeeds_ContaminationBounds(t *testing.T) {
	tests := []struct {
		name          string
		contamination float64
		wantErr       bool
	}{
		{name: "default", contamination: 0.001, wantErr: false},
		{name: "upper interior", contamination: 0.999, wantErr: false},
		{name: "zero", contamination: 0, wantErr: true},
		{name: "one", contamination: 1, wantErr: true},
		{name: "negative", contamination: -0.5, wantErr: true},
		{name: "above one", contamination: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTraveledSpeedsConfig()
			cfg.Contamination = tt.contamination
			_, err := NewTraveledSpeeds(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPairwiseDistanceKm(t *testing.T) {
	brasilia := haversine.Coord{Lat: -15.79, Lon: -47.88}
	saoPaulo := haversine.Coord{Lat: -23.55, Lon: -46.63}

	assert.Zero(t, pairwiseDistanceKm([]haversine.Coord{brasilia}))
	assert.Zero(t, pairwiseDistanceKm([]haversine.Coord{brasilia, brasilia, brasilia}))

	oneWay := pairwiseDistanceKm([]haversine.Coord{brasilia, saoPaulo})
	assert.InDelta(t, 873, oneWay, 20)

	// Three points sum all C(3,2) pairs, not a tour.
	triple := pairwiseDistanceKm([]haversine.Coord{brasilia, saoPaulo, brasilia})
	assert.InDelta(t, 2*oneWay, triple, 0.001)
}

func TestTraveledSpeeds_NormalDaysNotFlagged(t *testing.T) {
	c, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)

	ds := newDataset(travelFitDataset()...)
	require.NoError(t, c.Fit(ds))

	verdicts, err := c.Predict(ds)
	require.NoError(t, err)
	for i, v := range verdicts {
		assert.Equal(t, model.NotSuspicious, v, "row %d", i)
	}
}

func TestTraveledSpeeds_TooManyExpensesFlagsWholeDay(t *testing.T) {
	c, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)
	require.NoError(t, c.Fit(newDataset(travelFitDataset()...)))

	var records []model.ReimbursementRecord
	for i := 0; i < 9; i++ {
		records = append(records, travelRecord("601", 10, -15.79, -47.88))
	}
	verdicts, err := c.Predict(newDataset(records...))
	require.NoError(t, err)
	for i, v := range verdicts {
		assert.Equal(t, model.Suspicious, v, "row %d", i)
	}
}

func TestTraveledSpeeds_NotApplicableRows(t *testing.T) {
	party := travelRecord("", 1, -15.79, -47.88)
	party.IsPartyExpense = true

	nonMeal := travelRecord("600", 1, -15.79, -47.88)
	nonMeal.Category = "Fuels and lubricants"

	noCoords := travelRecord("600", 1, 0, 0)
	noCoords.Latitude = nil
	noCoords.Longitude = nil

	outsideBrazil := travelRecord("600", 1, 40.7, -74.0)

	// A lone expense on its own day implies no travel at all.
	singleton := travelRecord("999", 20, -15.79, -47.88)

	c, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)
	require.NoError(t, c.Fit(newDataset(travelFitDataset()...)))

	verdicts, err := c.Predict(newDataset(party, nonMeal, noCoords, outsideBrazil, singleton))
	require.NoError(t, err)
	for i, v := range verdicts {
		assert.Equal(t, model.NotApplicable, v, "row %d", i)
	}
}

func TestTraveledSpeeds_EmptyFitDegradesGracefully(t *testing.T) {
	c, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)
	require.NoError(t, c.Fit(newDataset()))

	// Only the expense-count rule can flag after an empty fit.
	verdicts, err := c.Predict(newDataset(
		travelRecord("600", 1, -15.79, -47.88),
		travelRecord("600", 1, -23.55, -46.63),
	))
	require.NoError(t, err)
	assert.Equal(t, []model.Verdict{model.NotSuspicious, model.NotSuspicious}, verdicts)
}

func TestTraveledSpeeds_ModelRoundTrip(t *testing.T) {
	fitted, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)
	require.NoError(t, fitted.Fit(newDataset(travelFitDataset()...)))

	state, err := fitted.ModelState()
	require.NoError(t, err)

	restored, err := NewTraveledSpeeds(DefaultTraveledSpeedsConfig())
	require.NoError(t, err)
	require.NoError(t, restored.RestoreModel(state))

	assert.Equal(t, fitted.model.Coeffs, restored.model.Coeffs)
	assert.Equal(t, fitted.model.Threshold, restored.model.Threshold)
}

func TestPolyfit(t *testing.T) {
	// y = 2 + 3x fitted by a degree-1 polynomial.
	coeffs := polyfit([]float64{1, 2, 3, 4}, []float64{5, 8, 11, 14}, 1)
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 2, coeffs[0], 1e-9)
	assert.InDelta(t, 3, coeffs[1], 1e-9)

	// Underdetermined input falls back to the zero polynomial.
	zero := polyfit([]float64{1}, []float64{5}, 3)
	assert.Equal(t, []float64{0, 0, 0, 0}, zero)
}

func TestPolyval(t *testing.T) {
	// 1 + 2x + 3x^2 at x=2.
	assert.InDelta(t, 17, polyval([]float64{1, 2, 3}, 2), 1e-9)
}
