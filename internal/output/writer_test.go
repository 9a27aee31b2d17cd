package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func sampleRows() []model.Suspicion {
	return []model.Suspicion{
		{
			ApplicantID: "10",
			Year:        2016,
			DocumentID:  1,
			Flags:       map[string]bool{"election_expenses": true, "irregular_companies": false},
		},
		{
			ApplicantID: "11",
			Year:        2017,
			DocumentID:  2,
			Flags:       map[string]bool{"election_expenses": false, "irregular_companies": true},
		},
	}
}

func TestWriter_PlainCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suspicions.csv")
	w := NewWriter(path)

	columns := []string{"election_expenses", "irregular_companies"}
	require.NoError(t, w.Write(columns, sampleRows()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"applicant_id", "year", "document_id", "election_expenses", "irregular_companies"}, rows[0])
	assert.Equal(t, []string{"10", "2016", "1", "true", "false"}, rows[1])
	assert.Equal(t, []string{"11", "2017", "2", "false", "true"}, rows[2])
}

func TestWriter_XzCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suspicions.csv.xz")
	w := NewWriter(path)

	require.NoError(t, w.Write([]string{"election_expenses", "irregular_companies"}, sampleRows()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	xr, err := xz.NewReader(f)
	require.NoError(t, err)

	rows, err := csv.NewReader(xr).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"10", "2016", "1", "true", "false"}, rows[1])
}

func TestWriter_CreatesOutputDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "suspicions.csv")
	require.NoError(t, NewWriter(path).Write([]string{"election_expenses"}, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
