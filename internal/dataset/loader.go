package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/gocarina/gocsv"
	"github.com/ulikunitz/xz"
)

// Date layouts seen in CEAP exports.
var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05"}

// nullableFloat parses to nil on empty or malformed input instead of
// failing the row. Geocoding upstream leaves plenty of holes.
type nullableFloat struct {
	value *float64
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (f *nullableFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		f.value = nil
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.value = nil
		return nil
	}
	f.value = &v
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (f *nullableFloat) MarshalCSV() (string, error) {
	if f.value == nil {
		return "", nil
	}
	return strconv.FormatFloat(*f.value, 'f', -1, 64), nil
}

// nullableDate parses to nil on empty or malformed input.
type nullableDate struct {
	value *time.Time
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *nullableDate) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		d.value = nil
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.value = &t
			return nil
		}
	}
	d.value = nil
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (d *nullableDate) MarshalCSV() (string, error) {
	if d.value == nil {
		return "", nil
	}
	return d.value.Format("2006-01-02"), nil
}

// csvRecord mirrors the column set of the cleaned CEAP dataset.
type csvRecord struct {
	ApplicantID   string        `csv:"applicant_id"`
	Year          int           `csv:"year"`
	DocumentID    int           `csv:"document_id"`
	Category      string        `csv:"category"`
	NetValue      float64       `csv:"net_value"`
	RecipientID   string        `csv:"recipient_id"`
	Recipient     string        `csv:"recipient"`
	Latitude      nullableFloat `csv:"latitude"`
	Longitude     nullableFloat `csv:"longitude"`
	IssueDate     nullableDate  `csv:"issue_date"`
	DocumentType  string        `csv:"document_type"`
	Situation     string        `csv:"situation"`
	SituationDate nullableDate  `csv:"situation_date"`
	LegalEntity   string        `csv:"legal_entity"`
}

// Load reads a dataset from a CSV file, transparently decompressing when the
// path ends in .xz.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, xzErr := xz.NewReader(f)
		if xzErr != nil {
			return nil, fmt.Errorf("failed to open xz stream: %w", xzErr)
		}
		reader = xr
	}

	return Read(reader)
}

// Read parses CSV rows from r into a Dataset.
func Read(r io.Reader) (*Dataset, error) {
	var rows []*csvRecord
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	records := make([]model.ReimbursementRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return New(records), nil
}

func (c *csvRecord) toRecord() model.ReimbursementRecord {
	docType := model.DocumentType(c.DocumentType)
	switch docType {
	case model.DocumentBillOfSale, model.DocumentSimpleReceipt, model.DocumentExpenseAbroad:
	default:
		docType = model.DocumentUnknown
	}

	return model.ReimbursementRecord{
		ApplicantID:    c.ApplicantID,
		Year:           c.Year,
		DocumentID:     c.DocumentID,
		Category:       c.Category,
		NetValue:       c.NetValue,
		RecipientID:    c.RecipientID,
		Recipient:      c.Recipient,
		Latitude:       c.Latitude.value,
		Longitude:      c.Longitude.value,
		IssueDate:      c.IssueDate.value,
		DocumentType:   docType,
		Situation:      c.Situation,
		SituationDate:  c.SituationDate.value,
		LegalEntity:    c.LegalEntity,
		IsPartyExpense: c.ApplicantID == "",
	}
}
