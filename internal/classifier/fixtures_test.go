package classifier

import (
	"time"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
)

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func coord(v float64) *float64 {
	return &v
}

// mealRecord builds an applicable meal reimbursement at a company
// recipient.
func mealRecord(applicant, recipientID string, value float64) model.ReimbursementRecord {
	return model.ReimbursementRecord{
		ApplicantID:  applicant,
		Year:         2016,
		Category:     "Meal",
		NetValue:     value,
		RecipientID:  recipientID,
		Recipient:    "RESTAURANTE EXEMPLO LTDA",
		DocumentType: model.DocumentBillOfSale,
		IssueDate:    date(2016, 5, 10),
	}
}

func newDataset(records ...model.ReimbursementRecord) *dataset.Dataset {
	for i := range records {
		records[i].DocumentID = i + 1
	}
	return dataset.New(records)
}
