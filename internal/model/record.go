// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DocumentType identifies the kind of receipt backing a reimbursement.
type DocumentType string

// Document type constants.
const (
	DocumentBillOfSale    DocumentType = "bill_of_sale"
	DocumentSimpleReceipt DocumentType = "simple_receipt"
	DocumentExpenseAbroad DocumentType = "expense_made_abroad"
	DocumentUnknown       DocumentType = "unknown"
)

// Company registration situations that mean the company is no longer active.
const (
	SituationShutDown  = "BAIXADA"
	SituationVoid      = "NULA"
	SituationSuspended = "SUSPENSA"
	SituationInapt     = "INAPTA"
)

// ReimbursementRecord is a single expense line-item from the CEAP dataset.
// A record is identified by (ApplicantID, Year, DocumentID); one document
// may aggregate several underlying reimbursement events.
type ReimbursementRecord struct {
	IssueDate      *time.Time
	SituationDate  *time.Time
	Latitude       *float64
	Longitude      *float64
	ApplicantID    string
	Category       string
	RecipientID    string
	Recipient      string
	LegalEntity    string
	Situation      string
	DocumentType   DocumentType
	NetValue       float64
	Year           int
	DocumentID     int
	IsPartyExpense bool
}

// Key returns the identity triple as a single comparable string.
func (r *ReimbursementRecord) Key() string {
	return fmt.Sprintf("%s:%d:%d", r.ApplicantID, r.Year, r.DocumentID)
}

// RecipientDigits returns RecipientID stripped to its digits. CEAP exports
// carry tax ids with dots, slashes and dashes mixed in.
func (r *ReimbursementRecord) RecipientDigits() string {
	var b strings.Builder
	for _, c := range r.RecipientID {
		if c >= '0' && c <= '9' {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}

// CompanyInactive reports whether the recipient's registration situation
// means the company was no longer operating.
func (r *ReimbursementRecord) CompanyInactive() bool {
	switch r.Situation {
	case SituationShutDown, SituationVoid, SituationSuspended, SituationInapt:
		return true
	}
	return false
}
