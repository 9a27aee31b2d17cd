package classifier

import (
	"strings"

	"github.com/Veraticus/quota-hawk/internal/dataset"
	"github.com/Veraticus/quota-hawk/internal/model"
	"github.com/klassmann/cpfcnpj"
)

// InvalidCnpjCpf flags reimbursements whose recipient tax id fails both the
// CPF (individual) and CNPJ (company) checksum, for document types where a
// Brazilian id is expected. Expenses made abroad are exempt.
type InvalidCnpjCpf struct {
	fitted bool
}

// NewInvalidCnpjCpf creates the detector.
func NewInvalidCnpjCpf() *InvalidCnpjCpf {
	return &InvalidCnpjCpf{}
}

// Name implements Classifier.
func (c *InvalidCnpjCpf) Name() string { return "invalid_cnpj_cpf" }

// Fit implements Classifier.
func (c *InvalidCnpjCpf) Fit(_ *dataset.Dataset) error {
	c.fitted = true
	return nil
}

// Transform implements Classifier.
func (c *InvalidCnpjCpf) Transform(_ *dataset.Dataset) error { return nil }

// Predict implements Classifier.
func (c *InvalidCnpjCpf) Predict(ds *dataset.Dataset) ([]model.Verdict, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}

	verdicts := make([]model.Verdict, ds.Len())
	for i, r := range ds.Records() {
		digits := r.RecipientDigits()
		if digits == "" || !idExpected(r.DocumentType) {
			verdicts[i] = model.NotApplicable
			continue
		}
		if validTaxID(digits) {
			verdicts[i] = model.NotSuspicious
		} else {
			verdicts[i] = model.Suspicious
		}
	}
	return verdicts, nil
}

// AlwaysRefit implements Classifier.
func (c *InvalidCnpjCpf) AlwaysRefit() bool { return true }

// ModelState implements Classifier.
func (c *InvalidCnpjCpf) ModelState() ([]byte, error) {
	return encodeState(c.fitted)
}

// RestoreModel implements Classifier.
func (c *InvalidCnpjCpf) RestoreModel(data []byte) error {
	return decodeState(data, &c.fitted)
}

func idExpected(t model.DocumentType) bool {
	switch t {
	case model.DocumentBillOfSale, model.DocumentSimpleReceipt, model.DocumentUnknown:
		return true
	}
	return false
}

// validTaxID checks the digit string against both checksums. Exports drop
// leading zeros, so the string is zero-padded to each id's full width
// before validation.
func validTaxID(digits string) bool {
	return cpfcnpj.ValidateCPF(zeroPad(digits, 11)) ||
		cpfcnpj.ValidateCNPJ(zeroPad(digits, 14))
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
