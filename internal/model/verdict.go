package model

// Verdict is a classifier's per-row judgement. Classifiers distinguish
// "checked and clean" from "outside my applicability predicate"; the
// orchestrator folds both to false in the output table.
type Verdict int

// Verdict values.
const (
	NotApplicable Verdict = iota
	NotSuspicious
	Suspicious
)

// Flagged reports whether the verdict marks the row as irregular.
func (v Verdict) Flagged() bool {
	return v == Suspicious
}

func (v Verdict) String() string {
	switch v {
	case Suspicious:
		return "suspicious"
	case NotSuspicious:
		return "not_suspicious"
	default:
		return "not_applicable"
	}
}
