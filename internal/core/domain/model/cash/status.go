package cash

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

type ReconciliationStatus int

const (
	UnknownStatus ReconciliationStatus = iota
	Pending
	Reconciled
	Discrepancy
)

var statusStrings = map[ReconciliationStatus]string{
	Pending:     "pending",
	Reconciled:  "reconciled",
	Discrepancy: "discrepancy",
}

func ParseStatus(s string) (ReconciliationStatus, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("reconciliation status", fmt.Errorf("%q is not a reconciliation status", s))
}

func (s ReconciliationStatus) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "unknown"
}

// Classify derives the reconciliation status of a record.
// An override close pins the record to reconciled; otherwise a discrepancy beyond
// tolerance always wins, even over an earlier close.
func Classify(discrepancy, tolerance int64, closed, override bool) ReconciliationStatus {
	switch {
	case closed && override:
		return Reconciled
	case abs(discrepancy) > tolerance:
		return Discrepancy
	case closed:
		return Reconciled
	default:
		return Pending
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
