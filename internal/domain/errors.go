package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateCode            = errors.New("duplicate code")
	ErrSelfParent               = errors.New("self parent")
	ErrCycleDetected            = errors.New("cycle detected")
	ErrPreconditionFailed       = errors.New("precondition failed")
	ErrAllocationExceedsRequest = errors.New("allocation exceeds request")
	ErrUnknownSourceLine        = errors.New("unknown source line")
	ErrInvalidAmount            = errors.New("invalid amount")
)

// DuplicateCodeError reports a non-empty code shared by several records.
type DuplicateCodeError struct {
	Code          string
	RecordIndices []int
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("duplicate code %q on records %v", e.Code, e.RecordIndices)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicateCode }

type SelfParentError struct {
	Code string
}

func (e *SelfParentError) Error() string {
	return fmt.Sprintf("code %q is its own parent", e.Code)
}

func (e *SelfParentError) Unwrap() error { return ErrSelfParent }

// CycleDetectedError lists, sorted, every code left over after topological
// removal. They sit on or below at least one cycle.
type CycleDetectedError struct {
	Codes []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected among codes [%s]", strings.Join(e.Codes, ", "))
}

func (e *CycleDetectedError) Unwrap() error { return ErrCycleDetected }

type PreconditionFailedError struct {
	Reason string
}

func (e *PreconditionFailedError) Error() string {
	return "precondition failed: " + e.Reason
}

func (e *PreconditionFailedError) Unwrap() error { return ErrPreconditionFailed }

type AllocationExceedsRequestError struct {
	SourceLineID   string
	AttemptedTotal decimal.Decimal
	Limit          decimal.Decimal
}

func (e *AllocationExceedsRequestError) Error() string {
	return fmt.Sprintf("source line %s: linked total %s exceeds requested %s",
		e.SourceLineID, e.AttemptedTotal.String(), e.Limit.String())
}

func (e *AllocationExceedsRequestError) Unwrap() error { return ErrAllocationExceedsRequest }

type UnknownSourceLineError struct {
	SourceLineID string
}

func (e *UnknownSourceLineError) Error() string {
	return fmt.Sprintf("source line %q not found", e.SourceLineID)
}

func (e *UnknownSourceLineError) Unwrap() error { return ErrUnknownSourceLine }

type InvalidAmountError struct {
	Field  string
	Ref    string
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s %s: amount %s must not be negative", e.Field, e.Ref, e.Amount.String())
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

type WarningKind string

const (
	WarnOrphanedParentReference WarningKind = "orphaned_parent_reference"
	WarnUnattachedRecord        WarningKind = "unattached_record"
	WarnIgnoredParentValue      WarningKind = "ignored_parent_value"
	WarnOverpaymentResidual     WarningKind = "overpayment_residual"
)

// Warning is a non-fatal finding. Warnings never block aggregation or export.
type Warning struct {
	Kind    WarningKind
	Subject string
	Message string
}

func (w Warning) String() string { return w.Message }

func OrphanedParentReference(code, parentCode string) Warning {
	return Warning{
		Kind:    WarnOrphanedParentReference,
		Subject: code,
		Message: fmt.Sprintf("code %q references unknown parent %q; treated as root", code, parentCode),
	}
}

func UnattachedRecord(index int, label string) Warning {
	return Warning{
		Kind:    WarnUnattachedRecord,
		Subject: fmt.Sprintf("#%d", index),
		Message: fmt.Sprintf("record %d (%q) has no code and is not part of the tree", index, label),
	}
}

func IgnoredParentValue(code string) Warning {
	return Warning{
		Kind:    WarnIgnoredParentValue,
		Subject: code,
		Message: fmt.Sprintf("values entered on parent %q were ignored; parents roll up from leaves", code),
	}
}

func OverpaymentResidual(paymentNo string, amount decimal.Decimal) Warning {
	return Warning{
		Kind:    WarnOverpaymentResidual,
		Subject: paymentNo,
		Message: fmt.Sprintf("payment %s left %s unallocated", paymentNo, amount.String()),
	}
}

// ValidationError carries every error found in one validation pass.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed (%d errors):", len(e.Errs))
	for _, err := range e.Errs {
		msg += "\n  - " + err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error { return e.Errs }
