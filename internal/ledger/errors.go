// internal/ledger/errors.go
package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind is a machine-readable classification of a gateway or dispatcher
// failure. Every failure surfaced to a UI carries exactly one kind.
type ErrorKind string

const (
	// KindConnection: no signing session or no reachable ledger endpoint.
	// Fatal to the attempted action, never retried automatically.
	KindConnection ErrorKind = "CONNECTION"

	// KindUserRejected: the session holder declined to authorize the request.
	KindUserRejected ErrorKind = "USER_REJECTED"

	// KindPhaseViolation: the action is illegal for the current phase,
	// detected locally before any network call.
	KindPhaseViolation ErrorKind = "PHASE_VIOLATION"

	// KindValidation: malformed input caught locally before submission.
	KindValidation ErrorKind = "VALIDATION"

	// KindRevert: the ledger rejected the mutation outright.
	KindRevert ErrorKind = "LEDGER_REVERT"

	// KindMinedFailure: the transaction was included but failed during
	// execution, possibly consuming cost without effect.
	KindMinedFailure ErrorKind = "MINED_FAILURE"

	// KindReadFailure: a reconciliation read failed. Non-fatal; the affected
	// view slice keeps its last good value.
	KindReadFailure ErrorKind = "READ_FAILURE"

	// KindUnknown is the fallback for errors with no classification.
	KindUnknown ErrorKind = "UNKNOWN"
)

// Error is a classified failure. Op names the operation that failed
// ("game.placeBet"), Reason carries the ledger-provided revert text when one
// exists.
type Error struct {
	Kind   ErrorKind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error with a human reason.
func E(kind ErrorKind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

// WrapErr classifies an underlying error without losing it.
func WrapErr(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
