// Package errors provides structured error types for dynrestore
// with error codes, categories, and remediation guidance.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier.
type ErrorCode string

// Error codes for dynrestore.
// Format: DYNRESTORE-<CATEGORY><NUMBER>
// Categories: L=Lock, V=Validation, D=Driver, T=Timeout, S=Swap, C=Cleanup, B=Bug
const (
	// Lock errors (another run in progress)
	ErrCodeLockContention ErrorCode = "DYNRESTORE-L001"
	ErrCodeLockIO         ErrorCode = "DYNRESTORE-L002"

	// Recovery point validation errors
	ErrCodeRestorePointUnparsable ErrorCode = "DYNRESTORE-V001"
	ErrCodeRestorePointTooOld     ErrorCode = "DYNRESTORE-V002"
	ErrCodeRestorePointFuture     ErrorCode = "DYNRESTORE-V003"

	// Driver errors (provider rejected a restore request)
	ErrCodeRestoreRejected    ErrorCode = "DYNRESTORE-D001"
	ErrCodeInvalidRestoreTime ErrorCode = "DYNRESTORE-D002"
	ErrCodeDescribeFailed     ErrorCode = "DYNRESTORE-D003"

	// Timeout errors
	ErrCodePollTimeout ErrorCode = "DYNRESTORE-T001"

	// Swap errors
	ErrCodeClearFailed ErrorCode = "DYNRESTORE-S001"
	ErrCodeCopyFailed  ErrorCode = "DYNRESTORE-S002"

	// Cleanup warnings (non-fatal)
	ErrCodeCleanupIncomplete ErrorCode = "DYNRESTORE-C001"

	// Internal errors (report to maintainers)
	ErrCodeInvalidState ErrorCode = "DYNRESTORE-B001"
)

// Category represents error categories. Everything except CategoryCleanup is
// terminal for a run.
type Category string

const (
	CategoryLock       Category = "lock"
	CategoryValidation Category = "validation"
	CategoryDriver     Category = "driver"
	CategoryTimeout    Category = "timeout"
	CategorySwap       Category = "swap"
	CategoryCleanup    Category = "cleanup"
	CategoryInternal   Category = "internal"
)

// RestoreError is a structured error with code, category, and remediation.
type RestoreError struct {
	Code        ErrorCode
	Category    Category
	Message     string
	Details     string
	Remediation string
	Cause       error
}

// Error implements the error interface.
func (e *RestoreError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += fmt.Sprintf("\n\nDetails:\n  %s", e.Details)
	}
	if e.Remediation != "" {
		msg += fmt.Sprintf("\n\nTo fix:\n  %s", e.Remediation)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RestoreError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is comparison by code.
func (e *RestoreError) Is(target error) bool {
	if t, ok := target.(*RestoreError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetails adds details to an error.
func (e *RestoreError) WithDetails(details string) *RestoreError {
	e.Details = details
	return e
}

// WithCause adds an underlying cause.
func (e *RestoreError) WithCause(cause error) *RestoreError {
	e.Cause = cause
	return e
}

// LockContention reports that another restore run holds the execution lock.
func LockContention(lockFile string) *RestoreError {
	return &RestoreError{
		Code:     ErrCodeLockContention,
		Category: CategoryLock,
		Message:  "Another restore is already in progress",
		Details:  fmt.Sprintf("Lock file: %s", lockFile),
		Remediation: `Wait for the other run to finish, or if no run is active,
  remove the lock file manually. Stale locks older than one hour are
  reclaimed automatically.`,
	}
}

// RestorePointTooOld reports a recovery point beyond the retention window.
func RestorePointTooOld(ageDays int, maxDays int) *RestoreError {
	return &RestoreError{
		Code:     ErrCodeRestorePointTooOld,
		Category: CategoryValidation,
		Message:  "Invalid restore point",
		Details:  fmt.Sprintf("Restore point is %d days old, maximum is %d days", ageDays, maxDays),
		Remediation: fmt.Sprintf(`Choose a restore point within the last %d days.
  Point-in-time recovery cannot reach further back than the retention window.`, maxDays),
	}
}

// RestorePointInFuture reports a recovery point ahead of the wall clock.
func RestorePointInFuture() *RestoreError {
	return &RestoreError{
		Code:        ErrCodeRestorePointFuture,
		Category:    CategoryValidation,
		Message:     "Invalid restore point",
		Details:     "Restore point is in the future",
		Remediation: "Choose a restore point in the past. Check the timezone of the supplied timestamp.",
	}
}

// RestorePointUnparsable reports an unparsable recovery point input.
func RestorePointUnparsable(input string, cause error) *RestoreError {
	return &RestoreError{
		Code:        ErrCodeRestorePointUnparsable,
		Category:    CategoryValidation,
		Message:     "Invalid restore point",
		Details:     fmt.Sprintf("Could not parse %q as a timestamp", input),
		Remediation: "Use ISO 8601, e.g. 2026-08-27T09:00:00Z or 2026-08-27T11:00:00 (naive, default zone applied).",
		Cause:       cause,
	}
}

// RestoreRejected reports a provider-side rejection of restore initiation.
func RestoreRejected(table string, cause error) *RestoreError {
	return &RestoreError{
		Code:     ErrCodeRestoreRejected,
		Category: CategoryDriver,
		Message:  fmt.Sprintf("Provider rejected restore of table %s", table),
		Cause:    cause,
	}
}

// InvalidRestoreTime reports a rejection citing an invalid recovery window,
// enriched with the provider's actual restorable bounds when known.
func InvalidRestoreTime(table, earliest, latest string, cause error) *RestoreError {
	details := fmt.Sprintf("Table: %s", table)
	if earliest != "" && latest != "" {
		details += fmt.Sprintf("\nValid restore window:\n    Earliest: %s\n    Latest:   %s", earliest, latest)
	}
	return &RestoreError{
		Code:        ErrCodeInvalidRestoreTime,
		Category:    CategoryDriver,
		Message:     "Restore point outside the table's restorable window",
		Details:     details,
		Remediation: "Pick a restore point inside the window above and re-run.",
		Cause:       cause,
	}
}

// PollTimeout reports that restore tables did not all become ready in time.
func PollTimeout(timeoutMinutes int, pending []string) *RestoreError {
	details := fmt.Sprintf("Timed out after %d minutes", timeoutMinutes)
	if len(pending) > 0 {
		details += "\nStill not ready:"
		for _, t := range pending {
			details += "\n    - " + t
		}
	}
	return &RestoreError{
		Code:     ErrCodePollTimeout,
		Category: CategoryTimeout,
		Message:  "Restore operation timed out",
		Details:  details,
		Remediation: `The provider-side restore keeps running. Re-run with the same
  restore point to resume waiting on the same tables, or increase
  --timeout-minutes. Restore tables are left in place for inspection.`,
	}
}

// SwapFailed reports a batch delete/write failure mid-swap.
func SwapFailed(code ErrorCode, table string, cause error) *RestoreError {
	return &RestoreError{
		Code:     code,
		Category: CategorySwap,
		Message:  fmt.Sprintf("Data swap failed for table %s", table),
		Remediation: `Tables swapped before the failure are not rolled back.
  Re-run with the same restore point, or intervene manually.`,
		Cause: cause,
	}
}

// CleanupIncomplete reports that some restore tables could not be deleted.
// Recovered locally; never fails a completed run.
func CleanupIncomplete(cause error) *RestoreError {
	return &RestoreError{
		Code:        ErrCodeCleanupIncomplete,
		Category:    CategoryCleanup,
		Message:     "Some restore tables could not be deleted",
		Remediation: "Delete the leftover -restore- tables manually to avoid storage costs.",
		Cause:       cause,
	}
}

// GetCategory returns the error category if available.
func GetCategory(err error) Category {
	var restoreErr *RestoreError
	if errors.As(err, &restoreErr) {
		return restoreErr.Category
	}
	return ""
}

// GetCode returns the error code if available.
func GetCode(err error) ErrorCode {
	var restoreErr *RestoreError
	if errors.As(err, &restoreErr) {
		return restoreErr.Code
	}
	return ""
}

// IsTerminal reports whether the error must fail the run. Cleanup warnings
// are the only recoverable category.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	return GetCategory(err) != CategoryCleanup
}

// Reason returns the short failure reason recorded in the run status.
func Reason(err error) string {
	var restoreErr *RestoreError
	if errors.As(err, &restoreErr) {
		return restoreErr.Message
	}
	return err.Error()
}
