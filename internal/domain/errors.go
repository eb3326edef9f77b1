package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/contest-service/pkg/util/errorutil"
)

// Error codes for contest lifecycle violations.
const (
	CodeInvalidInitialState             = "INVALID_INITIAL_STATE"
	CodeIllegalTransition               = "ILLEGAL_TRANSITION"
	CodePublishLockDateTooSoon          = "PUBLISH_LOCK_DATE_TOO_SOON"
	CodeFinalizeLockDateNotPassed       = "FINALIZE_LOCK_DATE_NOT_PASSED"
	CodeFinalizeInsufficientContestants = "FINALIZE_INSUFFICIENT_CONTESTANTS"
	CodeNameImmutableAfterPublish       = "NAME_IMMUTABLE_AFTER_PUBLISH"
	CodeLockDateImmutableAfterPublish   = "LOCK_DATE_IMMUTABLE_AFTER_PUBLISH"
	CodeDeleteBlockedByContestants      = "DELETE_BLOCKED_BY_CONTESTANTS"
	CodeNotFound                        = "NOT_FOUND"
)

// Sentinels for errors.Is. Returned errors may carry a more specific message
// but always share the sentinel's code.
var (
	ErrInvalidInitialState = lifecycleError(CodeInvalidInitialState,
		"A contest can only be created in a draft state.")
	ErrIllegalTransition = lifecycleError(CodeIllegalTransition,
		"A contest cannot move between these statuses.")
	ErrPublishLockDateTooSoon = lifecycleError(CodePublishLockDateTooSoon,
		"A contest can only be published if the lock date is at least three days in the future.")
	ErrFinalizeLockDateNotPassed = lifecycleError(CodeFinalizeLockDateNotPassed,
		"A contest can only be finalized if the lock date has passed.")
	ErrFinalizeInsufficientContestants = lifecycleError(CodeFinalizeInsufficientContestants,
		"A contest can only be finalized if it has at least 10 contestants.")
	ErrNameImmutableAfterPublish = lifecycleError(CodeNameImmutableAfterPublish,
		"A contest's name cannot be modified once the contest has been published.")
	ErrLockDateImmutableAfterPublish = lifecycleError(CodeLockDateImmutableAfterPublish,
		"A contest's lock date cannot be modified once the contest has been published.")
	ErrDeleteBlockedByContestants = lifecycleError(CodeDeleteBlockedByContestants,
		"A contest cannot be deleted if it has contestants.")
	ErrNotFound = apperrors.NewDomainError(CodeNotFound, "resource not found", http.StatusNotFound, nil)
)

func lifecycleError(code, message string) *apperrors.DomainError {
	return apperrors.NewDomainError(code, message, http.StatusUnprocessableEntity, nil)
}
