package vacation

import "errors"

var (
	// Validation: the caller supplied a bad range. Rejected before any
	// transaction is opened.
	ErrInvalidDateRange = errors.New("end date before start date")
	ErrDateInPast       = errors.New("start date is in the past")

	// Conflict: a business invariant would be violated given current
	// stored state. The caller must re-fetch before resubmitting.
	ErrOverlappingRequest = errors.New("overlapping vacation request exists")
	ErrInvalidStatus      = errors.New("request is not in a reviewable state")

	// Authorization.
	ErrForbidden            = errors.New("forbidden")
	ErrCannotCancelApproved = errors.New("approved request cannot be cancelled")
	ErrCannotCancelRejected = errors.New("rejected request cannot be cancelled")

	ErrNotFound = errors.New("vacation request not found")
)
