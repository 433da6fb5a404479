package vacation

import "time"

// VacationRequest is an inclusive calendar date range a user wants to
// take off. TotalDays is fixed at creation from the weekend policy in
// effect at that moment and never recomputed, so a later policy change
// cannot silently alter the cost of a stored request.
//
// Review metadata is present exactly when the request has been approved
// or rejected; a pending or cancelled request carries none.
type VacationRequest struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	TotalDays       int        `json:"totalDays"`
	Reason          string     `json:"reason,omitempty"`
	Status          Status     `json:"status"`
	ReviewedBy      *string    `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
