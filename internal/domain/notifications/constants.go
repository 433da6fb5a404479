package notifications

const (
	TypeRequestSubmitted = "vacation.request.submitted"
	TypeRequestApproved  = "vacation.request.approved"
	TypeRequestRejected  = "vacation.request.rejected"
	TypeRequestCancelled = "vacation.request.cancelled"
)
