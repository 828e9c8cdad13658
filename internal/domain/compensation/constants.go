package compensation

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"

	DefaultCurrency = "EUR"
)

var Statuses = []string{StatusPending, StatusApproved, StatusPaid, StatusCancelled}
