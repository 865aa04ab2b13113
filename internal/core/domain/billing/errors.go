package billing

import "errors"

var (
	ErrUsagePeriodNotFound  = errors.New("billing: usage period not found")
	ErrUsagePeriodAlreadyReported = errors.New("billing: usage period already reported")
)
