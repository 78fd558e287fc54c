package types

// Status represents the health status of a diagnosis step.
type Status string

const (
	// StatusHealthy indicates the step passed
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the step failed
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the step failed without failing the diagnosis
	StatusDegraded Status = "degraded"
	// StatusUnknown indicates the step status could not be determined
	StatusUnknown Status = "unknown"
)

// Detail contains the error code and message of a step result.
type Detail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result represents the result of running a single step.
type Result struct {
	Status Status `json:"status"`
	Detail Detail `json:"detail,omitempty"`
}

// Healthy returns a healthy result with an optional message.
func Healthy(message ...string) *Result {
	r := &Result{Status: StatusHealthy}
	if len(message) > 0 {
		r.Detail.Message = message[0]
	}
	return r
}

// Unhealthy returns an unhealthy result with the given error code and message.
func Unhealthy(code, message string) *Result {
	return &Result{
		Status: StatusUnhealthy,
		Detail: Detail{Code: code, Message: message},
	}
}

// Degraded returns a degraded result with the given error code and message.
func Degraded(code, message string) *Result {
	return &Result{
		Status: StatusDegraded,
		Detail: Detail{Code: code, Message: message},
	}
}

// Unknown returns an unknown result with the given code and message.
func Unknown(code, message string) *Result {
	return &Result{
		Status: StatusUnknown,
		Detail: Detail{Code: code, Message: message},
	}
}
