package error

import "net/http"

// PlanDeniedError signals that the owning tenant has no valid plan window,
// lacks the api module flag, or ran over a plan quota.
type PlanDeniedError string

func (err PlanDeniedError) Error() string {
	return string(err)
}

func (err PlanDeniedError) ErrCode() string {
	return "PLAN_DENIED"
}

func (err PlanDeniedError) StatusCode() int {
	return http.StatusForbidden
}
