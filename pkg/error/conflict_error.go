package error

import "net/http"

// ConflictError marks duplicate-key situations (wamid already stored,
// recipient already planned). Most callers swallow it.
type ConflictError string

func (err ConflictError) Error() string {
	return string(err)
}

func (err ConflictError) ErrCode() string {
	return "CONFLICT"
}

func (err ConflictError) StatusCode() int {
	return http.StatusConflict
}
