package error

import "net/http"

// AuthDeniedError covers both a missing/unknown bearer on the northbound API
// and the bridge rejecting an instance token.
type AuthDeniedError string

func (err AuthDeniedError) Error() string {
	return string(err)
}

func (err AuthDeniedError) ErrCode() string {
	return "AUTH_DENIED"
}

func (err AuthDeniedError) StatusCode() int {
	return http.StatusUnauthorized
}
