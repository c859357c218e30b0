package error

import "net/http"

// BridgeError means the bridge could not be reached or kept failing after
// the transport retries were exhausted.
type BridgeError string

func (err BridgeError) Error() string {
	return string(err)
}

func (err BridgeError) ErrCode() string {
	return "BRIDGE_UNAVAILABLE"
}

func (err BridgeError) StatusCode() int {
	return http.StatusServiceUnavailable
}
