package error

// GenericError is implemented by every typed error in this package so the
// REST recovery middleware can map a panic back to an HTTP envelope.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
