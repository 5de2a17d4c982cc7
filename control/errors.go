package control

import "errors"

var (
	ErrStopIndex      = errors.New("stop index out of range")
	ErrInvalidChannel = errors.New("channel must be between 0 and 15")
	ErrBusClosed      = errors.New("command bus disconnected")
)
