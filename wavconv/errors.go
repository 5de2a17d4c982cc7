package wavconv

import "errors"

var (
	ErrNotFound          = errors.New("sample file not found")
	ErrMalformed         = errors.New("malformed wav container")
	ErrMissingChunk      = errors.New("required chunk missing")
	ErrUnsupportedFormat = errors.New("unsupported bits per sample")
)
