package exception

import "errors"

var (
	ErrConfigUnsupportedFormat = errors.New("config: unsupported file format")
	ErrConfigInvalid           = errors.New("config: invalid value")
)
