package linkset

import "errors"

var (
	ErrUnsupportedScheme = errors.New("url scheme must be http or https")
	ErrMissingHost       = errors.New("url has no host")
)
