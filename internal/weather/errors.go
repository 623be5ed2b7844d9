package weather

import "errors"

var (
	// ErrNetwork covers transport failures, non-2xx statuses and an open circuit.
	ErrNetwork = errors.New("network error")
	// ErrParse is returned when the body is not JSON of the expected shape.
	ErrParse = errors.New("parse error")
	// ErrProvider is returned when expected fields are absent from a parsed body.
	ErrProvider = errors.New("provider error")
	// ErrCredentialMissing is returned by providers that need a device-supplied key.
	ErrCredentialMissing = errors.New("provider credential missing")
)
