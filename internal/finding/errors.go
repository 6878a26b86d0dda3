package finding

import "errors"

// Sentinel errors for the finding package.
var (
	// ErrUnknownSeverity is returned when a severity name is not recognized.
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrUnknownKind is returned when a kind name is not recognized.
	ErrUnknownKind = errors.New("unknown finding kind")
)
