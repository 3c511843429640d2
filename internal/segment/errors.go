package segment

import "errors"

// Error definitions for invalid engine input and configuration.
var (
	ErrInvalidConfig      = errors.New("invalid note segmentation configuration")
	ErrInvalidObservation = errors.New("invalid frame observation")
)
