package utils

import "errors"

var (
	ErrInvalidCoordinates = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
	ErrInvalidSignature   = errors.New("invalid payment signature")
)
