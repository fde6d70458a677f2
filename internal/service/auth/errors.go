package auth

import "errors"

// Token errors. The API answers all of them with 401.
var (
	ErrInvalidToken     = errors.New("invalid authentication token")
	ErrExpiredToken     = errors.New("authentication token has expired")
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken means the request carried no credential at all.
	ErrMissingToken = errors.New("authentication token is missing")
)
