package domain

import "errors"

// Validation errors returned by the entity constructors and Validate methods.
var (
	ErrInvalidUserID     = errors.New("invalid userid")
	ErrEmptyUsername     = errors.New("username cannot be empty")
	ErrInvalidUsername   = errors.New("username may only contain letters, digits, '.' and '_'")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrEmptyAuthority    = errors.New("authority cannot be empty")
	ErrEmptyTargetURI    = errors.New("annotation target uri cannot be empty")
	ErrEmptyGroupName    = errors.New("group name cannot be empty")
	ErrInvalidGroupType  = errors.New("invalid group type")
	ErrEmptyURI          = errors.New("subscription uri cannot be empty")
	ErrInvalidTemplate   = errors.New("invalid subscription template")
	ErrInvalidExpiration = errors.New("expiration must be in the future")
)
