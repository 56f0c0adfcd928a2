package service

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrForbidden          = errors.New("forbidden: user does not have permission for this action")
	ErrOperationNotFound  = errors.New("operation not found")
	ErrAlreadySigned      = errors.New("this entry is already signed")
	ErrValidation         = errors.New("validation failed")
)
