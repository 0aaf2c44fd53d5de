package services

import "errors"

// Typed failures raised by the service layer. Handlers map these to HTTP
// status codes; anything else surfaces as a generic server error.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrBadCredentials    = errors.New("bad credentials")
	ErrAlreadyExists     = errors.New("already exists")
	ErrMessageNotInTopic = errors.New("message does not belong to topic")
)
