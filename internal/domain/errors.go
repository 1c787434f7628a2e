package domain

import "errors"

var (
	ErrNoInputProvided        = errors.New("no input provided")
	ErrUnsupportedArtifact    = errors.New("unsupported artifact")
	ErrInvalidInput           = errors.New("invalid input")
	ErrAuthRequired           = errors.New("authentication required")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrNotFound               = errors.New("not found")
	ErrStoreUnavailable       = errors.New("store unavailable")
)
