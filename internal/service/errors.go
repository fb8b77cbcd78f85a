package service

import "errors"

// Sentinel errors mapped to HTTP status codes by the handlers
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("resource conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
