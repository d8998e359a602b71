package domain

import "errors"

var (
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageFailedValidation     = "request validation failed"

	ErrParseUUID       = errors.New("failed to parse UUID")
	ErrTokenNotFound   = errors.New("failed to token not found")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrTokenClaims     = errors.New("token is missing required claims")
	ErrTokenNoSecret   = errors.New("JWT_SECRET is not configured")
	ErrUserNotAllowed  = errors.New("user not allowed")
	ErrUserNotFound    = errors.New("user not found")
	ErrStorageDisabled = errors.New("object storage is not configured")
	ErrMailDisabled    = errors.New("mailing is not configured")
)
