package domain

import "errors"

var (
	ErrQuotaExhausted = errors.New("daily quota and stars balance exhausted")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrUnknownPayment = errors.New("unknown payment id")
	ErrUserNotFound   = errors.New("user not found")
)
