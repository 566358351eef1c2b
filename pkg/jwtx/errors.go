package jwtx

import "errors"

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrUnknownClass = errors.New("jwtx: unknown token class")
	ErrWeakSecret   = errors.New("jwtx: signing secret too short")
)
