package domain

import "errors"

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountsFileNotFound   = errors.New("accounts file not found")
	ErrNoAccounts             = errors.New("accounts file must list at least one account")
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrSnapshotNotFound       = errors.New("session snapshot not found")
	ErrAuthExpired            = errors.New("session credential expired")
	ErrProxyChanged           = errors.New("proxy changed")
	ErrAttemptsExhausted      = errors.New("attempts exhausted")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnsupportedProxyScheme = errors.New("unsupported proxy scheme")
)
