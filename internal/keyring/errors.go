package keyring

import "errors"

var (
	// ErrIncorrectPassword covers every unwrap authentication failure.
	// Wrong password and corrupted key material are indistinguishable on
	// purpose; there is no cheaper oracle than the KDF itself.
	ErrIncorrectPassword = errors.New("keyring: incorrect password")

	// ErrNotConfigured: unlock attempted before any key material exists.
	ErrNotConfigured = errors.New("keyring: encryption not configured")

	// ErrAlreadyConfigured: setup attempted over existing key material.
	ErrAlreadyConfigured = errors.New("keyring: encryption already configured")

	// ErrLocked: a key-requiring operation ran while no keys are resident.
	ErrLocked = errors.New("keyring: locked")

	// ErrTooManyAttempts: the unlock throttle rejected the attempt.
	ErrTooManyAttempts = errors.New("keyring: too many unlock attempts")
)
