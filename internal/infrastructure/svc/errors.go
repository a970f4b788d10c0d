package svc

import "errors"

// ErrNoFeedsEnabled is returned when configuration enables no venue feed.
var ErrNoFeedsEnabled = errors.New("no venue feeds enabled")

// ErrStorageInitFailed is returned when a configured storage backend cannot
// be initialized.
var ErrStorageInitFailed = errors.New("storage initialization failed")
