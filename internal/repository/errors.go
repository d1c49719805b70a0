// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrUserNotFound is returned when an operation references a user id that
// does not exist. Handlers should translate this into an HTTP 404 response.
var ErrUserNotFound = errors.New("user not found")

// ErrNoSession is returned when a lookup expects a pairing session for a
// user and none exists in any state.
var ErrNoSession = errors.New("no pairing session")
