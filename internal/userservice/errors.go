// Package userservice is a thin HTTP/JSON client for the out-of-scope
// upstream user service that owns durable account data, plus the TTL
// caches and liveness probe that sit in front of it.
package userservice

import "errors"

// ErrUpstreamUnavailable is returned when the user service is unreachable
// or returns a non-2xx status.
var ErrUpstreamUnavailable = errors.New("userservice: upstream unavailable")

// ErrBadPassword is the sentinel returned by Login for a wrong password.
var ErrBadPassword = errors.New("userservice: bad password")

// ErrUserNotFound is returned when the upstream has no record for the
// requested id or name.
var ErrUserNotFound = errors.New("userservice: user not found")
