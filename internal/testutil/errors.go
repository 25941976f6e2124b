// Package testutil provides testing utilities for bootlink.
//
// This package contains mock errors, stub tools and a fake toolchain used
// across test files. It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockToolFailed simulates a tool that could not be started.
	ErrMockToolFailed = errors.New("tool failed to start")

	// ErrMockBuildFailed simulates a failing product build command.
	ErrMockBuildFailed = errors.New("build command failed")

	// ErrMockNotFound indicates a mock resource was not found.
	ErrMockNotFound = errors.New("not found")
)
