//go:build !linux

package client

// EnsureAdapter is a no-op where the OS manages the radio.
func EnsureAdapter(string) error { return nil }
