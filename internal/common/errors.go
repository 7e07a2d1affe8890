// Package common contains shared sentinel errors and constants used across
// weavesync components.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// remote specific errors
	ErrorUnauthorized = errors.New("unauthorized")
)
