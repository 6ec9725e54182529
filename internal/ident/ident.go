// Package ident hands out stable identifiers for strategy records.
package ident

import "github.com/google/uuid"

type Factory interface {
	NewID() string
}

// UUID generates random (version 4) UUIDs.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Func adapts a plain function to a Factory.
type Func func() string

func (f Func) NewID() string {
	return f()
}
