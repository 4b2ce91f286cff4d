// Package utils provides general-purpose helper utilities
// used across different parts of the application: a preconfigured resty
// HTTP client with retry support and time-ordered UUID generation.
package utils

import "github.com/google/uuid"

// UUIDGenerator issues the identifiers of audit events. They are UUIDv7, so
// sorting an audit log by event_id follows the order the events happened in.
// The zero value is ready to use.
type UUIDGenerator struct {
	newV7 func() (uuid.UUID, error)
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{newV7: uuid.NewV7}
}

// Generate returns a UUIDv7 string. When the v7 source fails it falls back to
// a random v4, which still identifies the event but is not ordered.
func (g *UUIDGenerator) Generate() string {
	newV7 := g.newV7
	if newV7 == nil {
		newV7 = uuid.NewV7
	}

	id, err := newV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
