// Package audit records security-relevant events of the encryption layer:
// setup, unlock attempts, locks and migration runs.
//
// Events describe what happened and to which tenant. They never carry key
// material, passwords or decrypted values.
package audit

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/audit_mock.go -package=mock

// Logger persists audit events. Implementations fill in ID and Timestamp
// when they are empty.
type Logger interface {
	LogEvent(ctx context.Context, event *Event) error
}
