// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run executes the command in args and blocks until it is done.
	Run(ctx context.Context, args []string) error
	// Close releases the store connection.
	Close() error
}

// PasswordSource supplies the master password on demand.
type PasswordSource interface {
	Password() (string, error)
}
