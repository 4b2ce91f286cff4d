// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks records before they reach the encryption layer
// and the store.
//
// A Validator takes an optional list of field names; with none given it runs
// every check it knows. Errors are sentinels so callers can match them with
// errors.Is and map them to operator messages.
package validators

import "context"

// Validator validates an arbitrary value, optionally restricted to the named
// checks. Implementations return ErrUnsupportedType for values they do not
// handle.
type Validator interface {
	Validate(ctx context.Context, value any, fields ...string) error
}
