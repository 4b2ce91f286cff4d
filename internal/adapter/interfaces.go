// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter implements the remote record store: the PostgREST-compatible
// REST API exposed by the firm's managed datastore.
//
// [NewRemoteStore] returns a [RemoteStore] that satisfies both
// [store.TenantRepository] and [store.RecordRepository], so the service layer
// cannot tell it apart from the SQL or in-memory backends. Domain outcomes are
// reported with the sentinel errors of package store (for example
// [store.ErrRecordNotFound]); transport failures are mapped from HTTP status
// codes by mapHTTPError to the sentinels in errors.go so that callers can use
// [errors.Is] (e.g. [ErrUnauthorized] for 401).
package adapter

import (
	"github.com/MKhiriev/firm-vault/internal/store"
)

// RemoteStore is a record store reached over HTTP.
type RemoteStore interface {
	store.TenantRepository
	store.RecordRepository
}
