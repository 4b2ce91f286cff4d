// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the vaultctl operator tool runtime.
//
// It wires configuration, the selected record store, the session key store,
// the encryption services and the idle locker into a single process
// lifecycle, and dispatches the operator commands.
package client
