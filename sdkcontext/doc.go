// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sdkcontext defines the Snapshot of ambient environment facts that every
// telemetry-producing feature embeds into its records, together with the fixed set of
// typed Attributes that sources can be bound to.
//
// A Snapshot is a plain value. Once handed out by a provider it is never modified by the
// provider again; any update produces a new Snapshot.
package sdkcontext // import "github.com/sdkcore/envcontext/sdkcontext"
