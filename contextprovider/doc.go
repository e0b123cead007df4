// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package contextprovider owns the authoritative sdkcontext.Snapshot of a feature and
// merges it with the values delivered by push sources (Publisher) and queried from pull
// sources (Reader).
//
// A Provider goes through two phases. During the configuration phase, right after New,
// sources are bound with Subscribe and Assign from a single goroutine. The first Read or
// Write ends the configuration phase; from then on Read, Write and publisher notifications
// may be issued concurrently from any goroutine and are serialized by a single lock.
//
// Binding an attribute twice, binding after the configuration phase and calling back into
// the Provider from within a Write mutation, a Reader or a synchronous notification are
// wiring defects and panic.
package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"
