// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package contextprovidertest defines sources and helpers to test code built on
// contextprovider.
package contextprovidertest // import "github.com/sdkcore/envcontext/contextprovider/contextprovidertest"
