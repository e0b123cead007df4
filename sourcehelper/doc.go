// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sourcehelper provides generic push and pull sources to be bound to a
// contextprovider.Provider.
package sourcehelper // import "github.com/sdkcore/envcontext/sourcehelper"
