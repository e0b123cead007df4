// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostsource reads environment facts from the host operating system.
package hostsource // import "github.com/sdkcore/envcontext/hostsource"
