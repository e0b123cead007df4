// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"

import (
	"bytes"
	"runtime"
	"strconv"

	"go.opentelemetry.io/collector/featuregate"
)

var reentrancyCheckGate = featuregate.GlobalRegistry().MustRegister(
	"envcontext.provider.reentrancyCheck",
	featuregate.StageBeta,
	featuregate.WithRegisterDescription("When enabled, a Provider panics when Read or Write is called "+
		"from a goroutine that already holds its lock instead of deadlocking."),
	featuregate.WithRegisterFromVersion("v0.1.0"),
)

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id of the calling goroutine out of its stack header,
// "goroutine 42 [running]:".
func goroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
