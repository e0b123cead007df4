// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovidertest // import "github.com/sdkcore/envcontext/contextprovider/contextprovidertest"

import (
	"math/rand"
	"runtime"
	"sync"
)

// CallConcurrently calls every closure iterations times. Calls are shuffled and spread over
// as many goroutines as there are CPUs, with at least two. It returns once every call
// completed.
func CallConcurrently(iterations int, closures ...func()) {
	calls := make([]func(), 0, iterations*len(closures))
	for i := 0; i < iterations; i++ {
		calls = append(calls, closures...)
	}
	rand.Shuffle(len(calls), func(i, j int) { calls[i], calls[j] = calls[j], calls[i] })

	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	work := make(chan func())
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for call := range work {
				call()
			}
		}()
	}
	for _, call := range calls {
		work <- call
	}
	close(work)
	wg.Wait()
}
