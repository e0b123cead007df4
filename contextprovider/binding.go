// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package contextprovider // import "github.com/sdkcore/envcontext/contextprovider"

import "github.com/sdkcore/envcontext/sdkcontext"

type bindingKind int8

const (
	pushBinding bindingKind = iota
	pullBinding
)

func (k bindingKind) String() string {
	switch k {
	case pushBinding:
		return "push"
	case pullBinding:
		return "pull"
	}
	return "unknown"
}

// binding pairs an attribute with the source bound to it. The Provider keeps the source
// alive for as long as the Provider itself.
type binding struct {
	attribute string
	kind      bindingKind
	source    any

	// pull overwrites the attribute with a fresh value of the Reader. Set for pull bindings.
	pull func(*sdkcontext.Snapshot)
	// cancel detaches the Provider from the Publisher. Set for push bindings.
	cancel func()
}
