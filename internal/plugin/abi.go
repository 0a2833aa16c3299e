// Package plugin defines the ABI a dynamically loaded node implementation
// must satisfy, and loads it through Go's stdlib plugin package (or a
// fake resolver in tests) the same way the original runtime dlopen's a
// shared object exposing register_source/register_operator/register_sink
// symbols.
package plugin

import (
	"context"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/token"
)

// State is the opaque value a node implementation threads through its
// own lifecycle; the engine never inspects it, only passes it back on
// every call.
type State interface{}

// Source is the ABI a source plug-in implements: Initialize runs once at
// load time to produce the initial State, Run yields one value per
// declared output port per invocation, OutputRule decides how those
// values are dispatched the same way an operator's does, Finalize runs
// once before the plug-in is unloaded.
type Source interface {
	Initialize(config descriptor.Configuration) (State, error)
	Run(ctx context.Context, state State) (token.Outputs, error)
	OutputRule(state State, outputs token.Outputs) (token.Outputs, error)
	Finalize(state State) error
}

// Operator is the ABI an operator plug-in implements. A plug-in with no
// custom scheduling need simply delegates InputRule/OutputRule to
// token.DefaultInputRule/token.DefaultOutputRule.
type Operator interface {
	Initialize(config descriptor.Configuration) (State, error)
	InputRule(state State, tokens token.Tokens) (runnable bool, next token.Tokens, err error)
	Run(ctx context.Context, state State, inputs map[descriptor.PortID]interface{}) (token.Outputs, error)
	OutputRule(state State, outputs token.Outputs) (token.Outputs, error)
	Finalize(state State) error
}

// Sink is the ABI a sink plug-in implements: InputRule is driven through
// the same token/rule engine an operator uses, Run is invoked with the
// resulting per-port inputs map once InputRule says it should be.
type Sink interface {
	Initialize(config descriptor.Configuration) (State, error)
	InputRule(state State, tokens token.Tokens) (runnable bool, next token.Tokens, err error)
	Run(ctx context.Context, state State, inputs map[descriptor.PortID]interface{}) error
	Finalize(state State) error
}

// RegisterSourceFunc is the symbol name "RegisterSource" a source
// plug-in's shared object must export.
type RegisterSourceFunc func() Source

// RegisterOperatorFunc is the symbol name "RegisterOperator" an operator
// plug-in's shared object must export.
type RegisterOperatorFunc func() Operator

// RegisterSinkFunc is the symbol name "RegisterSink" a sink plug-in's
// shared object must export.
type RegisterSinkFunc func() Sink

const (
	symRegisterSource   = "RegisterSource"
	symRegisterOperator = "RegisterOperator"
	symRegisterSink     = "RegisterSink"
)
