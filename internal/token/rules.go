package token

import "github.com/zenohflow/runtime/internal/descriptor"

// Tokens maps each of an operator's input ports to its current token.
type Tokens map[descriptor.PortID]Token

// Outputs maps each of an operator's output ports to the value it
// produced on a given Run, before any output rule has decided how to
// dispatch it onto links.
type Outputs map[descriptor.PortID]interface{}

// InputRule is a pure predicate over the current state of every input
// port: it decides whether the operator should run at all, and — since
// it is also where the engine asks the operator what to do with data it
// is not going to consume right now — can rewrite each token's action in
// place via the returned Tokens.
//
// The default rule (spec §4.4) requires every port to be Ready; an
// operator with more elaborate needs (e.g. run with partial input, or
// only every other tick) supplies its own.
type InputRule func(tokens Tokens) (runnable bool, next Tokens, err error)

// OutputRule decides, from the values an operator just produced, which
// downstream links should actually receive a copy. The default rule
// forwards every produced value to every link attached to its port
// unconditionally; a link carrying a CEL guard (internal/descriptor)
// filters on top of whatever the output rule already decided to forward.
type OutputRule func(outputs Outputs) (Outputs, error)

// DefaultInputRule runs the operator only when every port is Ready, and
// marks every Ready port Consume — nothing is kept or dropped, matching
// the "all inputs ready, all inputs consumed" behavior spec §4.4
// describes as the engine's default when an operator supplies no custom
// input rule.
func DefaultInputRule(tokens Tokens) (bool, Tokens, error) {
	for _, t := range tokens {
		if t.IsNotReady() {
			return false, tokens, nil
		}
	}
	next := make(Tokens, len(tokens))
	for port, t := range tokens {
		next[port] = t.Consume()
	}
	return true, next, nil
}

// DefaultOutputRule forwards every produced value unchanged; this is the
// rule used when an operator descriptor does not register a custom one.
func DefaultOutputRule(outputs Outputs) (Outputs, error) {
	return outputs, nil
}
