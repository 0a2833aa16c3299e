// Package token implements the token/rule engine described by the
// specification: a Token carries a port's readiness and, once an
// operator's Run has consumed it, the Action that decides what happens
// to the data still sitting in the port's queue on the next scheduling
// pass.
//
// This mirrors the original Token<T>/TokenAction design in
// zenoh-flow/src/types.rs, adapted from a Rust enum to a Go generic
// struct since Go has no tagged unions: readiness and action are fields
// rather than variants, but the method vocabulary (Consume/Drop/KeepRun/
// Keep/Wait, IsReady, Data) is kept the same.
package token

// Action decides what an operator wants done with the data held by a
// token after a Run invocation.
type Action int

const (
	// Consume removes the data from the port; the next scheduling pass
	// starts with an empty (NotReady) token for this port.
	Consume Action = iota
	// Drop discards the data without it having been meaningfully used,
	// same end state as Consume but distinguished for tracing/metrics.
	Drop
	// KeepRun leaves the data in place and immediately reschedules the
	// operator to run again with the same token still Ready.
	KeepRun
	// Keep leaves the data in place without forcing an immediate rerun;
	// the port stays Ready for the next natural scheduling pass.
	Keep
	// Wait marks the token NotReady without consuming anything, used by
	// an operator that decided it needs more data on this port before it
	// can usefully run again.
	Wait
)

func (a Action) String() string {
	switch a {
	case Consume:
		return "Consume"
	case Drop:
		return "Drop"
	case KeepRun:
		return "KeepRun"
	case Keep:
		return "Keep"
	case Wait:
		return "Wait"
	default:
		return "Unknown"
	}
}

// Token represents the state of a single input port at scheduling time:
// whether it holds data ready to be consumed, and, once a Run has
// happened, what the operator decided to do with it.
type Token struct {
	ready  bool
	data   interface{}
	action Action
}

// Ready builds a token carrying data and marks it ready for consumption.
func Ready(data interface{}) Token {
	return Token{ready: true, data: data}
}

// NotReady builds a token with no data available.
func NotReady() Token {
	return Token{ready: false}
}

// IsReady reports whether the token currently holds consumable data.
func (t Token) IsReady() bool { return t.ready }

// IsNotReady is the complement of IsReady.
func (t Token) IsNotReady() bool { return !t.ready }

// Data returns the token's payload and whether it was actually ready.
func (t Token) Data() (interface{}, bool) { return t.data, t.ready }

// GetAction returns the action last set on this token.
func (t Token) GetAction() Action { return t.action }

// Consume returns a copy of t with action Consume and readiness cleared.
func (t Token) Consume() Token {
	t.action = Consume
	t.ready = false
	t.data = nil
	return t
}

// DropToken returns a copy of t with action Drop and readiness cleared.
func (t Token) DropToken() Token {
	t.action = Drop
	t.ready = false
	t.data = nil
	return t
}

// KeepRun returns a copy of t with action KeepRun; the data and
// readiness are left untouched so the same token is immediately
// rescheduled.
func (t Token) KeepRun() Token {
	t.action = KeepRun
	return t
}

// KeepToken returns a copy of t with action Keep; data and readiness are
// left untouched.
func (t Token) KeepToken() Token {
	t.action = Keep
	return t
}

// WaitToken returns a copy of t with action Wait and readiness cleared.
func (t Token) WaitToken() Token {
	t.action = Wait
	t.ready = false
	return t
}
