package plugin

import (
	"sync"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// LoadedSource bundles a source plug-in instance with the state
// Initialize produced and the library handle it was loaded from.
type LoadedSource struct {
	mu       sync.Mutex
	Instance Source
	state    State
	handle   Library
	closed   bool
}

// LoadedOperator is the operator equivalent of LoadedSource.
type LoadedOperator struct {
	mu       sync.Mutex
	Instance Operator
	state    State
	handle   Library
	closed   bool
}

// LoadedSink is the sink equivalent of LoadedSource.
type LoadedSink struct {
	mu       sync.Mutex
	Instance Sink
	state    State
	handle   Library
	closed   bool
}

// State returns the instance's current state, for the runner to pass
// back into Run.
func (l *LoadedSource) State() State { return l.state }

// State returns the instance's current state, for the runner to pass
// back into InputRule/Run/OutputRule.
func (l *LoadedOperator) State() State { return l.state }

// State returns the instance's current state, for the runner to pass
// back into Run.
func (l *LoadedSink) State() State { return l.state }

// LoadSource opens the library named by sd.Library, looks up its
// RegisterSource symbol, instantiates it and calls Initialize once to
// produce the initial state.
func LoadSource(sd *descriptor.SourceDescriptor, resolver Resolver) (*LoadedSource, error) {
	handle, err := resolver.Open(sd.Library)
	if err != nil {
		return nil, err
	}
	sym, err := handle.Lookup(symRegisterSource)
	if err != nil {
		return nil, err
	}
	register, ok := sym.(func() Source)
	if !ok {
		return nil, zferrors.New(zferrors.GenericError, "plugin %q's RegisterSource has the wrong signature", sd.Library)
	}
	instance := register()
	state, err := instance.Initialize(sd.Configuration)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.GenericError, err, "initializing source %q", sd.ID)
	}
	return &LoadedSource{Instance: instance, state: state, handle: handle}, nil
}

// LoadOperator is the operator equivalent of LoadSource.
func LoadOperator(od *descriptor.OperatorDescriptor, resolver Resolver) (*LoadedOperator, error) {
	handle, err := resolver.Open(od.Library)
	if err != nil {
		return nil, err
	}
	sym, err := handle.Lookup(symRegisterOperator)
	if err != nil {
		return nil, err
	}
	register, ok := sym.(func() Operator)
	if !ok {
		return nil, zferrors.New(zferrors.GenericError, "plugin %q's RegisterOperator has the wrong signature", od.Library)
	}
	instance := register()
	state, err := instance.Initialize(od.Configuration)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.GenericError, err, "initializing operator %q", od.ID)
	}
	return &LoadedOperator{Instance: instance, state: state, handle: handle}, nil
}

// LoadSink is the sink equivalent of LoadSource.
func LoadSink(kd *descriptor.SinkDescriptor, resolver Resolver) (*LoadedSink, error) {
	handle, err := resolver.Open(kd.Library)
	if err != nil {
		return nil, err
	}
	sym, err := handle.Lookup(symRegisterSink)
	if err != nil {
		return nil, err
	}
	register, ok := sym.(func() Sink)
	if !ok {
		return nil, zferrors.New(zferrors.GenericError, "plugin %q's RegisterSink has the wrong signature", kd.Library)
	}
	instance := register()
	state, err := instance.Initialize(kd.Configuration)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.GenericError, err, "initializing sink %q", kd.ID)
	}
	return &LoadedSink{Instance: instance, state: state, handle: handle}, nil
}

// Close tears the source down in the strict order the ABI requires:
// Finalize the state, drop the instance, then drop the library handle
// last — so the instance's code pages are never referenced after the
// handle that backs them has been released. See resolver.go for why the
// final step is, on Go's stdlib plugin package, unable to actually
// dlclose anything today.
func (l *LoadedSource) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.Instance.Finalize(l.state)
	l.state = nil
	l.Instance = nil
	l.handle = nil
	return err
}

// Close is the operator equivalent of LoadedSource.Close.
func (l *LoadedOperator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.Instance.Finalize(l.state)
	l.state = nil
	l.Instance = nil
	l.handle = nil
	return err
}

// Close is the sink equivalent of LoadedSource.Close.
func (l *LoadedSink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.Instance.Finalize(l.state)
	l.state = nil
	l.Instance = nil
	l.handle = nil
	return err
}
