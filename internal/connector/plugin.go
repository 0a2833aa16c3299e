package connector

import (
	"context"
	"sync"

	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/plugin"
	"github.com/zenohflow/runtime/internal/token"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// connectorLibrary is the plugin.Library a WrapResolver hands back for
// BuiltinLibrary: instead of symbols looked up in a shared object, it
// closes over the bus and HLC every connector node on this runtime
// shares.
type connectorLibrary struct {
	bus Bus
	hlc *clock.HLC
}

// Lookup implements plugin.Library.
func (l connectorLibrary) Lookup(symName string) (interface{}, error) {
	switch symName {
	case "RegisterSource":
		return func() plugin.Source { return &ConnectorSource{bus: l.bus} }, nil
	case "RegisterSink":
		return func() plugin.Sink { return &ConnectorSink{bus: l.bus, hlc: l.hlc} }, nil
	default:
		return nil, zferrors.New(zferrors.GenericError, "connector library has no symbol %q", symName)
	}
}

// WrapResolver decorates inner so that opening BuiltinLibrary yields a
// connector-backed Library bound to bus and hlc, while every other path
// is delegated to inner unchanged. Compose this once at process startup
// around whichever Resolver loads the runtime's ordinary plug-ins.
func WrapResolver(inner plugin.Resolver, bus Bus, hlc *clock.HLC) plugin.Resolver {
	return &resolverWithConnector{inner: inner, bus: bus, hlc: hlc}
}

type resolverWithConnector struct {
	inner plugin.Resolver
	bus   Bus
	hlc   *clock.HLC
}

// Open implements plugin.Resolver.
func (r *resolverWithConnector) Open(path string) (plugin.Library, error) {
	if path == BuiltinLibrary {
		return connectorLibrary{bus: r.bus, hlc: r.hlc}, nil
	}
	return r.inner.Open(path)
}

// ConnectorSource adapts a ZenohReceiver to the pull-based plugin.Source
// ABI: Run blocks until the receiver's background loop (started lazily
// on the first call, when ctx is first available) delivers a value,
// which it then yields on the single port the instance package
// configured this connector node with.
type ConnectorSource struct {
	bus   Bus
	once  sync.Once
	items chan interface{}
	errs  chan error
}

// connectorSourceState carries the topic to subscribe on and the output
// port the delivered value is yielded under.
type connectorSourceState struct {
	topic string
	port  descriptor.PortID
}

// Initialize implements plugin.Source. The topic and port are read from
// the reserved TopicConfigKey/PortConfigKey the instance package injects
// before loading this node; config carries nothing else this adapter
// needs.
func (s *ConnectorSource) Initialize(config descriptor.Configuration) (plugin.State, error) {
	topic, _ := config[TopicConfigKey].(string)
	if topic == "" {
		return nil, zferrors.New(zferrors.MissingConfiguration, "connector source missing %q", TopicConfigKey)
	}
	port, _ := config[PortConfigKey].(string)
	if port == "" {
		port = "data"
	}
	return &connectorSourceState{topic: topic, port: descriptor.PortID(port)}, nil
}

// Run implements plugin.Source, returning the next value the bus
// delivers on this node's topic keyed by its single output port.
func (s *ConnectorSource) Run(ctx context.Context, state plugin.State) (token.Outputs, error) {
	st := state.(*connectorSourceState)
	s.once.Do(func() {
		s.items = make(chan interface{}, 16)
		s.errs = make(chan error, 1)
		receiver := NewZenohReceiver(s.bus, st.topic)
		go func() {
			err := receiver.Run(ctx, func(item channel.Item) error {
				select {
				case s.items <- item.Data:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			if err != nil {
				select {
				case s.errs <- err:
				default:
				}
			}
		}()
	})

	select {
	case v := <-s.items:
		return token.Outputs{st.port: v}, nil
	case err := <-s.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OutputRule implements plugin.Source with the default forward-
// unconditionally behavior; a connector node has no guarded links of its
// own to apply beyond what the fabric's link guards already do.
func (s *ConnectorSource) OutputRule(state plugin.State, outputs token.Outputs) (token.Outputs, error) {
	return token.DefaultOutputRule(outputs)
}

// Finalize implements plugin.Source.
func (s *ConnectorSource) Finalize(state plugin.State) error { return nil }

// ConnectorSink adapts a ZenohSender to the push-based plugin.Sink ABI:
// Run publishes the value it receives on its single input port directly
// onto the bus topic.
type ConnectorSink struct {
	bus    Bus
	hlc    *clock.HLC
	sender *ZenohSender
}

// connectorSinkState carries the input port a received value is read
// from before it's published.
type connectorSinkState struct {
	port descriptor.PortID
}

// Initialize implements plugin.Sink.
func (s *ConnectorSink) Initialize(config descriptor.Configuration) (plugin.State, error) {
	topic, _ := config[TopicConfigKey].(string)
	if topic == "" {
		return nil, zferrors.New(zferrors.MissingConfiguration, "connector sink missing %q", TopicConfigKey)
	}
	s.sender = NewZenohSender(s.bus, topic)
	port, _ := config[PortConfigKey].(string)
	if port == "" {
		port = "data"
	}
	return &connectorSinkState{port: descriptor.PortID(port)}, nil
}

// InputRule implements plugin.Sink with the default all-ports-ready
// behavior: a connector node has exactly one input port, so there is no
// join policy to customize.
func (s *ConnectorSink) InputRule(state plugin.State, tokens token.Tokens) (bool, token.Tokens, error) {
	return token.DefaultInputRule(tokens)
}

// Run implements plugin.Sink, publishing the value on this node's
// configured port to the bus stamped with this runtime's current HLC
// time: the sink ABI never hands back the timestamp of the item that
// produced it, so a fresh one is minted here rather than forwarded.
func (s *ConnectorSink) Run(ctx context.Context, state plugin.State, inputs map[descriptor.PortID]interface{}) error {
	st := state.(*connectorSinkState)
	ts := uint64(s.hlc.Now())
	return s.sender.Send(ctx, channel.Item{Timestamp: ts, Data: inputs[st.port]})
}

// Finalize implements plugin.Sink.
func (s *ConnectorSink) Finalize(state plugin.State) error { return nil }
