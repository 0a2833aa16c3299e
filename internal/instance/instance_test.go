package instance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/connector"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/plugin"
	"github.com/zenohflow/runtime/internal/token"
	"github.com/zenohflow/runtime/internal/zferrors"
)

type memReader map[string][]byte

func (m memReader) ReadFile(path string) ([]byte, error) {
	raw, ok := m[path]
	if !ok {
		return nil, zferrors.New(zferrors.IOError, "no such file %q", path)
	}
	return raw, nil
}

type countingSource struct {
	mu    sync.Mutex
	next  int
	limit int
}

func (s *countingSource) Initialize(config descriptor.Configuration) (plugin.State, error) {
	return nil, nil
}

func (s *countingSource) Run(ctx context.Context, state plugin.State) (token.Outputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= s.limit {
		return nil, nil
	}
	v := s.next
	s.next++
	return token.Outputs{"out": v}, nil
}

func (s *countingSource) OutputRule(state plugin.State, outputs token.Outputs) (token.Outputs, error) {
	return token.DefaultOutputRule(outputs)
}

func (s *countingSource) Finalize(state plugin.State) error { return nil }

type recordingSink struct {
	mu     sync.Mutex
	values []interface{}
	seen   chan struct{}
	want   int
}

func (s *recordingSink) Initialize(config descriptor.Configuration) (plugin.State, error) {
	return nil, nil
}

func (s *recordingSink) InputRule(state plugin.State, tokens token.Tokens) (bool, token.Tokens, error) {
	return token.DefaultInputRule(tokens)
}

func (s *recordingSink) Run(ctx context.Context, state plugin.State, inputs map[descriptor.PortID]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, inputs["in"])
	if len(s.values) == s.want {
		close(s.seen)
	}
	return nil
}

func (s *recordingSink) Finalize(state plugin.State) error { return nil }

func newInstanceFixture(t *testing.T, src plugin.Source, sink plugin.Sink) (*DataflowInstance, descriptor.NodeID, descriptor.NodeID) {
	t.Helper()
	files := memReader{
		"/src.yaml":  []byte("id: src\nlibrary: ./libsrc.so\noutputs: [{id: out, type: int}]\n"),
		"/sink.yaml": []byte("id: sink\nlibrary: ./libsink.so\ninputs: [{id: in, type: int}]\n"),
	}
	fd := &descriptor.FlowDescriptor{
		ID: "passthrough",
		Sources: []descriptor.NodeDescriptor{
			{ID: "src", Descriptor: "file:///src.yaml"},
		},
		Sinks: []descriptor.NodeDescriptor{
			{ID: "sink", Descriptor: "file:///sink.yaml"},
		},
		Links: []descriptor.LinkDescriptor{
			{FromNode: "src", FromPort: "out", ToNode: "sink", ToPort: "in"},
		},
	}

	resolver := plugin.FakeResolver{
		"./libsrc.so":  plugin.FakeLibrary{"RegisterSource": func() plugin.Source { return src }},
		"./libsink.so": plugin.FakeLibrary{"RegisterSink": func() plugin.Sink { return sink }},
	}

	guards, err := descriptor.NewGuardCompiler()
	require.NoError(t, err)

	inst, err := TryInstantiate(fd, files, guards, resolver, clock.NewHLC(), uuid.New(), nil)
	require.NoError(t, err)
	return inst, "src", "sink"
}

// fakeBus is a minimal connector.Bus used only to let a connector node
// load and register; no traffic is exercised here (see
// internal/connector/plugin_test.go for the send/receive round trip).
type fakeBus struct{}

func (fakeBus) Publish(ctx context.Context, topic string, payload []byte) error { return nil }

func (fakeBus) Subscribe(ctx context.Context, topic string) (connector.Subscription, error) {
	return fakeSubscription{}, nil
}

type fakeSubscription struct{}

func (fakeSubscription) Recv(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (fakeSubscription) Close() error { return nil }

func TestTryInstantiateConnectorSourceRegistersAsConnector(t *testing.T) {
	files := memReader{
		"/src.yaml":  []byte("id: src\nlibrary: " + connector.BuiltinLibrary + "\noutputs: [{id: out, type: int}]\n"),
		"/sink.yaml": []byte("id: sink\nlibrary: ./libsink.so\ninputs: [{id: in, type: int}]\n"),
	}
	fd := &descriptor.FlowDescriptor{
		ID: "bridged",
		Sources: []descriptor.NodeDescriptor{
			{ID: "src", Descriptor: "file:///src.yaml"},
		},
		Sinks: []descriptor.NodeDescriptor{
			{ID: "sink", Descriptor: "file:///sink.yaml"},
		},
		Links: []descriptor.LinkDescriptor{
			{FromNode: "src", FromPort: "out", ToNode: "sink", ToPort: "in"},
		},
	}

	sink := &recordingSink{seen: make(chan struct{}), want: 1}
	resolver := connector.WrapResolver(plugin.FakeResolver{
		"./libsink.so": plugin.FakeLibrary{"RegisterSink": func() plugin.Sink { return sink }},
	}, fakeBus{}, clock.NewHLC())

	guards, err := descriptor.NewGuardCompiler()
	require.NoError(t, err)

	inst, err := TryInstantiate(fd, files, guards, resolver, clock.NewHLC(), uuid.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, []descriptor.NodeID{"src"}, inst.GetConnectors())
	assert.Empty(t, inst.GetSources())
	assert.Equal(t, []descriptor.NodeID{"sink"}, inst.GetSinks())
	assert.ElementsMatch(t, []descriptor.NodeID{"src", "sink"}, inst.GetNodes())
}

func TestTryInstantiateProjections(t *testing.T) {
	inst, srcID, sinkID := newInstanceFixture(t, &countingSource{limit: 1}, &recordingSink{seen: make(chan struct{}), want: 1})

	assert.Equal(t, []descriptor.NodeID{srcID}, inst.GetSources())
	assert.Equal(t, []descriptor.NodeID{sinkID}, inst.GetSinks())
	assert.Empty(t, inst.GetOperators())
	assert.ElementsMatch(t, []descriptor.NodeID{srcID, sinkID}, inst.GetNodes())
	assert.NotEqual(t, uuid.Nil, inst.GetUUID())
	assert.Equal(t, descriptor.FlowID("passthrough"), inst.GetFlow())
}

func TestStartStopNodeLifecycle(t *testing.T) {
	sink := &recordingSink{seen: make(chan struct{}), want: 3}
	inst, srcID, sinkID := newInstanceFixture(t, &countingSource{limit: 3}, sink)

	assert.False(t, inst.IsNodeRunning(srcID))

	require.NoError(t, inst.StartNode(srcID))
	require.NoError(t, inst.StartNode(sinkID))
	assert.True(t, inst.IsNodeRunning(srcID))
	assert.True(t, inst.IsNodeRunning(sinkID))

	select {
	case <-sink.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never observed all emitted values")
	}

	require.NoError(t, inst.StopNode(srcID))
	require.NoError(t, inst.StopNode(sinkID))
	assert.False(t, inst.IsNodeRunning(srcID))
	assert.False(t, inst.IsNodeRunning(sinkID))

	// Stopping an already-stopped node is a no-op.
	require.NoError(t, inst.StopNode(srcID))

	assert.Equal(t, []interface{}{0, 1, 2}, sink.values)
}

func TestStartStopUnknownNode(t *testing.T) {
	inst, _, _ := newInstanceFixture(t, &countingSource{limit: 1}, &recordingSink{seen: make(chan struct{}), want: 1})

	err := inst.StartNode("does-not-exist")
	require.Error(t, err)
	assert.True(t, zferrors.Is(err, zferrors.NodeNotFound))

	err = inst.StopNode("does-not-exist")
	require.Error(t, err)
	assert.True(t, zferrors.Is(err, zferrors.NodeNotFound))
}

func TestStartStopAll(t *testing.T) {
	sink := &recordingSink{seen: make(chan struct{}), want: 2}
	inst, _, _ := newInstanceFixture(t, &countingSource{limit: 2}, sink)

	require.NoError(t, inst.StartAll())
	select {
	case <-sink.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("sink never observed all emitted values")
	}
	require.NoError(t, inst.StopAll())
}
