package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/plugin"
	"github.com/zenohflow/runtime/internal/token"
)

// countingSource emits one integer per Run call, up to `limit`, then
// blocks until the context is cancelled so the runner loop terminates
// cleanly instead of spinning forever past the values under test.
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
	if s.next >= s.limit {
		s.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	v := s.next
	s.next++
	s.mu.Unlock()
	return token.Outputs{"out": v}, nil
}

func (s *countingSource) OutputRule(state plugin.State, outputs token.Outputs) (token.Outputs, error) {
	return token.DefaultOutputRule(outputs)
}

func (s *countingSource) Finalize(state plugin.State) error { return nil }

func newLoadedSource(src plugin.Source) *plugin.LoadedSource {
	resolver := plugin.FakeResolver{
		"./src.so": plugin.FakeLibrary{"RegisterSource": func() plugin.Source { return src }},
	}
	loaded, err := plugin.LoadSource(&descriptor.SourceDescriptor{ID: "src", Library: "./src.so"}, resolver)
	if err != nil {
		panic(err)
	}
	return loaded
}

type recordingSink struct {
	mu      sync.Mutex
	values  []interface{}
	allSeen chan struct{}
	want    int
}

func (s *recordingSink) Initialize(config descriptor.Configuration) (plugin.State, error) {
	return nil, nil
}

func (s *recordingSink) InputRule(state plugin.State, tokens token.Tokens) (bool, token.Tokens, error) {
	return token.DefaultInputRule(tokens)
}

func (s *recordingSink) Run(ctx context.Context, state plugin.State, inputs map[descriptor.PortID]interface{}) error {
	s.mu.Lock()
	s.values = append(s.values, inputs["in"])
	done := len(s.values) >= s.want
	s.mu.Unlock()
	if done {
		select {
		case <-s.allSeen:
		default:
			close(s.allSeen)
		}
	}
	return nil
}

func (s *recordingSink) Finalize(state plugin.State) error { return nil }

func newLoadedSink(want int) (*plugin.LoadedSink, *recordingSink) {
	sink := &recordingSink{allSeen: make(chan struct{}), want: want}
	resolver := plugin.FakeResolver{
		"./sink.so": plugin.FakeLibrary{"RegisterSink": func() plugin.Sink { return sink }},
	}
	loaded, err := plugin.LoadSink(&descriptor.SinkDescriptor{ID: "sink", Library: "./sink.so"}, resolver)
	if err != nil {
		panic(err)
	}
	return loaded, sink
}

func TestSourceToSinkPassthrough(t *testing.T) {
	src := &countingSource{limit: 3}
	loadedSrc := newLoadedSource(src)
	loadedSink, sink := newLoadedSink(3)

	out := channel.NewOutput()
	link := channel.NewUnboundedChan()
	out.Add("l1", link)
	in := channel.NewInput()
	in.Add("l1", link)

	srcRunner := NewSourceRunner("src", loadedSrc, map[descriptor.PortID]*channel.Output{"out": out}, clock.NewHLC(), nil)
	sinkRunner := NewSinkRunner("sink", loadedSink, map[descriptor.PortID]*channel.Input{"in": in}, clock.NewHLC())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srcRunner.Run(ctx) }()
	go func() { _ = sinkRunner.Run(ctx) }()

	select {
	case <-sink.allSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not observe all values")
	}

	assert.Equal(t, []interface{}{0, 1, 2}, sink.values)
}

func TestSourceFanOutToTwoSinks(t *testing.T) {
	src := &countingSource{limit: 2}
	loadedSrc := newLoadedSource(src)
	loadedSinkA, sinkA := newLoadedSink(2)
	loadedSinkB, sinkB := newLoadedSink(2)

	out := channel.NewOutput()
	linkA := channel.NewUnboundedChan()
	linkB := channel.NewUnboundedChan()
	out.Add("a", linkA)
	out.Add("b", linkB)
	inA := channel.NewInput()
	inA.Add("a", linkA)
	inB := channel.NewInput()
	inB.Add("b", linkB)

	srcRunner := NewSourceRunner("src", loadedSrc, map[descriptor.PortID]*channel.Output{"out": out}, clock.NewHLC(), nil)
	sinkRunnerA := NewSinkRunner("sinkA", loadedSinkA, map[descriptor.PortID]*channel.Input{"in": inA}, clock.NewHLC())
	sinkRunnerB := NewSinkRunner("sinkB", loadedSinkB, map[descriptor.PortID]*channel.Input{"in": inB}, clock.NewHLC())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srcRunner.Run(ctx) }()
	go func() { _ = sinkRunnerA.Run(ctx) }()
	go func() { _ = sinkRunnerB.Run(ctx) }()

	for _, sink := range []*recordingSink{sinkA, sinkB} {
		select {
		case <-sink.allSeen:
		case <-time.After(2 * time.Second):
			t.Fatal("sink did not observe all values")
		}
	}

	assert.Equal(t, []interface{}{0, 1}, sinkA.values)
	assert.Equal(t, []interface{}{0, 1}, sinkB.values)
}

type sumOperator struct{}

func (sumOperator) Initialize(config descriptor.Configuration) (plugin.State, error) {
	return nil, nil
}

func (sumOperator) InputRule(state plugin.State, tokens token.Tokens) (bool, token.Tokens, error) {
	return token.DefaultInputRule(tokens)
}

func (sumOperator) Run(ctx context.Context, state plugin.State, inputs map[descriptor.PortID]interface{}) (token.Outputs, error) {
	sum := inputs["lhs"].(int) + inputs["rhs"].(int)
	return token.Outputs{"out": sum}, nil
}

func (sumOperator) OutputRule(state plugin.State, outputs token.Outputs) (token.Outputs, error) {
	return token.DefaultOutputRule(outputs)
}

func (sumOperator) Finalize(state plugin.State) error { return nil }

func TestOperatorRunnerTwoInputSum(t *testing.T) {
	resolver := plugin.FakeResolver{
		"./sum.so": plugin.FakeLibrary{"RegisterOperator": func() plugin.Operator { return sumOperator{} }},
	}
	loaded, err := plugin.LoadOperator(&descriptor.OperatorDescriptor{ID: "sum", Library: "./sum.so"}, resolver)
	require.NoError(t, err)

	lhsChan := channel.NewUnboundedChan()
	rhsChan := channel.NewUnboundedChan()
	lhsIn := channel.NewInput()
	lhsIn.Add("lhs-link", lhsChan)
	rhsIn := channel.NewInput()
	rhsIn.Add("rhs-link", rhsChan)

	outLink := channel.NewUnboundedChan()
	out := channel.NewOutput()
	out.Add("out-link", outLink)
	outIn := channel.NewInput()
	outIn.Add("out-link", outLink)

	opRunner := NewOperatorRunner(
		"sum",
		loaded,
		map[descriptor.PortID]*channel.Input{"lhs": lhsIn, "rhs": rhsIn},
		map[descriptor.PortID]*channel.Output{"out": out},
		clock.NewHLC(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = opRunner.Run(ctx) }()

	require.NoError(t, lhsChan.Send(channel.Item{Data: 2}))
	require.NoError(t, rhsChan.Send(channel.Item{Data: 3}))

	item, err := outIn.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Data)
}
