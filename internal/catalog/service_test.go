package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// fakeStore is an in-memory stand-in for Repository, keyed by flow id.
type fakeStore struct {
	mu      sync.Mutex
	records map[descriptor.FlowID]*Record
	casFail int // number of CompareAndSwap calls to fail before succeeding
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[descriptor.FlowID]*Record)}
}

func (s *fakeStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.FlowID]; exists {
		return zferrors.New(zferrors.GenericError, "flow %q already exists", rec.FlowID)
	}
	rec.Version = 1
	cp := *rec
	s.records[rec.FlowID] = &cp
	return nil
}

func (s *fakeStore) GetByFlowID(ctx context.Context, flowID descriptor.FlowID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[flowID]
	if !ok {
		return nil, zferrors.New(zferrors.NodeNotFound, "flow %q not found", flowID)
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) CompareAndSwap(ctx context.Context, flowID descriptor.FlowID, expectedVersion int64, format string, body []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.casFail > 0 {
		s.casFail--
		return false, nil
	}
	rec, ok := s.records[flowID]
	if !ok || rec.Version != expectedVersion {
		return false, nil
	}
	rec.Format = format
	rec.Body = body
	rec.Version++
	return true, nil
}

func (s *fakeStore) Delete(ctx context.Context, flowID descriptor.FlowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[flowID]; !ok {
		return zferrors.New(zferrors.NodeNotFound, "flow %q not found", flowID)
	}
	delete(s.records, flowID)
	return nil
}

func sampleFlow(id descriptor.FlowID) *descriptor.FlowDescriptor {
	return &descriptor.FlowDescriptor{
		ID: id,
		Sources: []descriptor.NodeDescriptor{
			{ID: "src", Descriptor: "file:///src.yaml"},
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	svc := NewServiceWithStore(newFakeStore())
	flow := sampleFlow("f1")

	rec, err := svc.Register(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, "yaml", rec.Format)

	got, err := svc.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, flow.ID, got.ID)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, descriptor.NodeID("src"), got.Sources[0].ID)
}

func TestRegisterDuplicateFails(t *testing.T) {
	svc := NewServiceWithStore(newFakeStore())
	flow := sampleFlow("dup")
	_, err := svc.Register(context.Background(), flow)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), flow)
	require.Error(t, err)
}

func TestListReturnsRegisteredFlows(t *testing.T) {
	store := newFakeStore()
	svc := NewServiceWithStore(store)
	_, err := svc.Register(context.Background(), sampleFlow("a"))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), sampleFlow("b"))
	require.NoError(t, err)

	ids, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []descriptor.FlowID{"a", "b"}, ids)
}

func TestUpdateRetriesOnceOnConcurrentWrite(t *testing.T) {
	store := newFakeStore()
	svc := NewServiceWithStore(store)
	flow := sampleFlow("f1")
	_, err := svc.Register(context.Background(), flow)
	require.NoError(t, err)

	store.casFail = 1 // simulate one lost race before the retry succeeds

	updated := sampleFlow("f1")
	updated.Sources = append(updated.Sources, descriptor.NodeDescriptor{ID: "src2", Descriptor: "file:///src2.yaml"})

	rec, err := svc.Update(context.Background(), updated)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
}

func TestUpdateFailsAfterTwoLostRaces(t *testing.T) {
	store := newFakeStore()
	svc := NewServiceWithStore(store)
	flow := sampleFlow("f1")
	_, err := svc.Register(context.Background(), flow)
	require.NoError(t, err)

	store.casFail = 2

	_, err = svc.Update(context.Background(), sampleFlow("f1"))
	require.Error(t, err)
	assert.True(t, zferrors.Is(err, zferrors.GenericError))
}

func TestDeleteRemovesFlow(t *testing.T) {
	svc := NewServiceWithStore(newFakeStore())
	_, err := svc.Register(context.Background(), sampleFlow("f1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "f1"))
	_, err = svc.Get(context.Background(), "f1")
	require.Error(t, err)
}
