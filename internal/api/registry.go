package api

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/internal/instance"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// Registry holds every DataflowInstance this process has instantiated,
// keyed by instance UUID. Non-goals exclude persisting execution
// records, so the registry is purely in-memory: an instance stops
// existing once the process restarts.
type Registry struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]*instance.DataflowInstance
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[uuid.UUID]*instance.DataflowInstance)}
}

// Put stores inst, keyed by its own UUID.
func (r *Registry) Put(inst *instance.DataflowInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[inst.GetUUID()] = inst
}

// Get retrieves a previously stored instance.
func (r *Registry) Get(id uuid.UUID) (*instance.DataflowInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, zferrors.New(zferrors.NodeNotFound, "instance %q not found", id)
	}
	return inst, nil
}

// List returns every instance this process currently owns.
func (r *Registry) List() []*instance.DataflowInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*instance.DataflowInstance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, inst)
	}
	return out
}
