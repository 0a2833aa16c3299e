package catalog

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// Store is the persistence surface Service needs. *Repository satisfies
// it; tests and callers that need a catalog without a real Postgres
// instance (e.g. an in-memory fake) can supply their own, the same
// interface-at-the-integration-boundary seam internal/plugin uses for
// Resolver/Library.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	GetByFlowID(ctx context.Context, flowID descriptor.FlowID) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	CompareAndSwap(ctx context.Context, flowID descriptor.FlowID, expectedVersion int64, format string, body []byte) (bool, error)
	Delete(ctx context.Context, flowID descriptor.FlowID) error
}

// Service is the descriptor-aware front of the catalog: it decodes and
// encodes FlowDescriptor values rather than handing callers raw bytes.
type Service struct {
	repo Store
}

// NewService builds a Service over repo.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceWithStore builds a Service over an arbitrary Store, for
// callers that need a catalog backed by something other than Postgres
// (tests, in-process fakes).
func NewServiceWithStore(s Store) *Service {
	return &Service{repo: s}
}

// Register stores a new flow descriptor, encoded as YAML (the catalog's
// canonical on-disk format, matching every other descriptor in this
// runtime). Registering a flow id that already exists fails with the
// IOError the repository returns when the unique constraint on flow_id
// rejects the insert.
func (s *Service) Register(ctx context.Context, flow *descriptor.FlowDescriptor) (*Record, error) {
	body, err := flow.ToYAML()
	if err != nil {
		return nil, err
	}
	rec := &Record{ID: newID(), FlowID: flow.ID, Format: "yaml", Body: body}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get retrieves and decodes the current descriptor for a flow id.
func (s *Service) Get(ctx context.Context, flowID descriptor.FlowID) (*descriptor.FlowDescriptor, error) {
	rec, err := s.repo.GetByFlowID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

// List retrieves every registered flow id.
func (s *Service) List(ctx context.Context) ([]descriptor.FlowID, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]descriptor.FlowID, len(recs))
	for i, rec := range recs {
		ids[i] = rec.FlowID
	}
	return ids, nil
}

// Update replaces a flow descriptor's body, retrying the CAS against the
// record's current version once if a concurrent writer raced it, the
// same single-retry pattern the teacher's tag service uses around its
// repository's CompareAndSwap.
func (s *Service) Update(ctx context.Context, flow *descriptor.FlowDescriptor) (*Record, error) {
	current, err := s.repo.GetByFlowID(ctx, flow.ID)
	if err != nil {
		return nil, err
	}
	body, err := flow.ToYAML()
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.CompareAndSwap(ctx, flow.ID, current.Version, "yaml", body)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err = s.repo.GetByFlowID(ctx, flow.ID)
		if err != nil {
			return nil, err
		}
		ok, err = s.repo.CompareAndSwap(ctx, flow.ID, current.Version, "yaml", body)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, zferrors.New(zferrors.GenericError, "concurrent update to flow %q, retry", flow.ID)
		}
	}
	return s.repo.GetByFlowID(ctx, flow.ID)
}

// GetField extracts a single dotted-path field from a stored flow
// descriptor without the caller having to decode and re-marshal the
// whole thing, the same gjson-over-a-JSON-projection approach the
// workflow resolver uses to pull one field out of a node's output.
func (s *Service) GetField(ctx context.Context, flowID descriptor.FlowID, path string) (string, error) {
	flow, err := s.Get(ctx, flowID)
	if err != nil {
		return "", err
	}
	body, err := flow.ToJSON()
	if err != nil {
		return "", err
	}
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return "", zferrors.New(zferrors.NodeNotFound, "field %q not found on flow %q", path, flowID)
	}
	return res.String(), nil
}

// Delete removes a flow descriptor from the catalog.
func (s *Service) Delete(ctx context.Context, flowID descriptor.FlowID) error {
	return s.repo.Delete(ctx, flowID)
}

func decode(rec *Record) (*descriptor.FlowDescriptor, error) {
	switch rec.Format {
	case "json":
		return descriptor.FlowFromJSON(rec.Body)
	default:
		return descriptor.FlowFromYAML(rec.Body)
	}
}
