package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/common/db"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// Repository handles database operations for stored flow descriptors.
type Repository struct {
	db *db.DB
}

// NewRepository creates a flow descriptor repository.
func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new flow descriptor record.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO flow_descriptor (id, flow_id, format, body, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW(), NOW())
		RETURNING version, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, rec.ID, rec.FlowID, rec.Format, rec.Body).
		Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return zferrors.Wrap(zferrors.IOError, err, "creating flow descriptor %q", rec.FlowID)
	}
	return nil
}

// GetByFlowID retrieves the current record for a flow id.
func (r *Repository) GetByFlowID(ctx context.Context, flowID descriptor.FlowID) (*Record, error) {
	query := `
		SELECT id, flow_id, format, body, version, created_at, updated_at
		FROM flow_descriptor
		WHERE flow_id = $1
	`
	rec := &Record{}
	err := r.db.QueryRow(ctx, query, flowID).Scan(
		&rec.ID, &rec.FlowID, &rec.Format, &rec.Body, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.IOError, err, "getting flow descriptor %q", flowID)
	}
	return rec, nil
}

// List retrieves every stored flow descriptor, most recently updated
// first.
func (r *Repository) List(ctx context.Context) ([]*Record, error) {
	query := `
		SELECT id, flow_id, format, body, version, created_at, updated_at
		FROM flow_descriptor
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.IOError, err, "listing flow descriptors")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		if err := rows.Scan(&rec.ID, &rec.FlowID, &rec.Format, &rec.Body, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, zferrors.Wrap(zferrors.IOError, err, "scanning flow descriptor row")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, zferrors.Wrap(zferrors.IOError, err, "iterating flow descriptors")
	}
	return records, nil
}

// CompareAndSwap updates the body of flowID's record only if its current
// version matches expectedVersion, the same optimistic-locking pattern
// the orchestrator's tag repository uses for its CAS moves. Returns
// false, without error, if the version did not match (a concurrent
// update already happened).
func (r *Repository) CompareAndSwap(ctx context.Context, flowID descriptor.FlowID, expectedVersion int64, format string, body []byte) (bool, error) {
	query := `
		UPDATE flow_descriptor
		SET format = $3, body = $4, version = version + 1, updated_at = NOW()
		WHERE flow_id = $1 AND version = $2
		RETURNING version
	`
	var newVersion int64
	err := r.db.QueryRow(ctx, query, flowID, expectedVersion, format, body).Scan(&newVersion)
	if err != nil {
		return false, nil
	}
	return true, nil
}

// Delete removes a flow descriptor record.
func (r *Repository) Delete(ctx context.Context, flowID descriptor.FlowID) error {
	query := `DELETE FROM flow_descriptor WHERE flow_id = $1`
	result, err := r.db.Exec(ctx, query, flowID)
	if err != nil {
		return zferrors.Wrap(zferrors.IOError, err, "deleting flow descriptor %q", flowID)
	}
	if result.RowsAffected() == 0 {
		return zferrors.New(zferrors.NodeNotFound, "flow descriptor %q not found", flowID)
	}
	return nil
}

// newID mints a fresh record id; split out so tests can't confuse this
// with the flow's own id.
func newID() uuid.UUID { return uuid.New() }
