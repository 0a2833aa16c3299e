// Package catalog persists named flow descriptors so a flow can be
// registered once (by YAML or JSON body) and instantiated repeatedly by
// id, instead of every instantiation needing its own copy of the
// descriptor tree on disk.
package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/internal/descriptor"
)

// Record is a single stored flow descriptor: the flow's own identity
// plus an opaque encoded body (YAML or JSON, per Format) and an
// optimistic-locking version so concurrent updates are detected rather
// than silently lost.
type Record struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	FlowID    descriptor.FlowID  `db:"flow_id" json:"flow_id"`
	Format    string             `db:"format" json:"format"`
	Body      []byte             `db:"body" json:"body"`
	Version   int64              `db:"version" json:"version"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}
