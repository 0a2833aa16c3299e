// Package instance ties the flattener, channel fabric, plug-in loader and
// runners together into a running DataflowInstance: one instantiation of
// a flow descriptor, owning every node's runner and exposing the
// lifecycle operations the admin API drives.
package instance

import "github.com/google/uuid"
import "github.com/zenohflow/runtime/internal/descriptor"

// InstanceContext identifies a single instantiation of a flow: which
// flow it came from, the UUID minted for this run, and the runtime this
// instance is bound to (used to scope cross-runtime connector topics).
type InstanceContext struct {
	FlowID     descriptor.FlowID
	InstanceID uuid.UUID
	RuntimeID  uuid.UUID
}
