// Package runner implements the per-node execution loops described by
// spec §4.5: a SourceRunner repeatedly invokes a source's Run and
// timestamps/publishes its output, an OperatorRunner drives the
// token/rule engine (internal/token) against an operator's input ports,
// and a SinkRunner drives the same engine against a sink's input ports
// and hands the resulting inputs to the sink. All three honor context cancellation as their sole stop signal,
// per spec §5.
package runner

import (
	"context"

	"github.com/zenohflow/runtime/internal/descriptor"
)

// Runner is the uniform interface every node's execution loop satisfies,
// so a DataflowInstance can start/stop nodes without caring which kind
// each one is.
type Runner interface {
	// Run blocks until ctx is cancelled or an unrecoverable error occurs.
	// A context cancellation is not itself reported as an error.
	Run(ctx context.Context) error
	// NodeID identifies which node this runner drives.
	NodeID() descriptor.NodeID
}
