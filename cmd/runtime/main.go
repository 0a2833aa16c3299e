// Command runtime instantiates a single dataflow descriptor from the
// local filesystem and runs it in this process until interrupted. It
// bypasses the catalog and admin API entirely, for local development
// and CI smoke runs. It runs without a connector bus, so a flow using a
// builtin://zenoh node fails to instantiate here; that requires
// runtime-api.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/common/bootstrap"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/connector"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/instance"
	"github.com/zenohflow/runtime/internal/plugin"
)

func main() {
	ctx := context.Background()

	connector.RegisterZenoh()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: runtime <flow-descriptor.yaml>")
		os.Exit(1)
	}
	flowPath := os.Args[1]

	components, err := bootstrap.Setup(ctx, "runtime",
		bootstrap.WithoutDB(),
		bootstrap.WithoutBus(),
		bootstrap.WithoutTelemetry(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	flow, err := loadFlow(flowPath)
	if err != nil {
		components.Logger.Error("failed to load flow descriptor", "error", err, "path", flowPath)
		os.Exit(1)
	}

	guards, err := descriptor.NewGuardCompiler()
	if err != nil {
		components.Logger.Error("failed to build guard compiler", "error", err)
		os.Exit(1)
	}

	inst, err := instance.TryInstantiate(
		flow,
		instance.OSFileReader{},
		guards,
		plugin.StdlibResolver{},
		clock.NewHLC(),
		uuid.New(),
		components.Logger,
	)
	if err != nil {
		components.Logger.Error("failed to instantiate flow", "error", err, "flow_id", flow.ID)
		os.Exit(1)
	}

	if err := inst.StartAll(); err != nil {
		components.Logger.Error("failed to start nodes", "error", err)
		os.Exit(1)
	}
	components.Logger.Info("dataflow instance running",
		"instance_id", inst.GetUUID(),
		"flow_id", inst.GetFlow(),
		"sources", inst.GetSources(),
		"operators", inst.GetOperators(),
		"sinks", inst.GetSinks(),
		"connectors", inst.GetConnectors(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	components.Logger.Info("shutting down dataflow instance", "instance_id", inst.GetUUID())
	if err := inst.StopAll(); err != nil {
		components.Logger.Error("error stopping nodes", "error", err)
		os.Exit(1)
	}
}

func loadFlow(path string) (*descriptor.FlowDescriptor, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return descriptor.FlowFromYAML(body)
}
