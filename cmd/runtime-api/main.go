// Command runtime-api serves the admin HTTP API: a catalog of flow
// descriptors plus lifecycle control over dataflow instances running
// in this process.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/common/bootstrap"
	"github.com/zenohflow/runtime/internal/api"
	"github.com/zenohflow/runtime/internal/catalog"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/connector"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/instance"
	"github.com/zenohflow/runtime/internal/plugin"
)

func main() {
	ctx := context.Background()

	connector.RegisterZenoh()

	components, err := bootstrap.Setup(ctx, "runtime-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to bootstrap runtime-api: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	guards, err := descriptor.NewGuardCompiler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build guard compiler: %v\n", err)
		os.Exit(1)
	}

	repo := catalog.NewRepository(components.DB)
	catalogSvc := catalog.NewService(repo)
	registry := api.NewRegistry()
	hlc := clock.NewHLC()

	var resolver plugin.Resolver = plugin.StdlibResolver{}
	if components.Bus != nil {
		resolver = connector.WrapResolver(resolver, components.Bus, hlc)
	}

	handler := api.NewHandler(
		catalogSvc,
		registry,
		instance.OSFileReader{},
		guards,
		resolver,
		hlc,
		uuid.New(),
		components.Logger,
	).WithBus(components.Bus)

	e := api.NewServer(handler)

	if err := api.Serve(e, components); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
