package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zenohflow/runtime/common/logger"
	"github.com/zenohflow/runtime/internal/catalog"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/connector"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/instance"
	"github.com/zenohflow/runtime/internal/plugin"
)

// Handler implements the admin HTTP API: catalog CRUD and instance
// lifecycle, the way the teacher's WorkflowHandler fronts its
// repository/service layer from echo.Context.
type Handler struct {
	catalog   *catalog.Service
	registry  *Registry
	reader    descriptor.FileReader
	guards    *descriptor.GuardCompiler
	resolver  plugin.Resolver
	hlc       *clock.HLC
	runtimeID uuid.UUID
	log       *logger.Logger
	bus       *connector.InstrumentedRedisBus
}

// WithBus attaches the connector bus so the handler can expose topic
// traffic counters. Optional: a Handler built without one simply has no
// /stats/topics endpoint data.
func (h *Handler) WithBus(bus *connector.InstrumentedRedisBus) *Handler {
	h.bus = bus
	return h
}

// NewHandler builds a Handler. resolver is typically
// plugin.StdlibResolver{} in production and a FakeResolver in tests.
func NewHandler(
	catalogSvc *catalog.Service,
	registry *Registry,
	reader descriptor.FileReader,
	guards *descriptor.GuardCompiler,
	resolver plugin.Resolver,
	hlc *clock.HLC,
	runtimeID uuid.UUID,
	log *logger.Logger,
) *Handler {
	return &Handler{
		catalog:   catalogSvc,
		registry:  registry,
		reader:    reader,
		guards:    guards,
		resolver:  resolver,
		hlc:       hlc,
		runtimeID: runtimeID,
		log:       log,
	}
}

func errJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]interface{}{"error": err.Error()})
}

// CreateFlow registers a new flow descriptor in the catalog.
// POST /flows
func (h *Handler) CreateFlow(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}

	flow, err := decodeFlow(c, body)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}

	rec, err := h.catalog.Register(c.Request().Context(), flow)
	if err != nil {
		return errJSON(c, http.StatusConflict, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      rec.ID,
		"flow_id": rec.FlowID,
		"version": rec.Version,
	})
}

// ListFlows lists every registered flow id.
// GET /flows
func (h *Handler) ListFlows(c echo.Context) error {
	ids, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"flows": ids})
}

// GetFlowField extracts a single dotted-path field from a stored flow
// descriptor, e.g. "sources.0.descriptor".
// GET /flows/:id/fields/:path
func (h *Handler) GetFlowField(c echo.Context) error {
	flowID := descriptor.FlowID(c.Param("id"))
	path := c.Param("path")

	val, err := h.catalog.GetField(c.Request().Context(), flowID, path)
	if err != nil {
		return errJSON(c, http.StatusNotFound, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"path": path, "value": val})
}

// CreateInstance instantiates a previously registered flow descriptor.
// POST /flows/:id/instances
func (h *Handler) CreateInstance(c echo.Context) error {
	flowID := descriptor.FlowID(c.Param("id"))

	flow, err := h.catalog.Get(c.Request().Context(), flowID)
	if err != nil {
		return errJSON(c, http.StatusNotFound, err)
	}

	inst, err := instance.TryInstantiate(flow, h.reader, h.guards, h.resolver, h.hlc, h.runtimeID, h.log)
	if err != nil {
		return errJSON(c, http.StatusUnprocessableEntity, err)
	}
	h.registry.Put(inst)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"instance_id": inst.GetUUID(),
		"flow_id":     inst.GetFlow(),
		"sources":     inst.GetSources(),
		"operators":   inst.GetOperators(),
		"sinks":       inst.GetSinks(),
		"connectors":  inst.GetConnectors(),
	})
}

// StartNode starts a single node of a running instance.
// POST /instances/:id/nodes/:node/start
func (h *Handler) StartNode(c echo.Context) error {
	return h.controlNode(c, (*instance.DataflowInstance).StartNode)
}

// StopNode stops a single node of a running instance.
// POST /instances/:id/nodes/:node/stop
func (h *Handler) StopNode(c echo.Context) error {
	return h.controlNode(c, (*instance.DataflowInstance).StopNode)
}

func (h *Handler) controlNode(c echo.Context, op func(*instance.DataflowInstance, descriptor.NodeID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	inst, err := h.registry.Get(id)
	if err != nil {
		return errJSON(c, http.StatusNotFound, err)
	}
	node := descriptor.NodeID(c.Param("node"))
	if err := op(inst, node); err != nil {
		return errJSON(c, http.StatusUnprocessableEntity, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"node":    node,
		"running": inst.IsNodeRunning(node),
	})
}

// GetInstance reports an instance's node projections and running state.
// GET /instances/:id
func (h *Handler) GetInstance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errJSON(c, http.StatusBadRequest, err)
	}
	inst, err := h.registry.Get(id)
	if err != nil {
		return errJSON(c, http.StatusNotFound, err)
	}

	running := make(map[string]bool)
	for _, n := range inst.GetNodes() {
		running[string(n)] = inst.IsNodeRunning(n)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"instance_id": inst.GetUUID(),
		"flow_id":     inst.GetFlow(),
		"sources":     inst.GetSources(),
		"operators":   inst.GetOperators(),
		"sinks":       inst.GetSinks(),
		"connectors":  inst.GetConnectors(),
		"running":     running,
	})
}

// TopicCounts reports how many messages have crossed the connector bus
// per link topic.
// GET /stats/topics
func (h *Handler) TopicCounts(c echo.Context) error {
	if h.bus == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"topics": map[string]int64{}})
	}
	counts, err := h.bus.TopicCounts(c.Request().Context())
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"topics": counts})
}

func readBody(c echo.Context) ([]byte, error) {
	defer c.Request().Body.Close()
	return io.ReadAll(c.Request().Body)
}

func decodeFlow(c echo.Context, body []byte) (*descriptor.FlowDescriptor, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.Contains(ct, "json") {
		return descriptor.FlowFromJSON(body)
	}
	return descriptor.FlowFromYAML(body)
}
