// Package flatten implements the descriptor loader and flattener: it
// resolves a FlowDescriptor's node references (files or builtins,
// possibly composite) into a flat graph of concrete source, operator and
// sink descriptors plus the fully resolved link records between them.
//
// This mirrors the original loader's NodeDescriptor::flatten: a node
// reference is loaded, and if its body turns out to be a composite
// operator its inner nodes and links are recursively flattened and
// inlined into the parent graph, with inner node ids prefixed by the
// composite instance's id to keep the flattened graph's ids unique.
package flatten

import (
	"sort"
	"strings"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// Graph is a fully flattened dataflow: every node is a leaf (source,
// simple operator or sink) and every link has been rewritten onto the
// flattened node/port ids.
type Graph struct {
	ID        descriptor.FlowID
	Sources   []*descriptor.SourceDescriptor
	Operators []*descriptor.OperatorDescriptor
	Sinks     []*descriptor.SinkDescriptor
	Links     []*descriptor.LinkRecord
}

// Flattener loads and flattens flow descriptors. It holds the
// collaborators needed to resolve file:// references and compile link
// guards, both injected so the flattener is unit-testable without a real
// filesystem.
type Flattener struct {
	Reader   descriptor.FileReader
	GuardsBy *descriptor.GuardCompiler
}

// New builds a Flattener. guards may be nil if the caller knows no link
// in the descriptors it will flatten carries a "when" guard.
func New(reader descriptor.FileReader, guards *descriptor.GuardCompiler) *Flattener {
	return &Flattener{Reader: reader, GuardsBy: guards}
}

// Flatten resolves fd into a fully flattened Graph.
func (f *Flattener) Flatten(fd *descriptor.FlowDescriptor) (*Graph, error) {
	g := &Graph{ID: fd.ID}

	for _, nd := range fd.Sources {
		sd, err := f.loadSource(nd, fd.Configuration)
		if err != nil {
			return nil, err
		}
		g.Sources = append(g.Sources, sd)
	}
	for _, nd := range fd.Sinks {
		sd, err := f.loadSink(nd, fd.Configuration)
		if err != nil {
			return nil, err
		}
		g.Sinks = append(g.Sinks, sd)
	}

	idMap := map[descriptor.NodeID]descriptor.NodeID{}
	var ancestors []string
	for _, nd := range fd.Operators {
		ops, inner, err := f.flattenOperatorNode(nd, fd.Configuration, ancestors, idMap)
		if err != nil {
			return nil, err
		}
		g.Operators = append(g.Operators, ops...)
		g.Links = append(g.Links, inner...)
	}

	if err := checkUniqueIDs(g); err != nil {
		return nil, err
	}

	links, err := f.resolveTopLevelLinks(fd.Links, idMap)
	if err != nil {
		return nil, err
	}
	g.Links = append(g.Links, links...)

	return g, nil
}

func (f *Flattener) loadSource(nd descriptor.NodeDescriptor, globalConfig descriptor.Configuration) (*descriptor.SourceDescriptor, error) {
	raw, err := descriptor.TryLoadRaw(nd.Descriptor, nd.Configuration, descriptor.NodeKindSource, f.Reader)
	if err != nil {
		return nil, err
	}
	sd, err := descriptor.SourceFromYAML(raw)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.ParsingError, err, "loading source %q", nd.ID)
	}
	sd.Configuration = sd.Configuration.MergeOverwrite(globalConfig)
	sd.ID = nd.ID
	return sd, nil
}

func (f *Flattener) loadSink(nd descriptor.NodeDescriptor, globalConfig descriptor.Configuration) (*descriptor.SinkDescriptor, error) {
	raw, err := descriptor.TryLoadRaw(nd.Descriptor, nd.Configuration, descriptor.NodeKindSink, f.Reader)
	if err != nil {
		return nil, err
	}
	sd, err := descriptor.SinkFromYAML(raw)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.ParsingError, err, "loading sink %q", nd.ID)
	}
	sd.Configuration = sd.Configuration.MergeOverwrite(globalConfig)
	sd.ID = nd.ID
	return sd, nil
}

// flattenOperatorNode loads nd's descriptor body and, if it turns out to
// be composite, recurses into its inner graph. idMap accumulates the
// mapping from a composite's exterior (node,port) reference to the
// flattened inner node/port that implements it, so top level links that
// target a composite's interface can be rewritten afterwards.
func (f *Flattener) flattenOperatorNode(
	nd descriptor.NodeDescriptor,
	globalConfig descriptor.Configuration,
	ancestors []string,
	portMap map[descriptor.NodeID]descriptor.NodeID,
) ([]*descriptor.OperatorDescriptor, []*descriptor.LinkRecord, error) {
	raw, err := descriptor.TryLoadRaw(nd.Descriptor, nd.Configuration, descriptor.NodeKindOperator, f.Reader)
	if err != nil {
		return nil, nil, err
	}

	if simple, simpleErr := descriptor.OperatorFromYAML(raw); simpleErr == nil && simple.Library != "" {
		simple.Configuration = simple.Configuration.MergeOverwrite(globalConfig)
		simple.ID = nd.ID
		return []*descriptor.OperatorDescriptor{simple}, nil, nil
	}

	composite, compositeErr := descriptor.CompositeFromYAML(raw)
	if compositeErr != nil || len(composite.Nodes) == 0 {
		return nil, nil, zferrors.New(zferrors.ParsingError,
			"descriptor for operator %q is neither a valid simple operator nor a composite operator", nd.ID)
	}

	// Cycle detection keys on the descriptor reference (not the flattened
	// id, which is prefixed fresh at every nesting level and so can never
	// repeat): a composite that, directly or transitively, contains a node
	// pointing back at a descriptor already being flattened would recurse
	// forever.
	for i, a := range ancestors {
		if a == nd.Descriptor {
			path := append(append([]string{}, ancestors[i:]...), nd.Descriptor)
			return nil, nil, zferrors.New(zferrors.ParsingError,
				"cycle detected while flattening composite operator %q: %s", nd.ID, strings.Join(path, " -> "))
		}
	}
	ancestors = append(ancestors, nd.Descriptor)

	compositeConfig := composite.Configuration.MergeOverwrite(globalConfig)

	var flatOps []*descriptor.OperatorDescriptor
	var innerLinks []*descriptor.LinkRecord
	innerIDMap := map[descriptor.NodeID]descriptor.NodeID{}

	for _, inner := range composite.Nodes {
		prefixed := prefixID(nd.ID, inner.ID)
		prefixedInner := inner
		prefixedInner.ID = prefixed
		ops, links, err := f.flattenOperatorNode(prefixedInner, compositeConfig, ancestors, innerIDMap)
		if err != nil {
			return nil, nil, err
		}
		flatOps = append(flatOps, ops...)
		innerLinks = append(innerLinks, links...)
		innerIDMap[inner.ID] = prefixed
	}

	resolvedInner, err := f.resolveCompositeInnerLinks(nd.ID, composite.Links, innerIDMap)
	if err != nil {
		return nil, nil, err
	}
	innerLinks = append(innerLinks, resolvedInner...)

	for portID, ref := range composite.InputMapping {
		target, ok := innerIDMap[ref.Node]
		if !ok {
			return nil, nil, zferrors.New(zferrors.NodeNotFound,
				"composite %q input mapping references unknown inner node %q", nd.ID, ref.Node)
		}
		portMap[compositePortKey(nd.ID, portID)] = target
	}
	for portID, ref := range composite.OutputMapping {
		target, ok := innerIDMap[ref.Node]
		if !ok {
			return nil, nil, zferrors.New(zferrors.NodeNotFound,
				"composite %q output mapping references unknown inner node %q", nd.ID, ref.Node)
		}
		portMap[compositePortKey(nd.ID, portID)] = target
	}

	return flatOps, innerLinks, nil
}

func (f *Flattener) resolveCompositeInnerLinks(
	compositeID descriptor.NodeID,
	links []descriptor.LinkDescriptor,
	innerIDMap map[descriptor.NodeID]descriptor.NodeID,
) ([]*descriptor.LinkRecord, error) {
	var out []*descriptor.LinkRecord
	for _, l := range links {
		fromNode, ok := innerIDMap[l.FromNode]
		if !ok {
			return nil, zferrors.New(zferrors.NodeNotFound, "composite %q link references unknown node %q", compositeID, l.FromNode)
		}
		toNode, ok := innerIDMap[l.ToNode]
		if !ok {
			return nil, zferrors.New(zferrors.NodeNotFound, "composite %q link references unknown node %q", compositeID, l.ToNode)
		}
		rec, err := f.buildLinkRecord(fromNode, l.FromPort, toNode, l.ToPort, l.When)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *Flattener) resolveTopLevelLinks(
	links []descriptor.LinkDescriptor,
	compositePortMap map[descriptor.NodeID]descriptor.NodeID,
) ([]*descriptor.LinkRecord, error) {
	var out []*descriptor.LinkRecord
	for _, l := range links {
		fromNode := resolveNodeRef(l.FromNode, l.FromPort, compositePortMap)
		toNode := resolveNodeRef(l.ToNode, l.ToPort, compositePortMap)
		rec, err := f.buildLinkRecord(fromNode, l.FromPort, toNode, l.ToPort, l.When)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func resolveNodeRef(node descriptor.NodeID, port descriptor.PortID, compositePortMap map[descriptor.NodeID]descriptor.NodeID) descriptor.NodeID {
	if target, ok := compositePortMap[compositePortKey(node, port)]; ok {
		return target
	}
	return node
}

func (f *Flattener) buildLinkRecord(fromNode descriptor.NodeID, fromPort descriptor.PortID, toNode descriptor.NodeID, toPort descriptor.PortID, when string) (*descriptor.LinkRecord, error) {
	rec := &descriptor.LinkRecord{
		ID:       descriptor.LinkID(string(fromNode) + "/" + string(fromPort) + "->" + string(toNode) + "/" + string(toPort)),
		FromNode: fromNode,
		FromPort: fromPort,
		ToNode:   toNode,
		ToPort:   toPort,
	}
	if when != "" {
		if f.GuardsBy == nil {
			return nil, zferrors.New(zferrors.GenericError, "link %s carries a guard expression but no guard compiler was configured", rec.ID)
		}
		guard, err := f.GuardsBy.Compile(when)
		if err != nil {
			return nil, err
		}
		rec.Guard = guard
	}
	return rec, nil
}

func compositePortKey(node descriptor.NodeID, port descriptor.PortID) descriptor.NodeID {
	return descriptor.NodeID(string(node) + "#" + string(port))
}

func prefixID(parent, child descriptor.NodeID) descriptor.NodeID {
	return descriptor.NodeID(string(parent) + "/" + string(child))
}

func checkUniqueIDs(g *Graph) error {
	seen := make(map[descriptor.NodeID]bool)
	var ids []descriptor.NodeID
	for _, s := range g.Sources {
		ids = append(ids, s.ID)
	}
	for _, o := range g.Operators {
		ids = append(ids, o.ID)
	}
	for _, s := range g.Sinks {
		ids = append(ids, s.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if seen[id] {
			return zferrors.New(zferrors.ParsingError, "duplicate node id %q after flattening", id)
		}
		seen[id] = true
	}
	return nil
}
