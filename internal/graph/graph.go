// SPDX-License-Identifier: MIT

// Package graph owns the routing between the live source, the one-shot
// buffer source, the variant nodes, the Tap and the output sink.
//
// Rewiring is a pure function of the routing state: Transition returns the
// next state and the ordered edge operations that realise it. The Manager
// applies those operations to its edge set, checks the result and only
// then publishes an immutable Route for the audio callbacks.
package graph

import (
	"fmt"

	"codeclab/internal/errs"
	"codeclab/internal/variant"
)

// NodeID names a node of the graph.
type NodeID string

// Fixed nodes.
const (
	Source NodeID = "source" // live input
	Buffer NodeID = "buffer" // one-shot playback source
	Tap    NodeID = "tap"
	Sink   NodeID = "sink"
)

const variantPrefix = "variant:"

// VariantNode returns the node of a processing variant.
func VariantNode(id variant.ID) NodeID {
	return NodeID(variantPrefix + string(id))
}

// VariantOf returns the variant of n and whether n is a variant node.
func VariantOf(n NodeID) (variant.ID, bool) {
	s := string(n)
	if len(s) <= len(variantPrefix) || s[:len(variantPrefix)] != variantPrefix {
		return "", false
	}
	return variant.ID(s[len(variantPrefix):]), true
}

// Edge is a directed connection.
type Edge struct {
	From NodeID
	To   NodeID
}

func (e Edge) String() string {
	return string(e.From) + "->" + string(e.To)
}

// OpKind is the kind of an edge operation.
type OpKind int

const (
	Connect OpKind = iota
	Disconnect
)

func (k OpKind) String() string {
	if k == Connect {
		return "connect"
	}
	return "disconnect"
}

// EdgeOp is one step of a rewiring.
type EdgeOp struct {
	Kind OpKind
	Edge Edge
}

func (op EdgeOp) String() string {
	return op.Kind.String() + " " + op.Edge.String()
}

func connect(from, to NodeID) EdgeOp    { return EdgeOp{Kind: Connect, Edge: Edge{from, to}} }
func disconnect(from, to NodeID) EdgeOp { return EdgeOp{Kind: Disconnect, Edge: Edge{from, to}} }

// Mode is the routing mode of the graph.
type Mode int

const (
	Uninitialized Mode = iota
	Live
	Playback
)

func (m Mode) String() string {
	switch m {
	case Uninitialized:
		return "uninitialized"
	case Live:
		return "live"
	case Playback:
		return "playback"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RoutingState is the logical routing of the graph.
type RoutingState struct {
	Selected variant.ID // variant the user picked
	Active   variant.ID // variant currently wired between a source and the Tap
	Mode     Mode
}

// ChangeKind enumerates the routing changes.
type ChangeKind int

const (
	Init ChangeKind = iota
	Select
	BeginPlayback
	EndPlayback
	Shutdown
)

func (k ChangeKind) String() string {
	switch k {
	case Init:
		return "init"
	case Select:
		return "select"
	case BeginPlayback:
		return "begin-playback"
	case EndPlayback:
		return "end-playback"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a requested routing change. Variant is used by Select.
type Change struct {
	Kind    ChangeKind
	Variant variant.ID
}

// Transition computes the state after change and the edge operations that
// take the graph there. It never mutates anything.
//
// Selecting while in playback only records the selection; the in-flight
// playback keeps its wired variant. Starting playback connects Tap->Sink
// as the last step and ending it disconnects Tap->Sink as the first.
func Transition(state RoutingState, change Change, catalog *variant.Catalog) (RoutingState, []EdgeOp, error) {
	switch change.Kind {
	case Init:
		if state.Mode != Uninitialized {
			return state, nil, errs.ErrAlreadyInitialized
		}
		first := catalog.First().ID
		next := RoutingState{Selected: first, Active: first, Mode: Live}
		return next, liveRoute(first), nil

	case Select:
		if state.Mode == Uninitialized {
			return state, nil, errs.ErrNotInitialized
		}
		if !catalog.Has(change.Variant) {
			return state, nil, fmt.Errorf("select %q: %w", change.Variant, errs.ErrInvalidVariant)
		}
		next := state
		next.Selected = change.Variant
		if state.Mode == Playback {
			return next, nil, nil
		}
		next.Active = change.Variant
		ops := detachSources(catalog, Source, Buffer)
		ops = append(ops, detachTap(catalog)...)
		ops = append(ops, liveRoute(change.Variant)...)
		return next, ops, nil

	case BeginPlayback:
		switch state.Mode {
		case Uninitialized:
			return state, nil, errs.ErrNotInitialized
		case Playback:
			return state, nil, fmt.Errorf("playback already routed: %w", errs.ErrInvalidState)
		}
		next := RoutingState{Selected: state.Selected, Active: state.Selected, Mode: Playback}
		v := VariantNode(state.Selected)
		ops := detachSources(catalog, Source, Buffer)
		ops = append(ops, detachTap(catalog)...)
		ops = append(ops,
			connect(Buffer, v),
			connect(v, Tap),
			connect(Tap, Sink),
		)
		return next, ops, nil

	case EndPlayback:
		switch state.Mode {
		case Uninitialized:
			return state, nil, errs.ErrNotInitialized
		case Live:
			return state, nil, fmt.Errorf("no playback routed: %w", errs.ErrInvalidState)
		}
		next := RoutingState{Selected: state.Selected, Active: state.Selected, Mode: Live}
		ops := []EdgeOp{disconnect(Tap, Sink)}
		ops = append(ops, detachSources(catalog, Buffer, Source)...)
		ops = append(ops, detachTap(catalog)...)
		ops = append(ops, liveRoute(state.Selected)...)
		return next, ops, nil

	case Shutdown:
		if state.Mode == Uninitialized {
			return RoutingState{}, nil, nil
		}
		ops := []EdgeOp{disconnect(Tap, Sink)}
		ops = append(ops, detachSources(catalog, Buffer, Source)...)
		ops = append(ops, detachTap(catalog)...)
		return RoutingState{}, ops, nil

	default:
		return state, nil, fmt.Errorf("unknown routing change %v", change.Kind)
	}
}

func liveRoute(id variant.ID) []EdgeOp {
	v := VariantNode(id)
	return []EdgeOp{connect(Source, v), connect(v, Tap)}
}

func detachSources(catalog *variant.Catalog, sources ...NodeID) []EdgeOp {
	ops := make([]EdgeOp, 0, len(sources)*catalog.Len())
	for _, src := range sources {
		for _, id := range catalog.IDs() {
			ops = append(ops, disconnect(src, VariantNode(id)))
		}
	}
	return ops
}

func detachTap(catalog *variant.Catalog) []EdgeOp {
	ops := make([]EdgeOp, 0, catalog.Len())
	for _, id := range catalog.IDs() {
		ops = append(ops, disconnect(VariantNode(id), Tap))
	}
	return ops
}
