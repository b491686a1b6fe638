// SPDX-License-Identifier: MIT
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	applog "codeclab/internal/log"
	"codeclab/internal/variant"
)

// Route is the compiled, immutable view of the graph read by the audio
// callbacks.
type Route struct {
	Mode    Mode
	Variant variant.ID // variant feeding the Tap, empty when none
	Input   bool       // Source -> Variant is connected
	Buffer  bool       // Buffer -> Variant is connected
	Sink    bool       // Tap -> Sink is connected
}

// Manager owns the edge set. It is not safe for concurrent use; every
// call happens on the scheduler goroutine. Route may be read from any
// goroutine.
type Manager struct {
	catalog *variant.Catalog
	state   RoutingState
	edges   map[Edge]struct{}
	route   atomic.Pointer[Route]

	// OnOp, when set, observes every applied edge operation in order.
	OnOp func(EdgeOp)
}

// NewManager creates an uninitialized manager over catalog.
func NewManager(catalog *variant.Catalog) *Manager {
	m := &Manager{
		catalog: catalog,
		edges:   make(map[Edge]struct{}),
	}
	m.route.Store(&Route{Mode: Uninitialized})
	return m
}

// Catalog returns the variants the manager routes.
func (m *Manager) Catalog() *variant.Catalog { return m.catalog }

// State returns the current routing state.
func (m *Manager) State() RoutingState { return m.state }

// Route returns the latest published route.
func (m *Manager) Route() *Route { return m.route.Load() }

// Initialize wires the default live route through the first variant.
func (m *Manager) Initialize() error {
	return m.apply(Change{Kind: Init})
}

// SelectVariant routes the live source through id. During playback only
// the selection is recorded.
func (m *Manager) SelectVariant(id variant.ID) error {
	return m.apply(Change{Kind: Select, Variant: id})
}

// BeginPlayback routes the buffer source through the selected variant and
// unmutes the sink.
func (m *Manager) BeginPlayback() error {
	return m.apply(Change{Kind: BeginPlayback})
}

// EndPlayback mutes the sink and restores the live route through the
// currently selected variant.
func (m *Manager) EndPlayback() error {
	return m.apply(Change{Kind: EndPlayback})
}

// Shutdown removes every edge. It is safe to call repeatedly.
func (m *Manager) Shutdown() error {
	return m.apply(Change{Kind: Shutdown})
}

func (m *Manager) apply(change Change) error {
	next, ops, err := Transition(m.state, change, m.catalog)
	if err != nil {
		return err
	}

	for _, op := range ops {
		switch op.Kind {
		case Connect:
			m.edges[op.Edge] = struct{}{}
		case Disconnect:
			delete(m.edges, op.Edge)
		}
		if m.OnOp != nil {
			m.OnOp(op)
		}
	}

	if err := Check(next, m.edges); err != nil {
		// A transition that breaks the invariants is a programming error.
		applog.Errorf("Graph: %v after %v", err, change.Kind)
		return fmt.Errorf("graph: %w", err)
	}

	m.state = next
	m.route.Store(compile(next, m.edges))
	applog.Debugf("Graph: %v -> mode=%v selected=%s active=%s (%d ops)", change.Kind, next.Mode, next.Selected, next.Active, len(ops))
	return nil
}

// Edges returns the current edges in a stable order.
func (m *Manager) Edges() []Edge {
	out := make([]Edge, 0, len(m.edges))
	for e := range m.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Check verifies the routing invariants of edges against state:
// at most one variant feeds the Tap, exactly one source feeds that
// variant once initialized, and the Sink is connected exactly during
// playback.
func Check(state RoutingState, edges map[Edge]struct{}) error {
	var tapFeeds []variant.ID
	var feeders []NodeID
	sink := false
	for e := range edges {
		switch {
		case e.To == Tap:
			id, ok := VariantOf(e.From)
			if !ok {
				return fmt.Errorf("%s feeds the tap directly", e.From)
			}
			tapFeeds = append(tapFeeds, id)
		case e.From == Tap && e.To == Sink:
			sink = true
		}
	}

	if len(tapFeeds) > 1 {
		return fmt.Errorf("%d variants feed the tap", len(tapFeeds))
	}

	if state.Mode == Uninitialized {
		if len(edges) != 0 {
			return errors.New("uninitialized graph has edges")
		}
		return nil
	}

	if len(tapFeeds) != 1 || tapFeeds[0] != state.Active {
		return fmt.Errorf("active variant %q is not the one feeding the tap", state.Active)
	}
	active := VariantNode(state.Active)
	for e := range edges {
		if e.To == active {
			feeders = append(feeders, e.From)
		}
	}
	want := Source
	if state.Mode == Playback {
		want = Buffer
	}
	if len(feeders) != 1 || feeders[0] != want {
		return fmt.Errorf("variant %q is fed by %v, want only %s", state.Active, feeders, want)
	}
	for e := range edges {
		if (e.From == Source || e.From == Buffer) && e.To != active {
			return fmt.Errorf("dangling edge %s", e)
		}
	}

	if sink != (state.Mode == Playback) {
		return fmt.Errorf("sink connected=%v in %v mode", sink, state.Mode)
	}
	return nil
}

func compile(state RoutingState, edges map[Edge]struct{}) *Route {
	r := &Route{Mode: state.Mode}
	if state.Mode == Uninitialized {
		return r
	}
	v := VariantNode(state.Active)
	if _, ok := edges[Edge{v, Tap}]; ok {
		r.Variant = state.Active
	}
	_, r.Input = edges[Edge{Source, v}]
	_, r.Buffer = edges[Edge{Buffer, v}]
	_, r.Sink = edges[Edge{Tap, Sink}]
	return r
}
