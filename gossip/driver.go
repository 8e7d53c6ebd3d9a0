// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/gossipgraph/set"
)

// Driver executes one round of the PARSEC-like agreement protocol at every
// event, wavefront-style along each creator's self-parent chain. It owns
// no state across runs; Run is the single entry point and operates on an
// already loaded-and-indexed Graph.
type Driver struct {
	log    log.Logger
	marked int // events marked during the last Run, exposed for metrics

	promMarked    prometheus.Counter
	promDecisions prometheus.Counter
	promRounds    prometheus.Counter
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithRegisterer registers the Driver's instruments against reg instead of
// a private, unregistered registry. Pass the CLI's shared registry to
// expose these counters alongside the rest of a process's metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Driver) { d.registerMetrics(reg) }
}

// NewDriver returns a Driver that logs through logger. A nil logger
// defaults to a no-op, so callers always get a usable logger even when
// they wire none in. Without WithRegisterer, instruments are registered
// against a private prometheus.NewRegistry() that nothing else observes,
// matching poll.DefaultFactory's init-time fallback registry.
func NewDriver(logger log.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	d := &Driver{log: logger}
	d.registerMetrics(prometheus.NewRegistry())
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// registerMetrics (re)registers the Driver's counters against reg. A
// registration failure (e.g. a name collision in a shared registry) is
// logged and otherwise ignored: metrics are an observability aid, never a
// reason to fail the underlying consensus computation.
func (d *Driver) registerMetrics(reg prometheus.Registerer) {
	d.promMarked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gossipgraph_events_marked_total",
		Help: "Total number of events marked by the consensus driver.",
	})
	d.promDecisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gossipgraph_decisions_reached_total",
		Help: "Total number of per-voter decisions reached.",
	})
	d.promRounds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gossipgraph_rounds_advanced_total",
		Help: "Total number of per-voter round advances (step 2 wrapping to step 0).",
	})
	for _, c := range []prometheus.Collector{d.promMarked, d.promDecisions, d.promRounds} {
		if err := reg.Register(c); err != nil {
			d.log.Debug("metric registration skipped", "error", err)
		}
	}
}

// MarkedCount returns how many events were marked by the most recent Run.
func (d *Driver) MarkedCount() int { return d.marked }

// Run drives the wavefront forward along every creator's self-parent chain
// until all cursors are exhausted, marking each event in turn. It recovers
// invariantViolation panics raised by the per-event assertions and returns
// them as ErrInvariantViolation — such a panic indicates a driver bug, not
// a malformed input.
func (d *Driver) Run(g *Graph) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(invariantViolation); ok {
				err = iv
				return
			}
			panic(r)
		}
	}()

	d.marked = 0
	creators := make([]string, 0, len(g.InitialEvents()))
	for _, initial := range g.InitialEvents() {
		creators = append(creators, g.MustEvent(initial).Creator)
	}

	cursors := append([]string(nil), g.InitialEvents()...)
	for {
		progressed := false
		for i, cur := range cursors {
			if cur == "" {
				continue
			}
			if d.mark(g, cur, creators) {
				cursors[i] = g.MustEvent(cur).SelfChild
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return nil
}

// mark attempts to finalize consensus state at target. It succeeds iff
// both parents (when present) are already marked.
func (d *Driver) mark(g *Graph, target string, creators []string) bool {
	if target == "" {
		return false
	}
	event := g.MustEvent(target)

	if !d.parentMarked(g, event.SelfParent) || !d.parentMarked(g, event.OtherParent) {
		return false
	}

	assertf(!event.Marked, "event %q marked twice", event.Name)
	d.deduce(g, event, creators)
	event.Marked = true
	d.marked++
	d.promMarked.Inc()
	d.log.Debug("marked event", "name", event.Name, "creator", event.Creator, "index", event.Index)
	return true
}

// parentMarked treats a missing parent (initial events have none) as
// already marked, so the wavefront never blocks on an absent parent.
func (d *Driver) parentMarked(g *Graph, name string) bool {
	p := g.Event(name)
	if p == nil {
		return true
	}
	return p.Marked
}

// deduce runs the per-voter protocol step at target for every creator.
func (d *Driver) deduce(g *Graph, target *Event, creators []string) {
	n := g.N()
	th := NewThresholds(n)

	if len(target.Estimation) != n {
		// Voter set not yet complete: merely seed what we have, no protocol.
		return
	}

	selfParent := g.Event(target.SelfParent) // nil for an initial event

	for _, node := range creators {
		d.deduceVoter(g, target, selfParent, node, th)
	}
}

// voterState is the set of per-voter fields carried from the self-parent
// into the current event before this step's deduction, distinct from
// target's pre-existing (seeded) state.
type voterState struct {
	round      int
	step       int
	estimation BitSet
	decision   Vote
	auxVote    Vote
	binary     BitSet
}

func (d *Driver) deduceVoter(g *Graph, target, selfParent *Event, node string, th Thresholds) {
	own := inheritFromSelfParent(selfParent, node)
	selfParentStep := own.step

	// Step 1 — estimation merge.
	estSeen := ancestorEstimationSeen(g, target, node, own.round, own.step)
	for _, b := range []bool{false, true} {
		if estSeen[b].Len() >= th.OneThird {
			own.estimation = own.estimation.Insert(b)
		}
	}
	if own.estimation.Empty() {
		own.estimation = target.Estimation[node]
	}

	// Step 2 — decided branch.
	if own.decision.Set {
		own.estimation = SingleBit(own.decision.Value)
		own.binary = SingleBit(own.decision.Value)
		own.auxVote = own.decision
	} else {
		// Step 3 — binary value aggregation: the same ancestor walk as
		// step 1 (every qualifying ancestor's estimation for this voter),
		// seeded with target's own creator vote before merging.
		bvSeen := ancestorEstimationSeen(g, target, node, own.round, own.step)
		for _, b := range target.Estimation[node].Bits() {
			addSeen(bvSeen, b, target.Creator)
		}
		for _, b := range []bool{false, true} {
			if bvSeen[b].Len() >= th.SuperMajority {
				own.binary = own.binary.Insert(b)
			}
		}

		// Step 4 — auxiliary vote.
		if selfParent != nil && selfParent.AuxVote[node].Set {
			own.auxVote = selfParent.AuxVote[node]
		} else if single, ok := own.binary.Only(); ok {
			own.auxVote = Decided(single)
		} else if own.binary.Empty() {
			own.auxVote = Vote{}
		} else {
			own.auxVote = Decided(true) // canonical tie-break, size-2 binary value
		}

		// Step 5 — aux-vote aggregation.
		auxSeen := ancestorAuxVoteSeen(g, target, node, own.round, own.step)
		if own.auxVote.Set {
			addSeen(auxSeen, own.auxVote.Value, target.Creator)
		}

		auxVoters := set.Of[string]()
		for _, voters := range auxSeen {
			auxVoters = auxVoters.Union(voters)
		}

		// Step 6 — step machine.
		if auxVoters.Len() >= th.SuperMajority {
			d.advanceStep(&own, auxSeen, th)
		}
	}

	// Step 7 — reset of transient state on advance.
	if own.step != selfParentStep {
		own.binary = BitSet{}
		own.auxVote = Vote{}
	}

	d.commit(target, node, own)
}

// inheritFromSelfParent reads the self-parent's per-voter state, defaulting
// to zero/empty when there is no self-parent or the voter has no entry yet.
func inheritFromSelfParent(selfParent *Event, node string) voterState {
	var s voterState
	if selfParent == nil {
		return s
	}
	s.round = selfParent.Round[node]
	s.step = selfParent.Step[node]
	s.estimation = selfParent.Estimation[node]
	s.decision = selfParent.Decision[node]
	return s
}

// sortedSeenBits returns the bit keys actually present in a sparse seen-map
// in ascending order (false before true) — the bits some qualifying
// ancestor or target actually cast, never a phantom absent entry. This
// mirrors iterating a Rust BTreeMap<bool, BTreeSet<String>>, which only
// ever holds a key once something inserted it.
func sortedSeenBits(m map[bool]set.Set[string]) []bool {
	var out []bool
	if _, ok := m[false]; ok {
		out = append(out, false)
	}
	if _, ok := m[true]; ok {
		out = append(out, true)
	}
	return out
}

// advanceStep implements the three-way step machine. Step 0 and step 1 are
// symmetric and inverted; step 2 wraps back to 0 and advances the round.
// Each case iterates only the bits actually present in auxSeen (sparse, per
// sortedSeenBits) — never a fixed two-element {false,true} enumeration — so
// a bit nobody cast never contributes a phantom iteration. Decision writes
// happen inside the per-bit loop using "continue" rather than an early
// return: later bits in the same (now sparse) aux-vote tally may still
// update own.estimation afterward, matching main.rs's own "for (aux_vote,
// voters) in aux_votes_seen_list.iter() { ... continue; }" loop, which never
// breaks on a decision either.
func (d *Driver) advanceStep(own *voterState, auxSeen map[bool]set.Set[string], th Thresholds) {
	switch own.step {
	case 0:
		for _, b := range sortedSeenBits(auxSeen) {
			voters := auxSeen[b]
			var est bool
			if voters.Len() >= th.SuperMajority {
				if b {
					own.decision = Decided(true)
					continue
				}
				est = false
			} else {
				est = true
			}
			own.estimation = SingleBit(est)
		}
		own.step = 1
	case 1:
		for _, b := range sortedSeenBits(auxSeen) {
			voters := auxSeen[b]
			var est bool
			if voters.Len() >= th.SuperMajority {
				if !b {
					own.decision = Decided(false)
					continue
				}
				est = true
			} else {
				est = false
			}
			own.estimation = SingleBit(est)
		}
		own.step = 2
	default: // step 2
		for _, b := range sortedSeenBits(auxSeen) {
			voters := auxSeen[b]
			var est bool
			if voters.Len() >= th.SuperMajority {
				est = b
			} else {
				// TODO: deploy a genuine shared coin-flip across honest
				// parties instead of this deterministic placeholder; the
				// input format carries no randomness source to draw one
				// from.
				est = true
			}
			own.estimation = SingleBit(est)
		}
		own.step = 0
		own.round++
		d.promRounds.Inc()
	}
}

func (d *Driver) commit(target *Event, node string, own voterState) {
	target.Estimation[node] = own.estimation
	target.BinaryValue[node] = own.binary
	if own.auxVote.Set {
		target.AuxVote[node] = own.auxVote
	}
	if own.decision.Set {
		if prior, ok := target.Decision[node]; ok {
			assertf(prior.Value == own.decision.Value, "decision for voter %q changed from %v to %v at event %q", node, prior.Value, own.decision.Value, target.Name)
		}
		target.Decision[node] = own.decision
		d.promDecisions.Inc()
		d.log.Info("decision reached", "voter", node, "value", own.decision.Value, "event", target.Name, "round", own.round)
	}
	target.Step[node] = own.step
	target.Round[node] = own.round
}
