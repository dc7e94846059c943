package icnet

import (
	goruntime "runtime"
	"time"

	"github.com/rs/zerolog"
)

// Runtime evaluates nets to normal form. One Runtime may evaluate several
// nets in sequence; its statistics accumulate across runs.
type Runtime struct {
	workers int
	log     zerolog.Logger
	stats   GlobalStats
	trace   *Trace
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithWorkers sets the worker count. Values below one are clamped to one.
func WithWorkers(n int) Option {
	return func(rt *Runtime) {
		if n < 1 {
			n = 1
		}
		rt.workers = n
	}
}

// WithLogger attaches a logger. The default is a disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(rt *Runtime) { rt.log = log }
}

// WithTrace records the first capacity rule firings for inspection.
func WithTrace(capacity int) Option {
	return func(rt *Runtime) { rt.trace = NewTrace(capacity) }
}

// NewRuntime creates a runtime with one worker per CPU.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		workers: goruntime.NumCPU(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Stats returns the runtime's global counters.
func (rt *Runtime) Stats() *GlobalStats {
	return &rt.stats
}

// Trace returns the rule trace, or nil when tracing is off.
func (rt *Runtime) Trace() *Trace {
	return rt.trace
}

// Eval drains the net's equations and reduces until no task remains. It
// blocks the caller for the whole reduction. Head wires are never released
// by the walkers, so they stay readable afterwards.
func (rt *Runtime) Eval(net *Net) {
	start := time.Now()

	heads := make(map[Ptr]struct{}, len(net.heads))
	for _, h := range net.heads {
		if h.IsWire() {
			heads[h.Ptr()] = struct{}{}
		}
	}

	sched := newScheduler(rt.workers)
	ev := &evaluator{
		rt:    rt,
		store: net.store,
		heads: heads,
		sched: sched,
		log:   rt.log,
	}
	sched.start(ev)
	for _, eqn := range net.drain() {
		sched.submit(&task{eqn: eqn})
	}
	sched.wait()

	rt.log.Info().
		Dur("elapsed", time.Since(start)).
		Uint64("interactions", rt.stats.Interactions()).
		Msg("net evaluated")
}

// task is one unit of scheduled work: a single equation plus the local
// counters and the batch of slots the task owes back to the store.
type task struct {
	eqn   Equation
	stats LocalStats
	free  FreeList
}

func (t *task) run(ev *evaluator) {
	ev.evalEquation(t, t.eqn)
	ev.rt.stats.Merge(&t.stats)
	t.free.Release(ev.store)
}

type evaluator struct {
	rt    *Runtime
	store *Store
	heads map[Ptr]struct{}
	sched *scheduler
	log   zerolog.Logger
}

// spawn hands an equation to the pool, splitting off half of the parent's
// free batch. When the pool is saturated the child runs here instead.
func (ev *evaluator) spawn(t *task, eqn Equation) {
	child := &task{eqn: eqn, free: t.free.Split()}
	if !ev.sched.trySubmit(child) {
		child.run(ev)
	}
}

func (ev *evaluator) evalEquation(t *task, eqn Equation) {
	l, r := eqn.Left, eqn.Right
	switch Classify(l, r) {
	case EqnConnect:
		ev.evalConnect(t, l.Ptr(), r.Ptr())
	case EqnBind:
		if l.IsWire() {
			ev.evalBind(t, l.Ptr(), r)
		} else {
			ev.evalBind(t, r.Ptr(), l)
		}
	default:
		ev.evalRedex(t, l, r)
	}
}

func (ev *evaluator) record(rule RuleKind, l, r TermPtr) {
	if ev.rt.trace != nil {
		ev.rt.trace.record(rule, l, r)
	}
}

// evalRedex applies one of the eleven rewrite rules to two agents.
func (ev *evaluator) evalRedex(t *task, l, r TermPtr) {
	t.stats.Redexes++
	ev.log.Debug().Stringer("left", l).Stringer("right", r).Msg("redex")

	switch {
	case l.IsEra() && r.IsEra():
		t.stats.AnniEraEra++
		ev.record(RuleAnniEraEra, l, r)

	case l.IsEra() || r.IsEra():
		cell := l
		if cell.IsEra() {
			cell = r
		}
		ev.commuteEra(t, cell.Ptr())

	default:
		lp, rp := l.Ptr(), r.Ptr()
		lc, rc := ev.store.Cell(lp), ev.store.Cell(rp)
		if lc.Kind == rc.Kind && (lc.Kind != KindDup || lc.Label == rc.Label) {
			ev.annihilate(t, lp, rp, lc, rc)
		} else {
			ev.commute(t, lp, rp, lc, rc)
		}
	}
}

// commuteEra propagates erasure through an agent: both ports are erased and
// the agent's slot is consumed.
func (ev *evaluator) commuteEra(t *task, p Ptr) {
	c := ev.store.Cell(p)
	t.stats.countCommEra(c.Kind)
	switch c.Kind {
	case KindLam:
		ev.record(RuleCommEraLam, Era(), CellRef(p))
	case KindApp:
		ev.record(RuleCommEraApp, Era(), CellRef(p))
	case KindDup:
		ev.record(RuleCommEraDup, Era(), CellRef(p))
	}
	ev.freeCell(t, p)

	ev.spawn(t, Equation{Left: Era(), Right: c.P1})
	ev.evalEquation(t, Equation{Left: Era(), Right: c.P0})
}

// annihilate connects the two agents' ports pairwise and consumes both slots.
func (ev *evaluator) annihilate(t *task, lp, rp Ptr, lc, rc Cell) {
	t.stats.countAnni(lc.Kind)
	switch lc.Kind {
	case KindLam:
		ev.record(RuleAnniLamLam, CellRef(lp), CellRef(rp))
	case KindApp:
		ev.record(RuleAnniAppApp, CellRef(lp), CellRef(rp))
	case KindDup:
		ev.record(RuleAnniDupDup, CellRef(lp), CellRef(rp))
	}
	ev.freeCell(t, lp)
	ev.freeCell(t, rp)

	ev.spawn(t, Equation{Left: lc.P1, Right: rc.P1})
	ev.evalEquation(t, Equation{Left: lc.P0, Right: rc.P0})
}

// commute performs the 4-way duplication between two agents of different
// kinds (or duplicators of different labels). Four fresh wires cross-connect
// two copies of each agent; both consumed slots are reused in place for the
// first copy of each side.
func (ev *evaluator) commute(t *task, lp, rp Ptr, lc, rc Cell) {
	t.stats.countComm(lc.Kind, rc.Kind)
	ev.record(commRule(lc.Kind, rc.Kind), CellRef(lp), CellRef(rp))

	x1 := WireRef(ev.allocWire(t))
	x2 := WireRef(ev.allocWire(t))
	x3 := WireRef(ev.allocWire(t))
	x4 := WireRef(ev.allocWire(t))

	// Copies of the left agent face the right agent's ports and vice versa.
	// The wiring pairs every left copy with every right copy exactly once.
	ev.store.SetCell(lp, Cell{Kind: lc.Kind, P0: x1, P1: x3, Label: lc.Label})
	a2 := ev.allocCell(t, Cell{Kind: lc.Kind, P0: x4, P1: x2, Label: lc.Label})
	ev.store.SetCell(rp, Cell{Kind: rc.Kind, P0: x4, P1: x1, Label: rc.Label})
	b2 := ev.allocCell(t, Cell{Kind: rc.Kind, P0: x2, P1: x3, Label: rc.Label})

	ev.spawn(t, Equation{Left: lc.P1, Right: CellRef(b2)})
	ev.spawn(t, Equation{Left: rc.P0, Right: CellRef(lp)})
	ev.spawn(t, Equation{Left: rc.P1, Right: CellRef(a2)})
	ev.evalEquation(t, Equation{Left: lc.P0, Right: CellRef(rp)})
}

func commRule(a, b CellKind) RuleKind {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == KindLam && b == KindApp:
		return RuleCommAppLam
	case a == KindLam && b == KindDup:
		return RuleCommLamDup
	case a == KindApp && b == KindDup:
		return RuleCommAppDup
	default:
		return RuleCommDupDup
	}
}

// evalBind assigns a final value to a wire chain.
func (ev *evaluator) evalBind(t *task, wp Ptr, v TermPtr) {
	t.stats.Binds++
	ev.bindWalk(t, wp, v, NilPtr)
}

// bindWalk swaps v into the wire at wp and resolves whatever was there
// before: nothing (done), a link (walk on, releasing the wire walked past),
// or an earlier binding (a late redex between the two values). The walker
// remembers its immediate predecessor so a mutual link pair reads as a
// settled assignment rather than a cycle.
func (ev *evaluator) bindWalk(t *task, wp Ptr, v TermPtr, pred Ptr) {
	for {
		prior, ok := ev.store.Wire(wp).Swap(v)
		if !ok {
			ev.log.Debug().Stringer("wire", WireRef(wp)).Stringer("value", v).Msg("bind set")
			return
		}
		if prior.IsWire() {
			next := prior.Ptr()
			if next == pred {
				return
			}
			ev.freeWire(t, wp)
			pred, wp = wp, next
			continue
		}
		// The wire already held a final value: the two writers form a redex.
		ev.freeWire(t, wp)
		ev.evalRedex(t, v, prior)
		return
	}
}

// evalConnect links two wire chains together.
func (ev *evaluator) evalConnect(t *task, left, right Ptr) {
	t.stats.Connects++
	if left == right {
		// Both uses of the wire are this connect: a closed loop.
		ev.freeWire(t, left)
		return
	}
	ev.linkWalk(t, right, left, true, NilPtr)
}

// linkWalk stores a forwarding pointer to target into the chain starting at
// wp. A terminating unset swap on the first pass installs the mirror link on
// the target, so the value becomes reachable from either name. A link that
// already points at the target (or back at the walker's predecessor) is a
// settled chain; when the pair is mutually linked it forms a closed loop
// with no remaining uses and both slots are released. A bound value turns
// the connect into a bind toward the target.
func (ev *evaluator) linkWalk(t *task, wp, target Ptr, mirror bool, pred Ptr) {
	for {
		prior, ok := ev.store.Wire(wp).Swap(WireRef(target))
		if !ok {
			if mirror {
				mirror = false
				pred = wp
				wp, target = target, wp
				continue
			}
			return
		}
		if prior.IsWire() {
			next := prior.Ptr()
			if next == target {
				// Already joined. A mutual pair is a closed loop with no
				// remaining uses; release both ends.
				if back, bok := ev.store.Wire(next).Read(); bok && back.IsWire() && back.Ptr() == wp {
					ev.freeWire(t, wp)
					if next != wp {
						ev.freeWire(t, next)
					}
				}
				return
			}
			if next == pred {
				return
			}
			ev.freeWire(t, wp)
			pred, wp = wp, next
			continue
		}
		// Collapsed into a bind: deliver the displaced value to the target.
		ev.freeWire(t, wp)
		ev.bindWalk(t, target, prior, wp)
		return
	}
}

func (ev *evaluator) allocWire(t *task) Ptr {
	t.stats.AllocWires++
	return ev.store.AllocWire()
}

func (ev *evaluator) allocCell(t *task, c Cell) Ptr {
	t.stats.AllocCells++
	return ev.store.AllocCell(c)
}

// freeWire releases a wire walked past. Head wires are observable outputs
// and stay allocated for the whole evaluation.
func (ev *evaluator) freeWire(t *task, wp Ptr) {
	if _, isHead := ev.heads[wp]; isHead {
		return
	}
	t.stats.FreedWires++
	t.free.Push(ev.store, wp)
}

func (ev *evaluator) freeCell(t *task, p Ptr) {
	t.stats.FreedCells++
	t.free.Push(ev.store, p)
}
