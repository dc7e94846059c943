package icnet

import (
	"fmt"
	"sync/atomic"
)

// LocalStats accumulates counters on a single task without synchronization.
// Tasks merge into the runtime's GlobalStats exactly once, when they finish.
type LocalStats struct {
	AnniEraEra uint64
	AnniLamLam uint64
	AnniAppApp uint64
	AnniDupDup uint64

	CommEraLam uint64
	CommEraApp uint64
	CommEraDup uint64
	CommAppLam uint64
	CommAppDup uint64
	CommLamDup uint64
	CommDupDup uint64

	Redexes  uint64
	Binds    uint64
	Connects uint64

	AllocCells uint64
	AllocWires uint64
	FreedCells uint64
	FreedWires uint64
}

func (s *LocalStats) countAnni(kind CellKind) {
	switch kind {
	case KindLam:
		s.AnniLamLam++
	case KindApp:
		s.AnniAppApp++
	case KindDup:
		s.AnniDupDup++
	}
}

func (s *LocalStats) countCommEra(kind CellKind) {
	switch kind {
	case KindLam:
		s.CommEraLam++
	case KindApp:
		s.CommEraApp++
	case KindDup:
		s.CommEraDup++
	}
}

func (s *LocalStats) countComm(a, b CellKind) {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == KindLam && b == KindApp:
		s.CommAppLam++
	case a == KindLam && b == KindDup:
		s.CommLamDup++
	case a == KindApp && b == KindDup:
		s.CommAppDup++
	case a == KindDup && b == KindDup:
		s.CommDupDup++
	}
}

// GlobalStats is the evaluation-wide counter set. All fields are atomics;
// tasks fold their LocalStats in with Merge on completion, so reading the
// totals is meaningful only once Eval has returned.
type GlobalStats struct {
	anniEraEra atomic.Uint64
	anniLamLam atomic.Uint64
	anniAppApp atomic.Uint64
	anniDupDup atomic.Uint64

	commEraLam atomic.Uint64
	commEraApp atomic.Uint64
	commEraDup atomic.Uint64
	commAppLam atomic.Uint64
	commAppDup atomic.Uint64
	commLamDup atomic.Uint64
	commDupDup atomic.Uint64

	redexes  atomic.Uint64
	binds    atomic.Uint64
	connects atomic.Uint64

	allocCells atomic.Uint64
	allocWires atomic.Uint64
	freedCells atomic.Uint64
	freedWires atomic.Uint64
}

// Merge folds a finished task's counters into the global totals.
func (g *GlobalStats) Merge(s *LocalStats) {
	g.anniEraEra.Add(s.AnniEraEra)
	g.anniLamLam.Add(s.AnniLamLam)
	g.anniAppApp.Add(s.AnniAppApp)
	g.anniDupDup.Add(s.AnniDupDup)
	g.commEraLam.Add(s.CommEraLam)
	g.commEraApp.Add(s.CommEraApp)
	g.commEraDup.Add(s.CommEraDup)
	g.commAppLam.Add(s.CommAppLam)
	g.commAppDup.Add(s.CommAppDup)
	g.commLamDup.Add(s.CommLamDup)
	g.commDupDup.Add(s.CommDupDup)
	g.redexes.Add(s.Redexes)
	g.binds.Add(s.Binds)
	g.connects.Add(s.Connects)
	g.allocCells.Add(s.AllocCells)
	g.allocWires.Add(s.AllocWires)
	g.freedCells.Add(s.FreedCells)
	g.freedWires.Add(s.FreedWires)
}

// Snapshot copies the current totals into a plain value.
func (g *GlobalStats) Snapshot() LocalStats {
	return LocalStats{
		AnniEraEra: g.anniEraEra.Load(),
		AnniLamLam: g.anniLamLam.Load(),
		AnniAppApp: g.anniAppApp.Load(),
		AnniDupDup: g.anniDupDup.Load(),
		CommEraLam: g.commEraLam.Load(),
		CommEraApp: g.commEraApp.Load(),
		CommEraDup: g.commEraDup.Load(),
		CommAppLam: g.commAppLam.Load(),
		CommAppDup: g.commAppDup.Load(),
		CommLamDup: g.commLamDup.Load(),
		CommDupDup: g.commDupDup.Load(),
		Redexes:    g.redexes.Load(),
		Binds:      g.binds.Load(),
		Connects:   g.connects.Load(),
		AllocCells: g.allocCells.Load(),
		AllocWires: g.allocWires.Load(),
		FreedCells: g.freedCells.Load(),
		FreedWires: g.freedWires.Load(),
	}
}

// Annihilations is the total across the four same-kind rules.
func (g *GlobalStats) Annihilations() uint64 {
	return g.anniEraEra.Load() + g.anniLamLam.Load() + g.anniAppApp.Load() + g.anniDupDup.Load()
}

// Commutations is the total across the seven cross-kind rules.
func (g *GlobalStats) Commutations() uint64 {
	return g.commEraLam.Load() + g.commEraApp.Load() + g.commEraDup.Load() +
		g.commAppLam.Load() + g.commAppDup.Load() + g.commLamDup.Load() + g.commDupDup.Load()
}

// Interactions is the number of rewrite rules applied.
func (g *GlobalStats) Interactions() uint64 {
	return g.Annihilations() + g.Commutations()
}

func (g *GlobalStats) Binds() uint64    { return g.binds.Load() }
func (g *GlobalStats) Connects() uint64 { return g.connects.Load() }
func (g *GlobalStats) Redexes() uint64  { return g.redexes.Load() }

// Allocs is the number of slots allocated during evaluation.
func (g *GlobalStats) Allocs() uint64 {
	return g.allocCells.Load() + g.allocWires.Load()
}

// Frees is the number of slots released during evaluation.
func (g *GlobalStats) Frees() uint64 {
	return g.freedCells.Load() + g.freedWires.Load()
}

func (g *GlobalStats) String() string {
	s := g.Snapshot()
	return fmt.Sprintf(
		"SUMMARY | annis: %d, comms: %d, binds: %d, connects: %d, allocs: %d, frees: %d\n"+
			"ANNIS   | ε-ε: %d, λ-λ: %d, @-@: %d, δ-δ: %d\n"+
			"COMMS   | ε-λ: %d, ε-@: %d, ε-δ: %d, @-λ: %d, @-δ: %d, λ-δ: %d, δ-δ: %d",
		g.Annihilations(), g.Commutations(), s.Binds, s.Connects, g.Allocs(), g.Frees(),
		s.AnniEraEra, s.AnniLamLam, s.AnniAppApp, s.AnniDupDup,
		s.CommEraLam, s.CommEraApp, s.CommEraDup, s.CommAppLam, s.CommAppDup, s.CommLamDup, s.CommDupDup,
	)
}
