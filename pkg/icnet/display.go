package icnet

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// DisplayTerm renders a term reference, expanding cells recursively. Wires
// are followed to their bound value; a wire that does not settle on one
// renders as x<index>. An unboxed eraser renders as ε.
func (n *Net) DisplayTerm(t TermPtr) string {
	var b strings.Builder
	n.writeTerm(&b, t, 0)
	return b.String()
}

const displayDepthLimit = 64

func (n *Net) writeTerm(b *strings.Builder, t TermPtr, depth int) {
	if depth > displayDepthLimit {
		b.WriteString("…")
		return
	}
	switch {
	case t.IsEra():
		b.WriteString("ε")
	case t.IsWire():
		resolved, ok := n.Resolve(t)
		if !ok || resolved.IsWire() {
			fmt.Fprintf(b, "x%d", uint32(t.Ptr()))
			return
		}
		n.writeTerm(b, resolved, depth+1)
	default:
		if n.store.Kind(t.Ptr()) != SlotCell {
			fmt.Fprintf(b, "c%d<freed>", uint32(t.Ptr()))
			return
		}
		c := n.store.Cell(t.Ptr())
		open, shut := "(", ")"
		if c.Kind == KindDup {
			open, shut = "[", "]"
		}
		b.WriteString(open)
		n.writeTerm(b, c.P0, depth+1)
		b.WriteString(" ")
		n.writeTerm(b, c.P1, depth+1)
		b.WriteString(shut)
	}
}

// DisplayHeads renders every head wire's current value in registration order.
func (n *Net) DisplayHeads() []string {
	out := make([]string, len(n.heads))
	for i, h := range n.heads {
		out[i] = n.DisplayTerm(h)
	}
	return out
}

// String dumps the net: heads, pending equations, and live slots in index
// order. Debug output only.
func (n *Net) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "net{heads: %d, eqns: %d, slots: %d}\n", len(n.heads), len(n.body), n.store.Len())
	for i, h := range n.heads {
		fmt.Fprintf(&b, "  head %d: %s\n", i, n.DisplayTerm(h))
	}
	for _, eqn := range n.body {
		fmt.Fprintf(&b, "  %s ~ %s\n", n.DisplayTerm(eqn.Left), n.DisplayTerm(eqn.Right))
	}

	var live []Ptr
	n.store.Iter(func(p Ptr, _ SlotKind) bool {
		live = append(live, p)
		return true
	})
	slices.Sort(live)
	for _, p := range live {
		switch n.store.Kind(p) {
		case SlotCell:
			c := n.store.Cell(p)
			fmt.Fprintf(&b, "  %v: %s(%s %s)\n", p, c.Kind, c.P0, c.P1)
		case SlotWire:
			if v, ok := n.store.Wire(p).Read(); ok {
				fmt.Fprintf(&b, "  %v: wire -> %s\n", p, v)
			} else {
				fmt.Fprintf(&b, "  %v: wire unset\n", p)
			}
		}
	}
	return b.String()
}
