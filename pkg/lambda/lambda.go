// Package lambda builds common λ-calculus encodings against the net
// builder: the identity, self-application, Church booleans, and the small
// multiplexors used to fan a single root out over several wires.
package lambda

import "github.com/vic/combnet/pkg/icnet"

// Identity builds λx.x and returns a use of a wire bound to it.
func Identity(b icnet.Builder) icnet.TermPtr {
	x0, x1 := b.Var()
	lam := b.Lam(x0, x1)
	r0, r1 := b.Var()
	b.Eqn(r0, lam)
	return r1
}

// SelfApply builds λx.x x. The binder is split by a duplicator carrying the
// given label.
func SelfApply(b icnet.Builder, label uint32) icnet.TermPtr {
	xa0, xa1 := b.Var()
	xb0, xb1 := b.Var()
	r0, r1 := b.Var()

	dup := b.Dup(xa0, xb0, label)
	lam := b.Lam(dup, r0)
	b.Eqn(xa1, b.App(r1, xb1))

	res0, res1 := b.Var()
	b.Eqn(res0, lam)
	return res1
}

// True builds λt.λf.t.
func True(b icnet.Builder) icnet.TermPtr {
	t0, t1 := b.Var()
	inner := b.Lam(b.Era(), t1)
	return b.Lam(t0, inner)
}

// False builds λt.λf.f.
func False(b icnet.Builder) icnet.TermPtr {
	f0, f1 := b.Var()
	inner := b.Lam(f0, f1)
	return b.Lam(b.Era(), inner)
}

// Not builds λb. b false true applied to the given boolean, returning a use
// of the result wire.
func Not(b icnet.Builder, boolean icnet.TermPtr) icnet.TermPtr {
	mid0, mid1 := b.Var()
	out0, out1 := b.Var()
	b.Eqn(boolean, b.App(mid0, False(b)))
	b.Eqn(mid1, b.App(out0, True(b)))
	return out1
}

// M0 is the nullary multiplexor: an eraser.
func M0(b icnet.Builder) icnet.TermPtr {
	return b.Era()
}

// M1 is the unary multiplexor: a bare wire, root on one end, the single
// output on the other.
func M1(b icnet.Builder) (icnet.TermPtr, icnet.TermPtr) {
	return b.Var()
}

// M2 fans a root out over two wires through one constructor.
func M2(b icnet.Builder) (icnet.TermPtr, [2]icnet.TermPtr) {
	a0, a1 := b.Var()
	c0, c1 := b.Var()
	ctr := b.Lam(a0, c0)
	root0, root1 := b.Var()
	b.Eqn(root1, ctr)
	return root0, [2]icnet.TermPtr{a1, c1}
}

// M3 fans a root out over three wires through two nested constructors.
func M3(b icnet.Builder) (icnet.TermPtr, [3]icnet.TermPtr) {
	a0, a1 := b.Var()
	c0, c1 := b.Var()
	d0, d1 := b.Var()
	inner := b.Lam(c0, d0)
	outer := b.Lam(a0, inner)
	root0, root1 := b.Var()
	b.Eqn(root1, outer)
	return root0, [3]icnet.TermPtr{a1, c1, d1}
}
