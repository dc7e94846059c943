package book

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vic/combnet/pkg/icnet"
)

func TestParseTerm(t *testing.T) {
	n := icnet.New(64)
	p := NewParser("([* *] a)", n)
	term, err := p.parseTerm()
	require.NoError(t, err)
	require.True(t, term.IsCell())

	c := n.Store().Cell(term.Ptr())
	require.Equal(t, icnet.KindLam, c.Kind)
	require.True(t, c.P0.IsCell())
	require.Equal(t, icnet.KindDup, n.Store().Cell(c.P0.Ptr()).Kind)
	require.True(t, c.P1.IsWire())
}

func TestParseVariableUsesOneWire(t *testing.T) {
	n := icnet.New(64)
	p := NewParser("(a a)", n)
	term, err := p.parseTerm()
	require.NoError(t, err)

	c := n.Store().Cell(term.Ptr())
	require.Equal(t, c.P0.Ptr(), c.P1.Ptr(), "both uses of a name the same wire")
}

func TestParseVariableThirdUse(t *testing.T) {
	n := icnet.New(64)
	err := Parse("def f(r) = (a a) ~ a", n)
	require.Error(t, err)
	require.Contains(t, err.Error(), "more than twice")
}

func TestParseDef(t *testing.T) {
	n := icnet.New(64)
	p := NewParser("def main(r) = * ~ * & r ~ *", n)
	require.NoError(t, p.ParseBook())
	require.Equal(t, []string{"main"}, p.Defs())
	require.Len(t, n.Heads(), 1)
	require.Len(t, n.Body(), 2)
}

func TestParseBookMultipleDefs(t *testing.T) {
	n := icnet.New(64)
	src := `
# two trivial definitions
def a(r) = * ~ * ;
def b(s, q) = s ~ * ;
`
	require.NoError(t, Parse(src, n))
	require.Len(t, n.Heads(), 3)
	require.Len(t, n.Body(), 2)
}

func TestParseHeadOnlyDef(t *testing.T) {
	n := icnet.New(64)
	require.NoError(t, Parse("def c(r, *)", n))
	require.Len(t, n.Heads(), 2)
	require.Empty(t, n.Body())
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing def keyword", "main(r) = * ~ *"},
		{"empty heads", "def a() = * ~ *"},
		{"dangling tilde", "def a(r) = * ~"},
		{"unbalanced paren", "def a(r) = (* * ~ *"},
		{"garbage after book", "def a(r) = * ~ * ; what"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := icnet.New(64)
			err := Parse(tc.src, n)
			require.Error(t, err)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			require.Positive(t, perr.Line)
		})
	}
}

func TestFreshDupLabels(t *testing.T) {
	n := icnet.New(64)
	require.NoError(t, Parse("def a(r) = [* *] ~ [* *]", n))
	var labels []uint32
	n.Store().Iter(func(p icnet.Ptr, k icnet.SlotKind) bool {
		if k == icnet.SlotCell {
			if c := n.Store().Cell(p); c.Kind == icnet.KindDup {
				labels = append(labels, c.Label)
			}
		}
		return true
	})
	require.Len(t, labels, 2)
	require.NotEqual(t, labels[0], labels[1], "each bracket gets its own label")
}

func TestParseAndEvaluate(t *testing.T) {
	n := icnet.New(256)
	require.NoError(t, Parse("def main(r, s) = * ~ [r s]", n))

	rt := icnet.NewRuntime(icnet.WithWorkers(1))
	rt.Eval(n)

	for i := range n.Heads() {
		v, ok := n.ReadHead(i)
		require.True(t, ok)
		require.True(t, v.IsEra())
	}
	require.EqualValues(t, 1, rt.Stats().Commutations())
}
