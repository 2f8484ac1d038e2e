package equity

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/trovebot/trove/cascade"
)

// A Term is one named contribution to a combined equity score.
type Term struct {
	Name  string
	Value float64
}

// A Rationale is the ordered per-term breakdown of a score. Terms
// appear in calculator order and their values sum to the score they
// explain exactly, not merely within epsilon.
type Rationale []Term

// Total sums the contributions in term order.
func (r Rationale) Total() float64 {
	return lo.SumBy(r, func(t Term) float64 { return t.Value })
}

func (r Rationale) String() string {
	var sb strings.Builder
	for i, t := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %.3f", t.Name, t.Value)
	}
	return sb.String()
}

// Combined sums an ordered calculator list. It is itself a Calculator,
// and additionally explains its score term by term.
type Combined struct {
	calculators []Calculator
}

func NewCombined(calculators ...Calculator) *Combined {
	return &Combined{calculators: calculators}
}

// Calculators returns the underlying ordered list.
func (cc *Combined) Calculators() []Calculator { return cc.calculators }

func (cc *Combined) Equity(res *cascade.Result) float64 {
	return lo.SumBy(cc.calculators, func(c Calculator) float64 {
		return c.Equity(res)
	})
}

// Explain values res once per calculator and returns the score with
// its rationale. The score accumulates from the same values the
// rationale reports, in the same order, so the two agree bit for bit.
func (cc *Combined) Explain(res *cascade.Result) (float64, Rationale) {
	rationale := make(Rationale, 0, len(cc.calculators))
	total := 0.0
	for _, c := range cc.calculators {
		v := c.Equity(res)
		rationale = append(rationale, Term{Name: c.Type(), Value: v})
		total += v
	}
	return total, rationale
}

func (cc *Combined) Type() string { return "combined" }
