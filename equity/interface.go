// Package equity turns resolved cascades into comparable move values.
// Each calculator prices one aspect of a candidate move's outcome;
// the combined calculator sums an ordered list of them and can explain
// the sum term by term.
package equity

import (
	"github.com/trovebot/trove/cascade"
)

// Calculator is a calculator of equity. Implementations are shared by
// concurrent search workers and must be safe for parallel calls.
type Calculator interface {
	// Equity values the resolved cascade of one candidate move.
	Equity(res *cascade.Result) float64
	// Type is the stable label this calculator's contribution carries
	// in a rationale.
	Type() string
}
