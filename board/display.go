package board

import (
	"fmt"
	"strings"
)

// ToDisplayText returns a human-readable picture of the board, for the
// shell and debug logs.
func (s *State) ToDisplayText() string {
	var str strings.Builder
	str.WriteString("   ")
	for c := 0; c < s.cols; c++ {
		fmt.Fprintf(&str, " %d", c%10)
	}
	str.WriteString("\n   ")
	str.WriteString(strings.Repeat("-", 2*s.cols+1))
	str.WriteString("\n")
	for r := 0; r < s.rows; r++ {
		fmt.Fprintf(&str, "%2d|", r)
		for c := 0; c < s.cols; c++ {
			fmt.Fprintf(&str, "%c ", s.GemAt(r, c).Rune())
		}
		str.WriteString("|\n")
	}
	str.WriteString("   ")
	str.WriteString(strings.Repeat("-", 2*s.cols+1))
	fmt.Fprintf(&str, "\ngen %d\n", s.gen)
	return str.String()
}

func (s *State) String() string {
	return fmt.Sprintf("<board %dx%d gen %d fp %x>", s.rows, s.cols, s.gen, s.Fingerprint())
}
