// Package gem defines the symbolic gem kinds that occupy board cells.
// The solver core never sees pixels; a vision layer upstream is
// responsible for turning whatever is on screen into these values.
package gem

import "fmt"

// A Gem is a single symbolic cell occupant.
type Gem uint8

const (
	// Empty is a cleared cell. It only exists mid-cascade, between the
	// removal of a match and the refill that follows.
	Empty Gem = iota
	Ruby
	Sapphire
	Emerald
	Topaz
	Amethyst
	Citrine
	// Unknown is a cell the vision layer could not classify confidently.
	// It is a valid occupant but never participates in matches.
	Unknown
)

// NumKinds is the number of matchable gem kinds.
const NumKinds = 6

var gemRunes = map[Gem]rune{
	Empty:    '.',
	Ruby:     'R',
	Sapphire: 'S',
	Emerald:  'E',
	Topaz:    'T',
	Amethyst: 'A',
	Citrine:  'C',
	Unknown:  '?',
}

var runeGems = map[rune]Gem{}

func init() {
	for g, r := range gemRunes {
		runeGems[r] = g
	}
}

// Kinds returns the matchable gem kinds in enum order. The returned
// slice is freshly allocated and safe to modify.
func Kinds() []Gem {
	return []Gem{Ruby, Sapphire, Emerald, Topaz, Amethyst, Citrine}
}

// Matchable is true for the six real gem kinds; Empty and Unknown
// never form matches.
func (g Gem) Matchable() bool {
	return g >= Ruby && g <= Citrine
}

// Valid is true for any defined Gem value, including Empty and Unknown.
func (g Gem) Valid() bool {
	return g <= Unknown
}

// Rune returns the single-character code used by board notation and
// display text.
func (g Gem) Rune() rune {
	if r, ok := gemRunes[g]; ok {
		return r
	}
	return '!'
}

func (g Gem) String() string {
	switch g {
	case Empty:
		return "empty"
	case Ruby:
		return "ruby"
	case Sapphire:
		return "sapphire"
	case Emerald:
		return "emerald"
	case Topaz:
		return "topaz"
	case Amethyst:
		return "amethyst"
	case Citrine:
		return "citrine"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("gem(%d)", uint8(g))
}

// FromRune converts a notation rune back into a Gem.
func FromRune(r rune) (Gem, error) {
	if g, ok := runeGems[r]; ok {
		return g, nil
	}
	return Empty, fmt.Errorf("unrecognized gem code '%c'", r)
}
