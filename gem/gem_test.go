package gem

import (
	"testing"

	"github.com/matryer/is"
)

func TestMatchable(t *testing.T) {
	is := is.New(t)
	for _, g := range Kinds() {
		is.True(g.Matchable())
	}
	is.True(!Empty.Matchable())
	is.True(!Unknown.Matchable())
}

func TestRuneRoundTrip(t *testing.T) {
	is := is.New(t)
	for g := Empty; g <= Unknown; g++ {
		back, err := FromRune(g.Rune())
		is.NoErr(err)
		is.Equal(back, g)
	}
}

func TestFromRuneUnrecognized(t *testing.T) {
	is := is.New(t)
	_, err := FromRune('x')
	is.True(err != nil)
}

func TestKindsCount(t *testing.T) {
	is := is.New(t)
	is.Equal(len(Kinds()), NumKinds)
}
