package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/equity"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.Equal(c.SearchDepth(), 1)
	is.Equal(c.TimeBudget(), time.Duration(0))
	is.Equal(c.Threads(), 0)
	is.Equal(c.MaxCascadeDepth(), cascade.DefaultMaxDepth)
	is.Equal(c.Weights(), equity.Weights{Raw: 1.0, Mobility: 0.1, Risk: 0.5})

	curve, err := c.Curve()
	is.NoErr(err)
	is.Equal(curve, cascade.DefaultCurve())
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	err := c.Load([]string{
		"--search-depth", "3",
		"--time-budget-ms", "250",
		"--chain-curve", "geometric",
		"--chain-growth", "2",
	})
	is.NoErr(err)
	is.Equal(c.SearchDepth(), 3)
	is.Equal(c.TimeBudget(), 250*time.Millisecond)

	curve, err := c.Curve()
	is.NoErr(err)
	want, err := cascade.Geometric(1, 2)
	is.NoErr(err)
	is.Equal(curve, want)
}

func TestArgsStopAtFirstPositional(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	err := c.Load([]string{"--debug", "autoplay", "-sessions", "100"})
	is.NoErr(err)
	is.True(c.Debug())
	is.Equal(c.Args(), []string{"autoplay", "-sessions", "100"})
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	c.AdjustRelativePaths("/opt/trove")
	is.Equal(c.DataPath(), "/opt/trove/data")
	is.Equal(c.ReplayPath(), "") // empty stays empty
}

func TestEnvOverride(t *testing.T) {
	is := is.New(t)
	t.Setenv("TROVE_RISK_WEIGHT", "0.9")
	c := DefaultConfig()
	is.Equal(c.Weights().Risk, 0.9)
}

func TestSetWins(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	err := c.Load([]string{"--search-depth", "3"})
	is.NoErr(err)
	c.Set(SearchDepthKey, 5)
	is.Equal(c.SearchDepth(), 5)
}

func TestKnown(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.True(c.Known(SearchDepthKey))
	is.True(c.Known(NatsURLKey))
	is.True(!c.Known("bogus-key"))
}

func TestUnsetRestoresDefault(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	c.Set(SearchDepthKey, 5)
	is.Equal(c.SearchDepth(), 5)
	is.NoErr(c.Unset(SearchDepthKey))
	is.Equal(c.SearchDepth(), 1)

	is.True(c.Unset("bogus-key") != nil)
}

func TestWriteRoundTrips(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	c.Set(SearchDepthKey, 4)
	path := filepath.Join(t.TempDir(), "trove.yml")
	is.NoErr(c.Write(path))

	dat, err := os.ReadFile(path)
	is.NoErr(err)
	is.True(strings.Contains(string(dat), "search-depth: 4"))
}

func TestBadCurveSurfaces(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	c.Set(ChainCurveKey, "cubic")
	_, err := c.Curve()
	is.True(errors.Is(err, cascade.ErrBadCurve))
}
