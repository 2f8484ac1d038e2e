// Package config is the single source for every knob that affects a
// solve. All keys have explicit defaults, can be set by flag or by
// TROVE_-prefixed environment variable, and are readable as one
// settings map; nothing that affects determinism hides anywhere else.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/equity"
)

const (
	SearchDepthKey     = "search-depth"
	TimeBudgetMSKey    = "time-budget-ms"
	DiscountKey        = "discount"
	ThreadsKey         = "threads"
	ChainCurveKey      = "chain-curve"
	ChainBaseKey       = "chain-base"
	ChainGrowthKey     = "chain-growth"
	RawWeightKey       = "raw-weight"
	MobilityWeightKey  = "mobility-weight"
	RiskWeightKey      = "risk-weight"
	MaxCascadeDepthKey = "max-cascade-depth"
	RNGSeedKey         = "rng-seed"
	CacheFractionKey   = "cache-fraction"
	DataPathKey        = "data-path"
	ReplayPathKey      = "replay-path"
	NatsURLKey         = "nats-url"
	DebugKey           = "debug"
	CPUProfileKey      = "cpu-profile"
	MemProfileKey      = "mem-profile"
)

type Config struct {
	v    *viper.Viper
	rest []string
}

// defaults maps every key to its built-in default. newViper seeds the
// viper instance from it and Unset restores single keys from it.
var defaults = map[string]any{
	SearchDepthKey:     1,
	TimeBudgetMSKey:    0,
	DiscountKey:        0.5,
	ThreadsKey:         0,
	ChainCurveKey:      "linear",
	ChainBaseKey:       1.0,
	ChainGrowthKey:     1.0,
	RawWeightKey:       1.0,
	MobilityWeightKey:  0.1,
	RiskWeightKey:      0.5,
	MaxCascadeDepthKey: cascade.DefaultMaxDepth,
	RNGSeedKey:         int64(0),
	CacheFractionKey:   0.25,
	DataPathKey:        "./data",
	ReplayPathKey:      "",
	NatsURLKey:         "nats://localhost:4222",
	DebugKey:           false,
	CPUProfileKey:      "",
	MemProfileKey:      "",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("trove")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a config with every key at its default.
func DefaultConfig() Config {
	return Config{v: newViper()}
}

// Load parses command line arguments on top of the defaults.
// Environment variables (TROVE_SEARCH_DEPTH and friends) sit between
// flag defaults and explicitly passed flags.
func (c *Config) Load(args []string) error {
	if c.v == nil {
		c.v = newViper()
	}
	fs := pflag.NewFlagSet("trove", pflag.ContinueOnError)
	fs.Int(SearchDepthKey, 1, "lookahead depth in plies; 1 evaluates immediate cascades only")
	fs.Int(TimeBudgetMSKey, 0, "time budget per solve in milliseconds; 0 is unbounded")
	fs.Float64(DiscountKey, 0.5, "per-ply weight on lookahead value")
	fs.Int(ThreadsKey, 0, "worker goroutines per solve; 0 means one per CPU")
	fs.String(ChainCurveKey, "linear", "chain multiplier curve, linear or geometric")
	fs.Float64(ChainBaseKey, 1.0, "chain curve base multiplier")
	fs.Float64(ChainGrowthKey, 1.0, "chain curve growth per step")
	fs.Float64(RawWeightKey, 1.0, "weight of cascade points in equity")
	fs.Float64(MobilityWeightKey, 0.1, "weight of terminal-board mobility in equity")
	fs.Float64(RiskWeightKey, 0.5, "weight of the deadlock-proximity penalty in equity")
	fs.Int(MaxCascadeDepthKey, cascade.DefaultMaxDepth, "cascade step ceiling per resolve")
	fs.Int64(RNGSeedKey, 0, "bag seed; 0 draws a random seed per session")
	fs.Float64(CacheFractionKey, 0.25, "fraction of system memory for the mobility cache")
	fs.String(DataPathKey, "./data", "directory for fixtures and scripts")
	fs.String(ReplayPathKey, "", "write replay logs here; empty disables replay logging")
	fs.String(NatsURLKey, "nats://localhost:4222", "NATS server URL for bot mode")
	fs.Bool(DebugKey, false, "debug logging")
	fs.String(CPUProfileKey, "", "write a CPU profile here on exit")
	fs.String(MemProfileKey, "", "write a heap profile here on exit")
	// Parsing stops at the first positional argument, so
	// `trove --debug gen 5` leaves `gen 5` for the shell.
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.rest = fs.Args()
	return c.v.BindPFlags(fs)
}

// Args returns the positional arguments left over after flag parsing.
// The shell binary runs them as a single command and exits.
func (c *Config) Args() []string { return c.rest }

func (c *Config) SearchDepth() int { return c.v.GetInt(SearchDepthKey) }

func (c *Config) TimeBudget() time.Duration {
	return time.Duration(c.v.GetInt(TimeBudgetMSKey)) * time.Millisecond
}

func (c *Config) Discount() float64      { return c.v.GetFloat64(DiscountKey) }
func (c *Config) Threads() int           { return c.v.GetInt(ThreadsKey) }
func (c *Config) MaxCascadeDepth() int   { return c.v.GetInt(MaxCascadeDepthKey) }
func (c *Config) RNGSeed() int64         { return c.v.GetInt64(RNGSeedKey) }
func (c *Config) CacheFraction() float64 { return c.v.GetFloat64(CacheFractionKey) }
func (c *Config) DataPath() string       { return c.v.GetString(DataPathKey) }
func (c *Config) ReplayPath() string     { return c.v.GetString(ReplayPathKey) }
func (c *Config) NatsURL() string        { return c.v.GetString(NatsURLKey) }
func (c *Config) Debug() bool            { return c.v.GetBool(DebugKey) }
func (c *Config) CPUProfile() string     { return c.v.GetString(CPUProfileKey) }
func (c *Config) MemProfile() string     { return c.v.GetString(MemProfileKey) }

// AdjustRelativePaths anchors "./"-prefixed paths at the executable's
// directory so the binaries behave the same from any working directory.
func (c *Config) AdjustRelativePaths(exPath string) {
	for _, key := range []string{DataPathKey, ReplayPathKey} {
		if p := c.v.GetString(key); strings.HasPrefix(p, "./") {
			c.v.Set(key, filepath.Join(exPath, p))
		}
	}
}

// Curve builds the configured chain multiplier curve.
func (c *Config) Curve() (cascade.Curve, error) {
	return cascade.FromSpec(
		c.v.GetString(ChainCurveKey),
		c.v.GetFloat64(ChainBaseKey),
		c.v.GetFloat64(ChainGrowthKey))
}

// Weights returns the configured equity weights.
func (c *Config) Weights() equity.Weights {
	return equity.Weights{
		Raw:      c.v.GetFloat64(RawWeightKey),
		Mobility: c.v.GetFloat64(MobilityWeightKey),
		Risk:     c.v.GetFloat64(RiskWeightKey),
	}
}

// Set overrides one key at the highest precedence. The shell's set
// command lands here.
func (c *Config) Set(key string, value any) { c.v.Set(key, value) }

func (c *Config) Get(key string) any { return c.v.Get(key) }

// Unset restores key to its built-in default, shadowing any flag or
// environment override. The shell's unset command lands here.
func (c *Config) Unset(key string) error {
	d, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown configuration key %q", key)
	}
	c.v.Set(key, d)
	return nil
}

// Known reports whether key is a configuration key this build
// understands.
func (c *Config) Known(key string) bool {
	_, ok := defaults[key]
	return ok
}

func (c *Config) AllSettings() map[string]any { return c.v.AllSettings() }

// Write saves the current settings to path; the format follows the
// file extension. The shell's save command writes YAML.
func (c *Config) Write(path string) error { return c.v.WriteConfigAs(path) }
