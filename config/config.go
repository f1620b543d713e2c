// Package config loads a simulation run's configuration from YAML, the
// same viper+yaml.v3 two-pass pattern the teacher uses for training
// configuration (reinforcement.learning.FromYaml): viper reads the file and
// unmarshals the outer envelope, then the envelope's polymorphic "def"
// payload is re-marshaled to YAML and decoded into the concrete inner
// config, since mapstructure alone can't target a type chosen by a
// sibling field's value.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"abm/abmerr"
)

// OuterConfig is the polymorphic envelope a run config's "space" key opens
// with: Kind names the space variant the run uses ("grid", "continuous",
// "graph", "osm", "nospace"), and Def carries that variant's own
// parameters as a nested mapping whose shape Kind implies — mapstructure
// alone can't target SpaceConfig's fields directly since different Kinds
// populate different subsets of them, so Def is re-marshaled to YAML and
// decoded into SpaceConfig on a second pass, exactly as the teacher's
// FromYaml does for TrainingConfig.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// RunConfig generalizes the teacher's TrainingConfig to a simulation run:
// HyperParams carries free-form numeric knobs (a wealth-exchange rate, an
// interaction radius, a mutation probability), Space carries the chosen
// space's own constructor parameters, and RunDeadline bounds how long the
// ensemble/model may run before being cancelled.
type RunConfig struct {
	// HyperParams is a key-val pair of param names and their value, exactly
	// as the teacher's TrainingConfig.HyperParams.
	HyperParams []HyperParameter `mapstructure:"hyperParams" yaml:"hyperParams"`
	// Space selects and parameterizes the model's space via the OuterConfig
	// pattern (kind + def).
	Space OuterConfig `mapstructure:"space" yaml:"space"`
	// RunDeadline bounds the run, mirroring TrainingDeadline. Only its
	// "duration" entry (a time.ParseDuration string) is read; any other key,
	// such as a fixed deadline, is ignored.
	RunDeadline map[string]string `mapstructure:"runDeadline" yaml:"runDeadline"`
	// NumAgents seeds the initial agent population size.
	NumAgents int `mapstructure:"numAgents" yaml:"numAgents"`
	// Seed is the model's base RNG seed.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
	// Steps bounds how many times step! runs before the caller stops.
	Steps int `mapstructure:"steps" yaml:"steps"`
}

// SpaceConfig is the decoded shape of RunConfig.Space.Def: Dims/Periodic
// serve the grid and graph variants, Extent/Spacing serve continuous
// space, and MapFile serves OSM space. A given run config populates only
// the subset its Space.Kind needs; the rest are simply absent from the
// YAML, not an error.
type SpaceConfig struct {
	Dims     []int     `mapstructure:"dims" yaml:"dims"`
	Periodic []bool    `mapstructure:"periodic" yaml:"periodic"`
	Extent   []float64 `mapstructure:"extent" yaml:"extent"`
	Spacing  float64   `mapstructure:"spacing" yaml:"spacing"`
	MapFile  string    `mapstructure:"mapFile" yaml:"mapFile"`
}

// DecodeSpace re-marshals cfg.Space.Def (whatever shape Space.Kind
// implies) and decodes it into a SpaceConfig, the second pass of the
// OuterConfig/Def polymorphic-config pattern.
func (cfg *RunConfig) DecodeSpace() (SpaceConfig, error) {
	spec, err := yaml.Marshal(cfg.Space.Def)
	if err != nil {
		return SpaceConfig{}, fmt.Errorf("%w: re-marshaling space config: %v", abmerr.ErrConfig, err)
	}
	var sc SpaceConfig
	if err := yaml.Unmarshal(spec, &sc); err != nil {
		return SpaceConfig{}, fmt.Errorf("%w: decoding space config: %v", abmerr.ErrConfig, err)
	}
	return sc, nil
}

// HyperParameter is a single named numeric run parameter.
type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// GetHyperParamOrDefault returns the value of param, or defaultVal if
// param was never set.
func (cfg *RunConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// WithRunDeadline returns a context extended by the configured run
// deadline, if one is specified; otherwise a plain cancellable context.
func (cfg *RunConfig) WithRunDeadline(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.RunDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: parsing runDeadline.duration %q: %v", abmerr.ErrConfig, val, err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml loads a RunConfig from path via viper, the same loader the
// teacher uses for TrainingConfig. Space's own kind-specific fields need a
// second pass through DecodeSpace once the caller knows which variant it
// selected.
func FromYaml(path string) (*RunConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading config %s: %v", abmerr.ErrConfig, path, err)
	}

	cfg := &RunConfig{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling run config: %v", abmerr.ErrConfig, err)
	}
	return cfg, nil
}
