package augment

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML-facing description of a StrongAugment: which strategy
// to use, its parameters, and optionally a custom augmentation space.
//
//	strategy: count
//	counts: [2, 3, 4]
//	probabilities: [0.5, 0.3, 0.2]
//	seed: 42
//	space:
//	  red: [0.0, 2.0]
//	  solarize: [0, 255]
//	  autocontrast: [true, true]
type Config struct {
	Strategy      string    `yaml:"strategy"`
	Counts        []int     `yaml:"counts"`
	Probabilities []float64 `yaml:"probabilities"`

	// Incremental strategy parameters.
	P             float64 `yaml:"p"`
	MinOps        int     `yaml:"min_ops"`
	MaxOps        int     `yaml:"max_ops"`
	MaxDistortion int     `yaml:"max_distortion"`

	Seed  *int64      `yaml:"seed"`
	Space SpaceConfig `yaml:"space"`
}

// SpaceConfig is the string-keyed form of a Space as it appears in YAML.
type SpaceConfig map[string]Bounds

// UnmarshalYAML implements the dynamic checks on a bound pair: it must be a
// two-element sequence whose elements share one of the int, float or bool
// scalar kinds.
func (b *Bounds) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return errors.Wrap(ErrConfig, "bounds should be a two-element (low, high) pair")
	}
	low, high := node.Content[0], node.Content[1]
	if low.Tag != high.Tag {
		return errors.Wrapf(ErrConfig, "bound kinds should be the same (%s != %s)",
			strings.TrimPrefix(low.Tag, "!!"), strings.TrimPrefix(high.Tag, "!!"))
	}
	switch low.Tag {
	case "!!int":
		var lo, hi int
		if err := low.Decode(&lo); err != nil {
			return errors.Wrapf(ErrConfig, "decoding low bound: %v", err)
		}
		if err := high.Decode(&hi); err != nil {
			return errors.Wrapf(ErrConfig, "decoding high bound: %v", err)
		}
		*b = IntBounds(lo, hi)
	case "!!float":
		var lo, hi float64
		if err := low.Decode(&lo); err != nil {
			return errors.Wrapf(ErrConfig, "decoding low bound: %v", err)
		}
		if err := high.Decode(&hi); err != nil {
			return errors.Wrapf(ErrConfig, "decoding high bound: %v", err)
		}
		*b = FloatBounds(lo, hi)
	case "!!bool":
		*b = BoolBounds()
	default:
		return errors.Wrapf(ErrConfig, "bounds should be int, float or bool, not %s",
			strings.TrimPrefix(low.Tag, "!!"))
	}
	return nil
}

// ToSpace resolves the string keys into a Space. Unknown names fail with the
// allowed operation set in the message.
func (sc SpaceConfig) ToSpace() (Space, error) {
	space := make(Space, len(sc))
	for name, b := range sc {
		op, err := ParseOp(name)
		if err != nil {
			return nil, err
		}
		space[op] = b
	}
	return space, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %q", path)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(ErrConfig, "parsing config: %v", err)
	}
	return cfg, nil
}

// Build assembles a StrongAugment from the configuration. An empty strategy
// means "count" with its default parameters; an "incremental" strategy with
// max_ops unset gets the default (p=0.5, 2..5 operations, 2 distortions).
// An empty space selects the default space matching the strategy.
func (cfg *Config) Build() (*StrongAugment, error) {
	var strategy Strategy
	var err error
	name := strings.ToLower(cfg.Strategy)
	switch name {
	case "", "count":
		counts, probs := cfg.Counts, cfg.Probabilities
		if len(counts) == 0 && len(probs) == 0 {
			counts, probs = []int{2, 3, 4}, []float64{0.5, 0.3, 0.2}
		}
		strategy, err = NewCountStrategy(counts, probs)
	case "incremental":
		p, minOps, maxOps, maxDistortion := cfg.P, cfg.MinOps, cfg.MaxOps, cfg.MaxDistortion
		if maxOps == 0 {
			p, minOps, maxOps, maxDistortion = 0.5, 2, 5, 2
		}
		strategy, err = NewIncrementalStrategy(p, minOps, maxOps, maxDistortion)
	default:
		return nil, errors.Wrapf(ErrConfig, "unknown strategy %q (want count or incremental)", cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	var space Space
	if len(cfg.Space) > 0 {
		space, err = cfg.Space.ToSpace()
		if err != nil {
			return nil, err
		}
	} else if name == "incremental" {
		space = DistortionSpace()
	}

	var opts []Option
	if cfg.Seed != nil {
		opts = append(opts, WithSeed(*cfg.Seed))
	}
	return New(space, strategy, opts...)
}
