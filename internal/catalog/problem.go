package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sequorlabs/sequor/internal/heuristic"
	"github.com/sequorlabs/sequor/internal/model"
	"github.com/sequorlabs/sequor/internal/plan"
	"github.com/sequorlabs/sequor/internal/predict"
	"github.com/sequorlabs/sequor/internal/search"
)

// Problem is one planning problem as loaded from YAML: the initial
// state, the goal, optional predictor descriptors, and the assembler
// configuration.
type Problem struct {
	Initial     model.State
	Goal        model.Goal
	Descriptors []predict.Descriptor
	Config      plan.Config
}

// problemDoc is the YAML wire shape.
type problemDoc struct {
	Initial     map[string]any  `yaml:"initial"`
	Goal        map[string]any  `yaml:"goal"`
	Provenance  string          `yaml:"provenance"`
	Descriptors []descriptorDoc `yaml:"descriptors"`
	Config      configDoc       `yaml:"config"`
}

type descriptorDoc struct {
	Name       string   `yaml:"name"`
	EffectKeys []string `yaml:"effect_keys"`
}

type configDoc struct {
	Algorithm      string `yaml:"algorithm"`
	Heuristic      string `yaml:"heuristic"`
	MaxDepth       *int   `yaml:"max_depth"`
	MaxTime        string `yaml:"max_time"`
	Cache          bool   `yaml:"cache"`
	CacheCapacity  int    `yaml:"cache_capacity"`
	MaxCorrections int    `yaml:"max_corrections"`
}

// LoadProblem reads and parses a YAML problem file.
func LoadProblem(path string) (*Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseProblem(src)
}

// ParseProblem parses a YAML problem document. Scalars are coerced into
// model values; unknown algorithm or heuristic names are rejected with
// the valid set in the message.
func ParseProblem(src []byte) (*Problem, error) {
	var doc problemDoc
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("catalog: problem yaml: %w", err)
	}

	initial, err := model.NewState(doc.Initial)
	if err != nil {
		return nil, fmt.Errorf("catalog: problem initial: %w", err)
	}

	if len(doc.Goal) == 0 {
		return nil, fmt.Errorf("catalog: problem goal is required")
	}
	want, err := model.NewState(doc.Goal)
	if err != nil {
		return nil, fmt.Errorf("catalog: problem goal: %w", err)
	}

	p := &Problem{
		Initial: initial,
		Goal:    model.Goal{Want: want, Provenance: doc.Provenance},
	}

	for _, d := range doc.Descriptors {
		p.Descriptors = append(p.Descriptors, predict.Descriptor{
			Name:       d.Name,
			EffectKeys: d.EffectKeys,
		})
	}

	p.Config, err = parseConfig(doc.Config)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func parseConfig(doc configDoc) (plan.Config, error) {
	var cfg plan.Config

	if doc.Algorithm != "" {
		alg, err := search.ParseAlgorithm(doc.Algorithm)
		if err != nil {
			return cfg, fmt.Errorf("catalog: problem config: %w", err)
		}
		cfg.Algorithm = alg
	}

	if doc.Heuristic != "" {
		kind, err := heuristic.ParseKind(doc.Heuristic)
		if err != nil {
			return cfg, fmt.Errorf("catalog: problem config: %w", err)
		}
		cfg.Heuristic = kind
	}

	if doc.MaxDepth != nil {
		if *doc.MaxDepth == 0 {
			cfg.ZeroDepth = true
		} else {
			cfg.MaxDepth = *doc.MaxDepth
		}
	}

	if doc.MaxTime != "" {
		d, err := time.ParseDuration(doc.MaxTime)
		if err != nil {
			return cfg, fmt.Errorf("catalog: problem config: max_time: %w", err)
		}
		cfg.MaxTime = d
	}

	cfg.EnableCache = doc.Cache
	cfg.CacheCapacity = doc.CacheCapacity
	cfg.MaxCorrections = doc.MaxCorrections
	return cfg, nil
}
