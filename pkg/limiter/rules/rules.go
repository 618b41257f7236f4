// Package rules resolves per-class limiter configs from a YAML file.
//
// A rules file names one config per key class (the prefix before the first
// ':' in a key), plus an optional default for classes it does not name:
//
//	default:
//	  algorithm: token_bucket
//	  capacity: 100
//	  refill_rate: 50
//	classes:
//	  - class: anon
//	    algorithm: fixed_window
//	    limit: 60
//	    window: 1m
//	  - class: partner
//	    algorithm: sliding_counter
//	    limit: 5000
//	    window: 1h
//	    cost_default: 1
//
// Ruleset implements limiter.ConfigResolver, so it plugs straight into
// limiter.WithResolver. Watch reloads the file on change; a file that fails
// to parse or validate keeps the previous rules in force.
package rules

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manenim/rate-engine/pkg/limiter"
)

// ErrNoRules indicates a file with neither classes nor a default.
var ErrNoRules = errors.New("rules: file defines no classes and no default")

type ruleYAML struct {
	Class       string  `yaml:"class"`
	Algorithm   string  `yaml:"algorithm"`
	Limit       int64   `yaml:"limit"`
	Window      string  `yaml:"window"`
	Capacity    int64   `yaml:"capacity"`
	RefillRate  float64 `yaml:"refill_rate"`
	CostDefault int64   `yaml:"cost_default"`
}

type fileYAML struct {
	Default *ruleYAML  `yaml:"default"`
	Classes []ruleYAML `yaml:"classes"`
}

// Ruleset holds the class configs currently in force. It is safe for
// concurrent use; Reload and Watch swap the table atomically under a write
// lock so in-flight Resolves never see a half-applied file.
type Ruleset struct {
	mu      sync.RWMutex
	byClass map[string]limiter.Config
	def     *limiter.Config
	path    string
}

// Parse builds a Ruleset from YAML. Every entry is validated here, so a
// Ruleset that exists never yields an invalid Config.
func Parse(data []byte) (*Ruleset, error) {
	var f fileYAML
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("rules: parse: %w", err)
	}
	if f.Default == nil && len(f.Classes) == 0 {
		return nil, ErrNoRules
	}

	rs := &Ruleset{byClass: make(map[string]limiter.Config, len(f.Classes))}
	if f.Default != nil {
		cfg, err := toConfig(*f.Default)
		if err != nil {
			return nil, fmt.Errorf("rules: default: %w", err)
		}
		rs.def = &cfg
	}
	for _, r := range f.Classes {
		if r.Class == "" {
			return nil, errors.New("rules: class entry without a class name")
		}
		if _, dup := rs.byClass[r.Class]; dup {
			return nil, fmt.Errorf("rules: class %q defined twice", r.Class)
		}
		cfg, err := toConfig(r)
		if err != nil {
			return nil, fmt.Errorf("rules: class %q: %w", r.Class, err)
		}
		rs.byClass[r.Class] = cfg
	}
	return rs, nil
}

// Load reads and parses the file at path. The returned Ruleset remembers
// the path for Reload and Watch.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, err
	}
	rs.path = path
	return rs, nil
}

// Resolve implements limiter.ConfigResolver.
func (rs *Ruleset) Resolve(key string) (limiter.Config, bool) {
	class := limiter.KeyClass(key)

	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if cfg, ok := rs.byClass[class]; ok {
		return cfg, true
	}
	if rs.def != nil {
		return *rs.def, true
	}
	return limiter.Config{}, false
}

// Classes lists the classes currently defined, for diagnostics.
func (rs *Ruleset) Classes() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make([]string, 0, len(rs.byClass))
	for class := range rs.byClass {
		out = append(out, class)
	}
	return out
}

// Reload re-reads the file the Ruleset was loaded from and swaps the rules
// in. On any error the previous rules stay in force.
func (rs *Ruleset) Reload() error {
	if rs.path == "" {
		return errors.New("rules: ruleset was not loaded from a file")
	}
	fresh, err := Load(rs.path)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	rs.byClass = fresh.byClass
	rs.def = fresh.def
	rs.mu.Unlock()
	return nil
}

func toConfig(r ruleYAML) (limiter.Config, error) {
	cfg := limiter.Config{
		Algorithm:   limiter.Algorithm(r.Algorithm),
		Limit:       r.Limit,
		Capacity:    r.Capacity,
		RefillRate:  r.RefillRate,
		CostDefault: r.CostDefault,
	}
	if r.Window != "" {
		w, err := time.ParseDuration(r.Window)
		if err != nil {
			return limiter.Config{}, fmt.Errorf("window %q: %w", r.Window, err)
		}
		cfg.Window = w
	}
	if err := cfg.Validate(); err != nil {
		return limiter.Config{}, err
	}
	return cfg, nil
}
