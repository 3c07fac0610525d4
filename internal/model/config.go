package model

import (
	"fmt"
	"io"
	"path"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

type Config struct {
	Version int  `json:"version"` // fixed 0 for now
	Scan    Scan `json:"scan"`
	Log     Log  `json:"log"`
}

// Scan holds scanning defaults. Command line flags take precedence.
type Scan struct {
	Patterns    []string `json:"patterns"`    // base-name globs, e.g. "*.so*"
	Jobs        int      `json:"jobs"`        // worker pool size, >= 1
	All         bool     `json:"all"`         // find all matches
	MaxFileSize int64    `json:"maxFileSize"` // bigger files are skipped
	Machine     string   `json:"machine"`     // architecture filter, "" = any
}

type Log struct {
	Verbose bool `json:"verbose"`
}

// LoadConfig validates YAML from r against the CUE schema and decodes it.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("sofind.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// DefaultConfig is the configuration used when no file is present. All
// values come from the defaults in the CUE schema.
func DefaultConfig() Config {
	var out Config
	if err := schema.Decode(&out); err != nil {
		panic(err)
	}
	return out
}

// Validate checks the constraints CUE cannot express, currently that every
// pattern compiles as a path glob.
func (c Config) Validate() error {
	for _, p := range c.Scan.Patterns {
		if _, err := path.Match(p, "x"); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}
