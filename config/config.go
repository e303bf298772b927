// Package config defines the YAML-backed configuration for a simrun: box
// geometry, process count, and the repartitioner's tunables. Parse follows
// Notargets-gocfd's InputParameters.Parse: unmarshal with
// github.com/ghodss/yaml rather than gopkg.in/yaml.v2/v3. ghodss/yaml
// converts the YAML to JSON and decodes it with encoding/json, so the
// `yaml` struct tags below are not read; keys match the Go field names
// case-insensitively, and they are spelled the same as the tags.
package config

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Box describes the static geometry: box lengths and cell counts per axis.
type Box struct {
	L [3]float64 `yaml:"L"`
	N [3]int     `yaml:"N"`
}

// Config is the full simrun configuration, loaded from a YAML file.
type Config struct {
	Title        string  `yaml:"Title"`
	Box          Box     `yaml:"Box"`
	MinCellSize  float64 `yaml:"MinCellSize"`
	ProcessCount int     `yaml:"ProcessCount"`
	Mu           float64 `yaml:"Mu"`
	Ticks        int     `yaml:"Ticks"`
	Verbose      bool    `yaml:"Verbose"`
}

// Default returns a small, valid configuration usable without a config
// file: an 8x8x8 box on 8 simulated ranks.
func Default() *Config {
	return &Config{
		Title:        "default",
		Box:          Box{L: [3]float64{8, 8, 8}, N: [3]int{8, 8, 8}},
		MinCellSize:  0.1,
		ProcessCount: 8,
		Mu:           1.0,
		Ticks:        10,
	}
}

// Parse unmarshals YAML data into c, leaving fields absent from data
// untouched.
func (c *Config) Parse(data []byte) error {
	return yaml.Unmarshal(data, c)
}

// Validate reports the first configuration problem found, if any.
func (c *Config) Validate() error {
	if c.ProcessCount <= 0 {
		return fmt.Errorf("config: ProcessCount must be positive, got %d", c.ProcessCount)
	}
	for d := 0; d < 3; d++ {
		if c.Box.L[d] <= 0 {
			return fmt.Errorf("config: Box.L[%d] must be positive, got %g", d, c.Box.L[d])
		}
		if c.Box.N[d] <= 0 {
			return fmt.Errorf("config: Box.N[%d] must be positive, got %d", d, c.Box.N[d])
		}
	}
	if c.MinCellSize < 0 {
		return fmt.Errorf("config: MinCellSize must be non-negative, got %g", c.MinCellSize)
	}
	return nil
}

// Print writes a human-readable summary, following InputParameters.Print's
// register in the gocfd sibling example.
func (c *Config) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", c.Title)
	fmt.Printf("%v\t\t= Box.L\n", c.Box.L)
	fmt.Printf("%v\t\t= Box.N\n", c.Box.N)
	fmt.Printf("%8.5f\t= MinCellSize\n", c.MinCellSize)
	fmt.Printf("%d\t\t\t= ProcessCount\n", c.ProcessCount)
	fmt.Printf("%8.5f\t= Mu\n", c.Mu)
	fmt.Printf("%d\t\t\t= Ticks\n", c.Ticks)
}
