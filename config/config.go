// Package config loads and validates the run configuration of a simulation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/patrikhermansson/thermal/lattice"
	"gopkg.in/yaml.v3"
)

var (
	// ErrSize is returned for a lattice side length below 1.
	ErrSize = errors.New("config: lattice size must be positive")

	// ErrParticles is returned when the particle count does not fit the lattice or sub-lattice A.
	ErrParticles = errors.New("config: invalid particle count")

	// ErrDeletePosition is returned for a deletion position outside the lattice.
	ErrDeletePosition = errors.New("config: delete position out of range")

	// ErrSubLattice is returned when sub-lattice A or B is empty or A's mask does not extend the lattice mask.
	ErrSubLattice = errors.New("config: inconsistent sub-lattices")

	// ErrTimeRange is returned for an empty or reversed time range.
	ErrTimeRange = errors.New("config: invalid time range")
)

// Time is the time grid of the evolution.
type Time struct {
	Initial float64 `yaml:"initial"`
	Final   float64 `yaml:"final"`
	Steps   int     `yaml:"steps"`
}

// Output controls what a run writes besides its log.
type Output struct {
	Dir          string `yaml:"dir"`           // directory for plots and the spectrum file, empty writes nothing
	Format       string `yaml:"format"`        // plot format: png, svg, pdf or html
	SaveSpectrum bool   `yaml:"save_spectrum"` // write the full eigen-decomposition as gob
	RunLog       string `yaml:"runlog"`        // run history database, empty disables it
}

// Config describes one simulation run.
type Config struct {
	Particles int    `yaml:"particles"`
	Size      int    `yaml:"size"`     // side length of the square lattice
	Delete    []int  `yaml:"delete"`   // 1-based positions removed from the lattice
	DeleteA   []int  `yaml:"delete_a"` // positions removed to leave only sub-lattice A
	Time      Time   `yaml:"time"`
	Workers   int    `yaml:"workers"` // 0 uses one worker per CPU
	Output    Output `yaml:"output"`
}

// Default returns the configuration of the reference run: three particles on a
// 4x4 lattice with four sites removed and a 2x2 corner as sub-lattice A.
func Default() *Config {
	return &Config{
		Particles: 3,
		Size:      4,
		Delete:    []int{3, 4, 9, 13},
		DeleteA:   []int{3, 4, 9, 13, 7, 8, 10, 11, 12, 14, 15, 16},
		Time:      Time{Initial: 0, Final: 200, Steps: 100},
		Output:    Output{Format: "png"},
	}
}

// Load reads a YAML configuration file. Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a YAML configuration. Unknown fields are rejected.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration held in memory.
func Parse(data []byte) (*Config, error) {
	return Read(bytes.NewReader(data))
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration before any computation starts.
func (c *Config) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("%w: %d", ErrSize, c.Size)
	}
	nol := c.Size * c.Size
	for _, pos := range append(append([]int(nil), c.Delete...), c.DeleteA...) {
		if pos < 1 || pos > nol {
			return fmt.Errorf("%w: %d not in [1, %d]", ErrDeletePosition, pos, nol)
		}
	}

	maskA := set(c.DeleteA)
	for _, pos := range c.Delete {
		if _, ok := maskA[pos]; !ok {
			return fmt.Errorf("%w: deleted position %d missing from delete_a", ErrSubLattice, pos)
		}
	}
	remaining := nol - len(set(c.Delete))
	sizeA := nol - len(maskA)
	sizeB := remaining - sizeA
	if sizeA < 1 || sizeB < 1 {
		return fmt.Errorf("%w: %d sites in A, %d in B", ErrSubLattice, sizeA, sizeB)
	}
	if c.Particles < 1 || c.Particles > sizeA {
		return fmt.Errorf("%w: %d particles with %d sites in A", ErrParticles, c.Particles, sizeA)
	}

	if c.Time.Steps < 1 || c.Time.Final < c.Time.Initial {
		return fmt.Errorf("%w: %g to %g in %d steps", ErrTimeRange, c.Time.Initial, c.Time.Final, c.Time.Steps)
	}
	return nil
}

// Lattice returns the full lattice after deletion.
func (c *Config) Lattice() (*lattice.Lattice, error) {
	return lattice.New(c.Size, c.Delete)
}

// LatticeA returns sub-lattice A.
func (c *Config) LatticeA() (*lattice.Lattice, error) {
	return lattice.New(c.Size, c.DeleteA)
}

// LatticeB returns sub-lattice B, the sites of the full lattice outside A.
func (c *Config) LatticeB() (*lattice.Lattice, error) {
	full, err := c.Lattice()
	if err != nil {
		return nil, err
	}
	a, err := c.LatticeA()
	if err != nil {
		return nil, err
	}
	return lattice.FromLabels(c.Size, full.Without(a))
}

// LabelsA returns the site labels of sub-lattice A.
func (c *Config) LabelsA() ([]int, error) {
	a, err := c.LatticeA()
	if err != nil {
		return nil, err
	}
	return a.Sites(), nil
}

// LabelsB returns the site labels of sub-lattice B.
func (c *Config) LabelsB() ([]int, error) {
	b, err := c.LatticeB()
	if err != nil {
		return nil, err
	}
	return b.Sites(), nil
}

// SizeA returns the number of sites in sub-lattice A.
func (c *Config) SizeA() int {
	return c.Size*c.Size - len(set(c.DeleteA))
}

// SizeB returns the number of sites in sub-lattice B.
func (c *Config) SizeB() int {
	return len(set(c.DeleteA)) - len(set(c.Delete))
}

func set(xs []int) map[int]struct{} {
	m := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
