/*
 * cfg.go, part of watmap.
 *
 * Copyright 2023 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package cfg reads the YAML configuration file for a map calculation.*/
package cfg

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/rmera/watmap/occupancy"
	"gopkg.in/yaml.v3"
)

// Cfg contains the parameters for a full occupancy map calculation. It can
// be instanced through New or by hand; in the latter case, use Check to
// verify it meets the requirements.
type Cfg struct {
	// Topology is the PDB file with the system topology and the reference
	// coordinates used to place the grid. A .pdb.gz is also accepted.
	Topology string `yaml:"topology"`

	// Trajs are the trajectory files to process, in reading order. Each
	// entry can be a glob pattern. All files must match the topology.
	Trajs []string `yaml:"trajs"`

	// Out is the output map file. A .dx.gz gets compressed on the fly.
	Out string `yaml:"out"`

	// Solute are the residue names making up the solute. Empty means
	// "every residue that is not a water".
	Solute []string `yaml:"solute"`

	// Waters are the residue names recognized as water. Empty means the
	// usual names (SOL, WAT, HOH and friends).
	Waters []string `yaml:"waters"`

	// Delta is the voxel edge length, in A.
	Delta float64 `yaml:"delta"`

	// Sigma is the Gaussian smoothing width, in A. Zero disables smoothing.
	Sigma float64 `yaml:"sigma"`

	// Padding is the extra room around the solute bounding box, in A.
	Padding float64 `yaml:"padding"`

	// KT is the thermal energy for the chemical potential transform. The
	// map comes out in whatever unit KT is given in.
	KT float64 `yaml:"kt"`

	// Eps is the regularization added to the occupancy before the logarithm.
	Eps float64 `yaml:"eps"`

	// Skip is the frame reading periodicity: 1 reads every frame, 2 every
	// other frame, and so on.
	Skip int `yaml:"skip"`

	// Cpus is the number of frames processed concurrently. 0 means one per
	// logical CPU. 1 forces sequential processing, which also enables
	// per-frame unit cells.
	Cpus int `yaml:"cpus"`

	// Box is the fixed box used to wrap waters when the trajectory has no
	// unit cell, or when processing concurrently. All zeros disables
	// wrapping.
	Box [3]float64 `yaml:"box"`
}

// Default returns a Cfg with the default calculation parameters and no
// files set.
func Default() *Cfg {
	o := occupancy.DefaultOptions()
	return &Cfg{
		Delta:   o.Delta(),
		Sigma:   o.Sigma(),
		Padding: o.Padding(),
		KT:      o.KT(),
		Eps:     o.Eps(),
		Skip:    o.Skip(),
		Cpus:    runtime.NumCPU(),
	}
}

// New opens and decodes the given YAML configuration file, on top of the
// defaults, and checks the result.
func New(path string) (*Cfg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c := Default()
	dec := yaml.NewDecoder(bufio.NewReader(f))
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("Check: %w", err)
	}
	return c, nil
}

// Check returns an error if a field doesn't meet the requirements.
func (c *Cfg) Check() error {
	if c.Topology == "" {
		return fmt.Errorf("a topology file is required")
	}
	if len(c.Trajs) == 0 {
		return fmt.Errorf("at least one trajectory is required")
	}
	if c.Out == "" {
		return fmt.Errorf("an output file is required")
	}
	if c.Delta <= 0 {
		return fmt.Errorf("delta must be positive")
	}
	if c.Sigma < 0 {
		return fmt.Errorf("sigma cannot be negative")
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding cannot be negative")
	}
	if c.KT <= 0 {
		return fmt.Errorf("kt must be positive")
	}
	if c.Eps <= 0 {
		return fmt.Errorf("eps must be positive")
	}
	if c.Skip < 1 {
		return fmt.Errorf("skip must be at least 1")
	}
	if c.Cpus < 0 {
		return fmt.Errorf("cpus cannot be negative")
	}
	return nil
}

// Options translates the configuration into the options for the occupancy
// calculation.
func (c *Cfg) Options() *occupancy.Options {
	o := occupancy.DefaultOptions()
	o.Delta(c.Delta)
	o.Sigma(c.Sigma)
	o.Padding(c.Padding)
	o.KT(c.KT)
	o.Eps(c.Eps)
	o.Skip(c.Skip)
	if c.Cpus > 0 {
		o.Cpus(c.Cpus)
	}
	if len(c.Waters) > 0 {
		o.Residues(c.Waters)
	}
	o.Box(c.Box)
	return o
}

// Save writes the configuration to path, in YAML.
func Save(path string, c *Cfg) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
