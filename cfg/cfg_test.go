/*
 * cfg_test.go, part of watmap.
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

package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `topology: sys.pdb
trajs:
  - run1.dcd
  - run2.dcd
out: mu.dx.gz
solute: [LIG]
delta: 0.4
sigma: 0.8
padding: 6
skip: 2
box: [62.3, 62.3, 62.3]
`

func TestNew(Te *testing.T) {
	dir := Te.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		Te.Fatal(err)
	}
	c, err := New(path)
	if err != nil {
		Te.Fatal(err)
	}
	if c.Topology != "sys.pdb" || len(c.Trajs) != 2 || c.Out != "mu.dx.gz" {
		Te.Error("file fields not read correctly")
	}
	if c.Delta != 0.4 || c.Sigma != 0.8 || c.Padding != 6 || c.Skip != 2 {
		Te.Error("numeric fields not read correctly")
	}
	//fields absent from the file keep their defaults
	if c.KT != 0.593 || c.Eps != 1e-6 {
		Te.Errorf("defaults not applied: kt %v eps %v", c.KT, c.Eps)
	}
	if c.Box != [3]float64{62.3, 62.3, 62.3} {
		Te.Errorf("wrong box %v", c.Box)
	}
	o := c.Options()
	if o.Delta() != 0.4 || o.Sigma() != 0.8 || o.Skip() != 2 {
		Te.Error("options do not reflect the configuration")
	}
	if o.Box() != c.Box {
		Te.Error("box not carried into the options")
	}
}

func TestCheck(Te *testing.T) {
	bad := []func(*Cfg){
		func(c *Cfg) { c.Topology = "" },
		func(c *Cfg) { c.Trajs = nil },
		func(c *Cfg) { c.Out = "" },
		func(c *Cfg) { c.Delta = 0 },
		func(c *Cfg) { c.Sigma = -1 },
		func(c *Cfg) { c.KT = 0 },
		func(c *Cfg) { c.Eps = 0 },
		func(c *Cfg) { c.Skip = 0 },
	}
	for i, breakit := range bad {
		c := Default()
		c.Topology = "sys.pdb"
		c.Trajs = []string{"run.dcd"}
		c.Out = "mu.dx"
		if err := c.Check(); err != nil {
			Te.Fatalf("valid configuration rejected: %v", err)
		}
		breakit(c)
		if err := c.Check(); err == nil {
			Te.Errorf("broken configuration %d was accepted", i)
		}
	}
}

func TestSaveRoundTrip(Te *testing.T) {
	dir := Te.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	c := Default()
	c.Topology = "sys.pdb"
	c.Trajs = []string{"run.dcd"}
	c.Out = "mu.dx"
	c.Sigma = 0 //no smoothing
	if err := Save(path, c); err != nil {
		Te.Fatal(err)
	}
	c2, err := New(path)
	if err != nil {
		Te.Fatal(err)
	}
	if c2.Sigma != 0 || c2.Delta != c.Delta || c2.Topology != c.Topology {
		Te.Error("configuration changed in save/load round trip")
	}
}
