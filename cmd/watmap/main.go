/*
 * main.go, part of watmap.
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

//watmap computes volumetric water chemical potential maps from MD
//trajectories, and gives quick looks into the resulting files.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	chem "github.com/rmera/watmap"
	"github.com/rmera/watmap/cfg"
	"github.com/rmera/watmap/dx"
	"github.com/rmera/watmap/mapplot"
	"github.com/rmera/watmap/occupancy"
	"github.com/rmera/watmap/traj/dcd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "watmap",
	Short: "Water chemical potential maps from MD trajectories",
	Long: `watmap bins the water oxygen positions of a trajectory into a 3D
grid around the solute, averages them into a per-voxel occupancy, and turns
that into a chemical potential map, exported in OpenDX format for viewing
over the structure in PyMOL, VMD or Chimera.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run <config.yaml>",
	Short: "Compute a map as described by a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <map.dx>",
	Short: "Print the geometry and value range of a map",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := dx.ReadFile(args[0])
		if err != nil {
			return err
		}
		nx, ny, nz := g.Dims()
		o := g.Origin()
		fmt.Printf("%s\n", args[0])
		fmt.Printf("  voxels: %d x %d x %d (%d total)\n", nx, ny, nz, nx*ny*nz)
		fmt.Printf("  origin: %.3f %.3f %.3f A\n", o[0], o[1], o[2])
		fmt.Printf("  voxel size: %.3f A\n", g.Delta())
		fmt.Printf("  values: min %.4f max %.4f mean %.4f\n", g.Min(), g.Max(), g.Sum()/float64(nx*ny*nz))
		return nil
	},
}

var profileAxis string
var sliceAxis string
var sliceIndex int

var profileCmd = &cobra.Command{
	Use:   "profile <map.dx> <out.png>",
	Short: "Plot the mean map value along one axis",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := dx.ReadFile(args[0])
		if err != nil {
			return err
		}
		axis, err := parseAxis(profileAxis)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s along %s", filepath.Base(args[0]), profileAxis)
		return mapplot.Profile(g, axis, title, args[1])
	},
}

var sliceCmd = &cobra.Command{
	Use:   "slice <map.dx> <out.png>",
	Short: "Plot a heat map of one plane of the map",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := dx.ReadFile(args[0])
		if err != nil {
			return err
		}
		axis, err := parseAxis(sliceAxis)
		if err != nil {
			return err
		}
		var dims [3]int
		dims[0], dims[1], dims[2] = g.Dims()
		index := sliceIndex
		if index < 0 {
			index = dims[axis] / 2
		}
		title := fmt.Sprintf("%s, %s slice %d", filepath.Base(args[0]), sliceAxis, index)
		return mapplot.Slice(g, axis, index, title, args[1])
	},
}

func parseAxis(s string) (int, error) {
	switch s {
	case "x":
		return 0, nil
	case "y":
		return 1, nil
	case "z":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis %q: must be x, y or z", s)
}

//expand resolves every trajectory entry, possibly a glob pattern, into a
//sorted list of files.
func expand(patterns []string) ([]string, error) {
	files := make([]string, 0, len(patterns))
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad trajectory pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("trajectory pattern %q matches no files", p)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func run(conffile string) error {
	c, err := cfg.New(conffile)
	if err != nil {
		return err
	}
	top, ref, err := chem.PDBFileRead(c.Topology)
	if err != nil {
		return err
	}
	o := c.Options()
	var solute []int
	if len(c.Solute) > 0 {
		solute = chem.ResidueIndexes(top, c.Solute)
	} else {
		solute = chem.SoluteIndexes(top, o.Residues())
	}
	if len(solute) == 0 {
		return fmt.Errorf("no solute atoms found in %s", c.Topology)
	}
	oxygens := chem.WaterOxygens(top, o.Residues())
	log.Printf("%s: %d atoms, %d in the solute, %d water oxygens", c.Topology, top.Len(), len(solute), len(oxygens))
	g, err := occupancy.BoundsFromRef(ref, solute, o)
	if err != nil {
		return err
	}
	nx, ny, nz := g.Dims()
	gor := g.Origin()
	log.Printf("grid: %d x %d x %d voxels of %g A, origin %.2f %.2f %.2f", nx, ny, nz, g.Delta(), gor[0], gor[1], gor[2])
	if o.Cpus() > 1 && o.Box() == [3]float64{} {
		log.Printf("concurrent processing with no box set: waters will not be wrapped")
	}
	files, err := expand(c.Trajs)
	if err != nil {
		return err
	}
	total := 0
	for _, f := range files {
		traj, err := dcd.New(f)
		if err != nil {
			return err
		}
		if traj.Len() != top.Len() {
			traj.Close()
			return fmt.Errorf("%s has %d atoms per frame, topology has %d", f, traj.Len(), top.Len())
		}
		var read int
		if o.Cpus() > 1 {
			read, err = occupancy.ConcMap(traj, top, g, solute, o)
		} else {
			read, err = occupancy.Map(traj, top, g, solute, o)
		}
		traj.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		log.Printf("%s: %d frames binned", f, read)
		total += read
	}
	if total == 0 {
		return fmt.Errorf("no frames read from %d trajectory files", len(files))
	}
	if g.Discarded() > 0 {
		log.Printf("%d water positions fell outside the grid and were discarded", g.Discarded())
	}
	if err := occupancy.Finish(g, total, o); err != nil {
		return err
	}
	comment := fmt.Sprintf("water chemical potential map, -kT*ln(occupancy+eps)\nkT %g, eps %g, sigma %g A, %d frames from %d files",
		o.KT(), o.Eps(), o.Sigma(), total, len(files))
	if err := dx.WriteFile(c.Out, g, comment); err != nil {
		return err
	}
	log.Printf("map written to %s (values %.3f to %.3f)", c.Out, g.Min(), g.Max())
	return nil
}

func main() {
	profileCmd.Flags().StringVar(&profileAxis, "axis", "x", "axis for the profile (x, y or z)")
	sliceCmd.Flags().StringVar(&sliceAxis, "axis", "z", "axis perpendicular to the slice (x, y or z)")
	sliceCmd.Flags().IntVar(&sliceIndex, "index", -1, "voxel index of the slice (-1 for the middle)")
	rootCmd.AddCommand(runCmd, infoCmd, profileCmd, sliceCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
