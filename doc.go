/*
 * doc.go, part of watmap.
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

/*Package watmap computes volumetric water-occupancy and chemical-potential maps
from molecular dynamics trajectories.

The root package provides the small amount of molecular machinery the analysis
needs: an Atom/Topology representation, a PDB reader for the reference
structure, interfaces for sequential and concurrent trajectory reading, and
geometric helpers (centroids, bounding boxes and orthorhombic wrapping).

The actual work happens in the subpackages:

    traj/dcd    reads CHARMM/NAMD DCD trajectories, plain or compressed.
    grid        accumulates positions into a voxel lattice, smooths it with
                a separable Gaussian filter and applies the -kT*ln(w)
                free-energy transform.
    occupancy   drives the per-frame loop, sequentially or concurrently.
    dx          writes (and reads back) the resulting map in the OpenDX
                format understood by VMD, PyMOL and Chimera.
    mapplot     quick-look profile and slice plots of a map.
    cfg         YAML run configuration for the command-line tool.

A map is built by binning the positions of water oxygens, frame by frame, into
a regular grid laid over the solute. The time-averaged count in each voxel is
the water occupancy; -kT*ln(occupancy+eps) approximates the local free energy
(chemical potential) of water presence, with low values marking favorable
hydration sites.*/
package watmap
