/*
 * watmap.go, part of watmap.
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

package watmap

import "strings"

// Atom contains the per-atom topology information, i.e. everything read for an
// atom except its coordinates, which live in a v3.Matrix, one row per atom.
type Atom struct {
	Name    string  //PDB atom name, e.g. "OH2"
	ID      int     //the serial number in the input file
	MolName string  //residue name, e.g. "TIP3"
	MolID   int     //residue serial number
	Chain   string  //chain identifier
	Mass    float64 //in Daltons. Zero if unknown.
	Symbol  string  //chemical element
	Het     bool    //read from a HETATM record?
}

// Copy returns a copy of the Atom.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("watmap: attempted to copy a nil Atom")
	}
	at := *A
	return &at
}

// Topology is a collection of atoms which is not expected to change during a
// trajectory. It implements Atomer and Masser.
type Topology struct {
	atoms []*Atom
}

// NewTopology returns a Topology made of the given atoms.
func NewTopology(atoms []*Atom) *Topology {
	return &Topology{atoms: atoms}
}

// Atom returns the Atom corresponding to the index i.
// Panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic("watmap: Topology: requested Atom out of bounds")
	}
	return T.atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.atoms)
}

// AppendAtom adds an atom at the end of the topology.
func (T *Topology) AppendAtom(at *Atom) {
	T.atoms = append(T.atoms, at)
}

// SomeAtoms returns a new Topology with the atoms of T whose indexes are in
// list, in the order of the list. The atoms are shared with T, not copied.
func (T *Topology) SomeAtoms(list []int) (*Topology, error) {
	atoms := make([]*Atom, 0, len(list))
	for k, i := range list {
		if i >= T.Len() || i < 0 {
			return nil, errorf("SomeAtoms", "index %d (position %d in the list) out of range", i, k)
		}
		atoms = append(atoms, T.atoms[i])
	}
	return NewTopology(atoms), nil
}

// Masses returns a slice with the masses of all atoms, or an error if any
// mass is missing.
func (T *Topology) Masses() ([]float64, error) {
	masses := make([]float64, T.Len())
	for i := 0; i < T.Len(); i++ {
		at := T.Atom(i)
		if at.Mass == 0 {
			return nil, errorf("Masses", "no mass for atom %d (%s/%s)", i, at.MolName, at.Name)
		}
		masses[i] = at.Mass
	}
	return masses, nil
}

// WaterNames are the residue names recognized as water by default. They cover
// GROMACS, AMBER, CHARMM and plain-PDB conventions.
var WaterNames = []string{"SOL", "WAT", "HOH", "TIP3", "TIP4", "SPC"}

// WaterOxygens returns the indexes of the water oxygen atoms in mol. An atom
// qualifies when its residue name is in resnames (WaterNames if resnames is
// nil) and it is an oxygen, judged by the Symbol field or, failing that, by
// the atom name starting with "O".
func WaterOxygens(mol Atomer, resnames []string) []int {
	if resnames == nil {
		resnames = WaterNames
	}
	ret := make([]int, 0, mol.Len()/4)
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		if !isInString(resnames, at.MolName) {
			continue
		}
		if at.Symbol == "O" || (at.Symbol == "" && strings.HasPrefix(at.Name, "O")) {
			ret = append(ret, i)
		}
	}
	return ret
}

// ResidueIndexes returns the indexes of every atom in mol whose residue name
// is in resnames.
func ResidueIndexes(mol Atomer, resnames []string) []int {
	ret := make([]int, 0, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		if isInString(resnames, mol.Atom(i).MolName) {
			ret = append(ret, i)
		}
	}
	return ret
}

// SoluteIndexes returns the indexes of every atom in mol whose residue name is
// not in resnames (WaterNames if resnames is nil). Ions are not excluded;
// callers that care should filter further.
func SoluteIndexes(mol Atomer, resnames []string) []int {
	if resnames == nil {
		resnames = WaterNames
	}
	ret := make([]int, 0, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		if !isInString(resnames, mol.Atom(i).MolName) {
			ret = append(ret, i)
		}
	}
	return ret
}

//NOTE: These will be replaced when the generic functions
//make it to Go's stdlib.

// isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

// Same as the previous, but with strings.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
