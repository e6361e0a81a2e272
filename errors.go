/*
 * errors.go, part of watmap.
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

import "fmt"

// CError is the concrete error type of the root package. It implements the
// Error interface.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

// Decorate adds the given string to the decoration slice of the error and
// returns the resulting slice. An empty string only queries the slice.
func (err CError) Decorate(deco string) []string {
	//The receiver is not a pointer but deco, being a slice, is a
	//reference type, so the decoration survives the call.
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Critical always returns true. Errors from the root package are not
// recoverable.
func (err CError) Critical() bool { return true }

func new_error(caller, msg string) CError {
	return CError{msg: msg, deco: []string{caller}}
}

func errorf(caller, format string, args ...interface{}) CError {
	return new_error(caller, fmt.Sprintf(format, args...))
}

// errDecorate asserts that err implements the watmap Error interface and
// decorates it with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2, ok := err.(Error)
	if !ok {
		return fmt.Errorf("%s: %w", caller, err)
	}
	err2.Decorate(caller)
	return err2
}
