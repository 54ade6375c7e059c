/*
Copyright © 2019 the InMAP authors.
This file is part of the ufunc library.

ufunc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ufunc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ufunc.  If not, see <http://www.gnu.org/licenses/>.
*/

package ufunc

import "fmt"

// MissingDimensionError reports a core dimension that was requested
// for an input that doesn't have a dimension with that name.
type MissingDimensionError struct {
	Dim   string // the requested dimension
	Array string // which input
}

func (e *MissingDimensionError) Error() string {
	return fmt.Sprintf("ufunc: %s has no dimension %q", e.Array, e.Dim)
}

// SizeMismatchError reports a core dimension that is shared between
// inputs but has different sizes in them. Shared core dimensions must
// have equal sizes unless they are excluded from size checking.
type SizeMismatchError struct {
	Dim            string
	Array1, Array2 string
	Size1, Size2   int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("ufunc: core dimension %q has size %d in %s but size %d in %s",
		e.Dim, e.Size1, e.Array1, e.Size2, e.Array2)
}

// BroadcastError reports loop dimensions that cannot be reconciled by
// broadcasting: sizes must either be equal or one of them must be 1.
type BroadcastError struct {
	Dim          string
	Size1, Size2 int
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("ufunc: cannot broadcast dimension %q: sizes %d and %d are incompatible",
		e.Dim, e.Size1, e.Size2)
}

// UnexpectedRankError reports a kernel result whose number of axes
// disagrees with the declared output core dimensions. This usually
// means the kernel drops or adds dimensions that were not declared.
type UnexpectedRankError struct {
	Output       int      // index of the output
	ExpectedDims []string // the declared core dimensions
	LoopRank     int      // number of leading broadcast axes expected
	Rank         int      // the rank the kernel actually returned
}

func (e *UnexpectedRankError) Error() string {
	if e.LoopRank == 0 {
		return fmt.Sprintf("ufunc: output %d: kernel returned an array with %d axes; expected core dimensions %v",
			e.Output, e.Rank, e.ExpectedDims)
	}
	return fmt.Sprintf("ufunc: output %d: kernel returned an array with %d axes; expected %d loop axes plus core dimensions %v",
		e.Output, e.Rank, e.LoopRank, e.ExpectedDims)
}

// UnexpectedSizeError reports a dimension whose size changed during
// kernel execution without having been excluded from size checking.
type UnexpectedSizeError struct {
	Dim            string
	Expected, Size int
}

func (e *UnexpectedSizeError) Error() string {
	return fmt.Sprintf("ufunc: size of dimension %q changed from %d to %d during kernel execution; "+
		"list it in ExcludeDims if the kernel is meant to resize it",
		e.Dim, e.Expected, e.Size)
}

// KernelError wraps an error returned by a kernel, recording which
// broadcast cell was being computed when the kernel failed. Cell is
// nil in vectorized mode.
type KernelError struct {
	Cell []int
	Err  error
}

func (e *KernelError) Error() string {
	if e.Cell == nil {
		return fmt.Sprintf("ufunc: kernel: %v", e.Err)
	}
	return fmt.Sprintf("ufunc: kernel at broadcast cell %v: %v", e.Cell, e.Err)
}

// Unwrap returns the kernel's original error.
func (e *KernelError) Unwrap() error { return e.Err }
