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

// Package ufunc applies user-supplied functions across labeled
// multidimensional arrays, broadcasting over the dimensions the
// function does not operate on. Dimensions each function operates on
// jointly ("core" dimensions) are named per input; the engine
// transposes every input so that its core dimensions are the trailing
// axes, in the requested order, and iterates the remaining ("loop")
// dimensions in lock-step using standard broadcasting rules.
package ufunc

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Array is a dense multidimensional array with a name for each of
// its axes and, optionally, coordinate labels along each axis.
type Array struct {
	*sparse.DenseArray

	// Dims holds one dimension name per axis, in axis order.
	// Names must be unique within one array.
	Dims []string

	// Coords optionally holds coordinate labels for dimensions.
	// If a dimension is present, the slice length must equal the
	// dimension size.
	Coords map[string][]float64

	Name        string
	Units       string
	Description string
}

// NewArray creates a labeled array from data, giving the name in dims
// corresponding to each axis of data. The number of names must equal
// the number of axes, and the names must be unique.
func NewArray(data *sparse.DenseArray, dims ...string) (*Array, error) {
	if len(dims) != len(data.Shape) {
		return nil, fmt.Errorf("ufunc: array has %d axes but %d dimension names were given",
			len(data.Shape), len(dims))
	}
	seen := make(map[string]struct{})
	for _, d := range dims {
		if _, ok := seen[d]; ok {
			return nil, fmt.Errorf("ufunc: duplicate dimension name %q", d)
		}
		seen[d] = struct{}{}
	}
	return &Array{DenseArray: data, Dims: dims}, nil
}

// dimIndex returns the axis number of the dimension named name,
// or -1 if the array doesn't have that dimension.
func (a *Array) dimIndex(name string) int {
	for i, d := range a.Dims {
		if d == name {
			return i
		}
	}
	return -1
}

// HasDim reports whether the array has a dimension named name.
func (a *Array) HasDim(name string) bool {
	return a.dimIndex(name) >= 0
}

// DimSize returns the size of the dimension named name. ok is false
// if the array doesn't have that dimension.
func (a *Array) DimSize(name string) (size int, ok bool) {
	i := a.dimIndex(name)
	if i < 0 {
		return 0, false
	}
	return a.Shape[i], true
}

// label returns a human-readable identifier for the array for use
// in error messages.
func (a *Array) label(i int) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("input %d", i)
}

// strides returns the element stride of each axis of an array
// with the given shape, assuming row-major storage.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

// unravel converts flat cell index c to a multidimensional index
// within shape, assuming row-major ordering.
func unravel(c int, shape []int) []int {
	idx := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		idx[i] = c % shape[i]
		c /= shape[i]
	}
	return idx
}

// offset returns the flat element offset corresponding to the
// multidimensional index idx with the given axis strides.
func offset(idx, strides []int) int {
	o := 0
	for i, x := range idx {
		o += x * strides[i]
	}
	return o
}

// shapeSize returns the number of elements implied by shape.
func shapeSize(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
