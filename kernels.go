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

import (
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reduce returns a loop-mode kernel that collapses all core
// dimensions of its single input to a scalar using f. The elements
// are passed to f in row-major order of the requested core
// dimensions.
func Reduce(f func([]float64) float64) Kernel {
	return KernelFunc(func(in []*sparse.DenseArray) ([]*sparse.DenseArray, error) {
		if len(in) != 1 {
			return nil, fmt.Errorf("reduction kernel needs 1 input but got %d", len(in))
		}
		out := sparse.ZerosDense()
		out.Elements[0] = f(in[0].Elements)
		return []*sparse.DenseArray{out}, nil
	})
}

// Scale returns a kernel that multiplies its single input by c. It
// works in either mode.
func Scale(c float64) Kernel {
	return KernelFunc(func(in []*sparse.DenseArray) ([]*sparse.DenseArray, error) {
		if len(in) != 1 {
			return nil, fmt.Errorf("scale kernel needs 1 input but got %d", len(in))
		}
		out := in[0].Copy()
		out.Scale(c)
		return []*sparse.DenseArray{out}, nil
	})
}

// Reduction kernels over a single input's core dimensions.
var (
	Sum  = Reduce(floats.Sum)
	Min  = Reduce(floats.Min)
	Max  = Reduce(floats.Max)
	Mean = Reduce(func(v []float64) float64 { return stat.Mean(v, nil) })
	// StdDev is the sample standard deviation.
	StdDev = Reduce(func(v []float64) float64 { return stat.StdDev(v, nil) })
)

// Reductions maps names to the built-in reduction kernels.
var Reductions = map[string]Kernel{
	"sum":    Sum,
	"min":    Min,
	"max":    Max,
	"mean":   Mean,
	"stddev": StdDev,
}
